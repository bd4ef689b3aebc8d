package realtime

import (
	"context"
	"log/slog"

	"televault/internal/domain/events"
	"televault/internal/domain/models"
)

// Refetcher loads the full contents of a path, used when an event cannot be
// applied incrementally.
type Refetcher func(ctx context.Context, accountID, path string) ([]models.File, []models.Folder, error)

// View is the locally cached {files, folders} listing of one displayed
// path. Incoming events are applied as differential patches; only an
// unrecognized event type forces a refetch.
type View struct {
	accountID string
	logger    *slog.Logger
	refetch   Refetcher

	mu      chanLock
	path    string
	files   []models.File
	folders []models.Folder

	subs    map[int]func(events.Event)
	nextSub int
}

// chanLock is a channel-based mutex so Apply can release it around
// subscriber callbacks without re-entrancy hazards.
type chanLock chan struct{}

func (l chanLock) lock()   { l <- struct{}{} }
func (l chanLock) unlock() { <-l }

// NewView creates a view for one account. refetch may be nil, in which case
// unknown events are logged and dropped.
func NewView(accountID string, refetch Refetcher, logger *slog.Logger) *View {
	return &View{
		accountID: accountID,
		logger:    logger,
		refetch:   refetch,
		mu:        make(chanLock, 1),
		path:      "/",
		subs:      make(map[int]func(events.Event)),
	}
}

// SetPath repoints the view at a new displayed path with its fetched
// contents.
func (v *View) SetPath(path string, files []models.File, folders []models.Folder) {
	v.mu.lock()
	defer v.mu.unlock()
	v.path = path
	v.files = append([]models.File(nil), files...)
	v.folders = append([]models.Folder(nil), folders...)
}

// Path returns the currently displayed path.
func (v *View) Path() string {
	v.mu.lock()
	defer v.mu.unlock()
	return v.path
}

// Files returns a copy of the cached file listing.
func (v *View) Files() []models.File {
	v.mu.lock()
	defer v.mu.unlock()
	return append([]models.File(nil), v.files...)
}

// Folders returns a copy of the cached folder listing.
func (v *View) Folders() []models.Folder {
	v.mu.lock()
	defer v.mu.unlock()
	return append([]models.Folder(nil), v.folders...)
}

// Subscribe registers a callback invoked after every applied event. The
// returned handle unsubscribes; calling it more than once is safe.
func (v *View) Subscribe(fn func(events.Event)) (unsubscribe func()) {
	v.mu.lock()
	defer v.mu.unlock()

	id := v.nextSub
	v.nextSub++
	v.subs[id] = fn

	return func() {
		v.mu.lock()
		defer v.mu.unlock()
		delete(v.subs, id)
	}
}

// Apply patches the cached view with one event, then notifies subscribers.
// Events for other accounts are ignored.
func (v *View) Apply(ctx context.Context, ev events.Event) {
	if ev.AccountID != v.accountID {
		return
	}

	v.mu.lock()
	needRefetch := false

	switch payload := ev.Payload.(type) {
	case events.FilePayload:
		switch ev.Type {
		case events.FileAdded:
			v.upsertFile(payload.File, true)
		case events.FileUpdated:
			v.patchFile(payload.File)
		default:
			needRefetch = true
		}
	case events.FileRemovedPayload:
		v.removeFile(payload.ID)
	case events.FileIDsPayload:
		removed := make(map[string]bool, len(payload.FileIDs))
		for _, id := range payload.FileIDs {
			removed[id] = true
		}
		kept := v.files[:0]
		for _, f := range v.files {
			if !removed[f.ID] {
				kept = append(kept, f)
			}
		}
		v.files = kept
	case events.FilesPayload:
		for _, f := range payload.Files {
			if ev.Type == events.BatchFileMoved {
				// Same in-view/out-of-view logic as a single update.
				v.patchFile(f)
			} else {
				// Bookmarking never changes membership: replace in place
				// only.
				v.upsertFile(f, false)
			}
		}
	case events.FolderPayload:
		switch ev.Type {
		case events.FolderCreated:
			v.upsertFolder(payload.Folder, true)
		case events.FolderRenamed:
			v.upsertFolder(payload.Folder, false)
		default:
			needRefetch = true
		}
	case events.FolderRemovedPayload:
		kept := v.folders[:0]
		for _, f := range v.folders {
			if f.ID != payload.ID {
				kept = append(kept, f)
			}
		}
		v.folders = kept
	default:
		needRefetch = true
	}

	if needRefetch {
		v.refetchLocked(ctx, ev)
	}

	subs := make([]func(events.Event), 0, len(v.subs))
	for _, fn := range v.subs {
		subs = append(subs, fn)
	}
	v.mu.unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// patchFile applies the in-view/out-of-view logic for an updated row:
// replace it if it stays in the displayed path, drop it if it moved away,
// append it if it moved in, ignore it otherwise.
func (v *View) patchFile(file models.File) {
	for i, f := range v.files {
		if f.ID == file.ID {
			if file.FolderPath == v.path {
				v.files[i] = file
			} else {
				v.files = append(v.files[:i], v.files[i+1:]...)
			}
			return
		}
	}
	if file.FolderPath == v.path {
		v.files = append(v.files, file)
	}
}

// upsertFile replaces a cached row by id; when insert is set and the row is
// new to the displayed path, it is appended (de-duplication keeps a
// re-delivered add harmless).
func (v *View) upsertFile(file models.File, insert bool) {
	for i, f := range v.files {
		if f.ID == file.ID {
			v.files[i] = file
			return
		}
	}
	if insert && file.FolderPath == v.path {
		v.files = append(v.files, file)
	}
}

func (v *View) removeFile(id string) {
	for i, f := range v.files {
		if f.ID == id {
			v.files = append(v.files[:i], v.files[i+1:]...)
			return
		}
	}
}

func (v *View) upsertFolder(folder models.Folder, insert bool) {
	for i, f := range v.folders {
		if f.ID == folder.ID {
			v.folders[i] = folder
			return
		}
	}
	if insert && folder.ParentPath == v.path {
		v.folders = append(v.folders, folder)
	}
}

// refetchLocked reloads the displayed path after an event that cannot be
// applied incrementally; caller holds the view lock.
func (v *View) refetchLocked(ctx context.Context, ev events.Event) {
	if v.refetch == nil {
		v.logger.Warn("unhandled event and no refetcher", "type", ev.Type)
		return
	}

	files, folders, err := v.refetch(ctx, v.accountID, v.path)
	if err != nil {
		v.logger.Warn("refetch failed", "path", v.path, "error", err)
		return
	}
	v.files = files
	v.folders = folders
}
