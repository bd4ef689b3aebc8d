package realtime

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"televault/internal/domain/events"
	"televault/internal/domain/models"
)

func newTestView(refetch Refetcher) *View {
	return NewView("acct-1", refetch, slog.New(slog.DiscardHandler))
}

func file(id, path string) models.File {
	return models.File{ID: id, AccountID: "acct-1", FolderPath: path, Filename: id + ".pdf"}
}

func fileIDs(files []models.File) []string {
	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
	}
	return ids
}

func TestViewFileAdded(t *testing.T) {
	v := newTestView(nil)
	v.SetPath("/docs", []models.File{file("f1", "/docs")}, nil)

	v.Apply(context.Background(), events.New(events.FileAdded, "acct-1", events.FilePayload{File: file("f2", "/docs")}))
	if got := fileIDs(v.Files()); len(got) != 2 {
		t.Fatalf("files = %v, want f1 and f2", got)
	}

	// A row added elsewhere stays out of the view.
	v.Apply(context.Background(), events.New(events.FileAdded, "acct-1", events.FilePayload{File: file("f3", "/other")}))
	if got := fileIDs(v.Files()); len(got) != 2 {
		t.Errorf("files = %v, out-of-path add leaked in", got)
	}

	// Re-delivery of the same add replaces, never duplicates.
	v.Apply(context.Background(), events.New(events.FileAdded, "acct-1", events.FilePayload{File: file("f2", "/docs")}))
	if got := fileIDs(v.Files()); len(got) != 2 {
		t.Errorf("files = %v, duplicate add created a second row", got)
	}
}

func TestViewFileUpdatedMembership(t *testing.T) {
	tests := []struct {
		name      string
		update    models.File
		wantFiles []string
	}{
		{
			name:      "updated in place",
			update:    file("f1", "/docs"),
			wantFiles: []string{"f1", "f2"},
		},
		{
			name:      "moved out of view",
			update:    file("f1", "/other"),
			wantFiles: []string{"f2"},
		},
		{
			name:      "moved into view",
			update:    file("f9", "/docs"),
			wantFiles: []string{"f1", "f2", "f9"},
		},
		{
			name:      "unrelated row elsewhere",
			update:    file("f9", "/other"),
			wantFiles: []string{"f1", "f2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestView(nil)
			v.SetPath("/docs", []models.File{file("f1", "/docs"), file("f2", "/docs")}, nil)

			v.Apply(context.Background(), events.New(events.FileUpdated, "acct-1", events.FilePayload{File: tt.update}))

			got := fileIDs(v.Files())
			if len(got) != len(tt.wantFiles) {
				t.Fatalf("files = %v, want %v", got, tt.wantFiles)
			}
			for i := range got {
				if got[i] != tt.wantFiles[i] {
					t.Errorf("files = %v, want %v", got, tt.wantFiles)
					break
				}
			}
		})
	}
}

func TestViewFileRemoved(t *testing.T) {
	v := newTestView(nil)
	v.SetPath("/docs", []models.File{file("f1", "/docs"), file("f2", "/docs")}, nil)

	v.Apply(context.Background(), events.New(events.FileRemoved, "acct-1", events.FileRemovedPayload{ID: "f1"}))
	if got := fileIDs(v.Files()); len(got) != 1 || got[0] != "f2" {
		t.Errorf("files = %v, want [f2]", got)
	}

	// Removing an id not in the view is harmless.
	v.Apply(context.Background(), events.New(events.FileRemoved, "acct-1", events.FileRemovedPayload{ID: "f9"}))
	if got := fileIDs(v.Files()); len(got) != 1 {
		t.Errorf("files = %v, want [f2]", got)
	}
}

func TestViewBatchDelete(t *testing.T) {
	v := newTestView(nil)
	v.SetPath("/docs", []models.File{file("f1", "/docs"), file("f2", "/docs"), file("f3", "/docs")}, nil)

	v.Apply(context.Background(), events.New(events.BatchFileDeleted, "acct-1", events.FileIDsPayload{
		FileIDs: []string{"f1", "f3", "f9"},
	}))
	if got := fileIDs(v.Files()); len(got) != 1 || got[0] != "f2" {
		t.Errorf("files = %v, want [f2]", got)
	}
}

func TestViewBatchMove(t *testing.T) {
	v := newTestView(nil)
	v.SetPath("/docs", []models.File{file("f1", "/docs"), file("f2", "/docs")}, nil)

	// f1 leaves the view, f9 arrives into it.
	v.Apply(context.Background(), events.New(events.BatchFileMoved, "acct-1", events.FilesPayload{
		Files: []models.File{file("f1", "/other"), file("f9", "/docs")},
	}))

	got := fileIDs(v.Files())
	if len(got) != 2 || got[0] != "f2" || got[1] != "f9" {
		t.Errorf("files = %v, want [f2 f9]", got)
	}
}

func TestViewBatchBookmarkReplacesInPlaceOnly(t *testing.T) {
	v := newTestView(nil)
	v.SetPath("/docs", []models.File{file("f1", "/docs")}, nil)

	bookmarked := file("f1", "/docs")
	bookmarked.IsBookmarked = true
	elsewhere := file("f9", "/docs")
	elsewhere.IsBookmarked = true

	v.Apply(context.Background(), events.New(events.BatchFileBookmarked, "acct-1", events.FilesPayload{
		Files: []models.File{bookmarked, elsewhere},
	}))

	files := v.Files()
	if len(files) != 1 {
		t.Fatalf("files = %v, bookmark changed membership", fileIDs(files))
	}
	if !files[0].IsBookmarked {
		t.Error("bookmark flag not applied in place")
	}
}

func TestViewFolderEvents(t *testing.T) {
	v := newTestView(nil)
	v.SetPath("/", nil, []models.Folder{{ID: "d1", AccountID: "acct-1", Name: "docs", Path: "/docs", ParentPath: "/"}})

	v.Apply(context.Background(), events.New(events.FolderCreated, "acct-1", events.FolderPayload{
		Folder: models.Folder{ID: "d2", AccountID: "acct-1", Name: "media", Path: "/media", ParentPath: "/"},
	}))
	if got := v.Folders(); len(got) != 2 {
		t.Fatalf("folders = %d, want 2", len(got))
	}

	v.Apply(context.Background(), events.New(events.FolderRenamed, "acct-1", events.FolderPayload{
		Folder: models.Folder{ID: "d1", AccountID: "acct-1", Name: "archive", Path: "/archive", ParentPath: "/"},
	}))
	folders := v.Folders()
	if folders[0].Name != "archive" {
		t.Errorf("rename not applied: %+v", folders[0])
	}

	v.Apply(context.Background(), events.New(events.FolderDeleted, "acct-1", events.FolderRemovedPayload{ID: "d2", Path: "/media"}))
	if got := v.Folders(); len(got) != 1 || got[0].ID != "d1" {
		t.Errorf("folders after delete = %+v, want just d1", got)
	}
}

func TestViewUnknownEventRefetches(t *testing.T) {
	refetched := false
	v := newTestView(func(ctx context.Context, accountID, path string) ([]models.File, []models.Folder, error) {
		refetched = true
		if accountID != "acct-1" || path != "/docs" {
			t.Errorf("refetch called with (%q, %q)", accountID, path)
		}
		return []models.File{file("fresh", "/docs")}, nil, nil
	})
	v.SetPath("/docs", []models.File{file("stale", "/docs")}, nil)

	v.Apply(context.Background(), events.Event{
		Type:      events.Type("QUOTA_CHANGED"),
		AccountID: "acct-1",
		Payload:   events.UnknownPayload{},
	})

	if !refetched {
		t.Fatal("unknown event did not trigger a refetch")
	}
	if got := fileIDs(v.Files()); len(got) != 1 || got[0] != "fresh" {
		t.Errorf("files = %v, want [fresh]", got)
	}
}

func TestViewRefetchFailureKeepsCache(t *testing.T) {
	v := newTestView(func(ctx context.Context, accountID, path string) ([]models.File, []models.Folder, error) {
		return nil, nil, errors.New("backend down")
	})
	v.SetPath("/docs", []models.File{file("f1", "/docs")}, nil)

	v.Apply(context.Background(), events.Event{
		Type:      events.Type("QUOTA_CHANGED"),
		AccountID: "acct-1",
		Payload:   events.UnknownPayload{},
	})

	if got := fileIDs(v.Files()); len(got) != 1 || got[0] != "f1" {
		t.Errorf("files = %v, failed refetch clobbered the cache", got)
	}
}

func TestViewIgnoresOtherAccounts(t *testing.T) {
	v := newTestView(nil)
	v.SetPath("/docs", []models.File{file("f1", "/docs")}, nil)

	other := file("f2", "/docs")
	other.AccountID = "acct-2"
	v.Apply(context.Background(), events.Event{
		Type:      events.FileAdded,
		AccountID: "acct-2",
		Payload:   events.FilePayload{File: other},
	})

	if got := fileIDs(v.Files()); len(got) != 1 {
		t.Errorf("files = %v, another account's event applied", got)
	}
}

func TestViewSubscribe(t *testing.T) {
	v := newTestView(nil)
	v.SetPath("/docs", nil, nil)

	var seen []events.Type
	unsubscribe := v.Subscribe(func(ev events.Event) {
		seen = append(seen, ev.Type)
	})

	v.Apply(context.Background(), events.New(events.FileAdded, "acct-1", events.FilePayload{File: file("f1", "/docs")}))
	if len(seen) != 1 || seen[0] != events.FileAdded {
		t.Fatalf("seen = %v, want [FILE_ADDED]", seen)
	}

	unsubscribe()
	unsubscribe() // second call is a no-op

	v.Apply(context.Background(), events.New(events.FileRemoved, "acct-1", events.FileRemovedPayload{ID: "f1"}))
	if len(seen) != 1 {
		t.Errorf("seen = %v, callback ran after unsubscribe", seen)
	}
}
