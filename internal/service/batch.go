package service

import (
	"context"
	"fmt"
	"time"

	"televault/internal/domain"
	"televault/internal/domain/events"
	"televault/internal/domain/models"
	"televault/internal/pathutil"
)

// Batch operations apply the same per-file effects as their singular
// counterparts, but aggregate deltas are accumulated per (account, folder)
// and written once per distinct folder to bound write amplification.
//
// Ids that resolve to no row are silently skipped; an id set that resolves
// to nothing is a no-op returning an empty result.

// folderKey addresses one folder's aggregate delta.
type folderKey struct {
	accountID string
	path      string
}

type folderDelta struct {
	files int
	size  int64
}

func addDelta(deltas map[folderKey]*folderDelta, accountID, path string, files int, size int64) {
	if path == pathutil.Root {
		return
	}
	key := folderKey{accountID: accountID, path: path}
	d, ok := deltas[key]
	if !ok {
		d = &folderDelta{}
		deltas[key] = d
	}
	d.files += files
	d.size += size
}

func (s *FileService) applyDeltas(ctx context.Context, deltas map[folderKey]*folderDelta) error {
	for key, d := range deltas {
		if err := s.folderRepo.AdjustStats(ctx, key.accountID, key.path, d.files, d.size); err != nil {
			return err
		}
	}
	return nil
}

// BatchDeleteFiles soft-deletes every resolvable id and returns the ids
// actually trashed.
func (s *FileService) BatchDeleteFiles(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var affected []models.File

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		files, err := s.fileRepo.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}

		now := time.Now()
		deltas := make(map[folderKey]*folderDelta)
		var targetIDs []string

		for i := range files {
			f := &files[i]
			if f.IsDeleted {
				continue
			}
			targetIDs = append(targetIDs, f.ID)
			f.IsDeleted = true
			f.DeletedAt = &now
			f.UpdatedAt = now
			affected = append(affected, *f)
			addDelta(deltas, f.AccountID, f.FolderPath, -1, -f.Size)
		}
		if len(targetIDs) == 0 {
			return nil
		}

		if err := s.fileRepo.SetDeleted(ctx, targetIDs, true, &now); err != nil {
			return err
		}
		return s.applyDeltas(ctx, deltas)
	})
	if err != nil {
		return nil, err
	}

	deleted := make([]string, 0, len(affected))
	byAccount := make(map[string][]string)
	for _, f := range affected {
		deleted = append(deleted, f.ID)
		byAccount[f.AccountID] = append(byAccount[f.AccountID], f.ID)
	}
	for accountID, accountIDs := range byAccount {
		s.emit(ctx, events.New(events.BatchFileDeleted, accountID, events.FileIDsPayload{FileIDs: accountIDs}))
	}

	s.logger.Info("batch delete", "requested", len(ids), "deleted", len(deleted))
	return deleted, nil
}

// BatchMoveFiles reparents every resolvable id to targetPath and returns the
// updated rows.
func (s *FileService) BatchMoveFiles(ctx context.Context, ids []string, targetPath string) ([]models.File, error) {
	if !pathutil.IsValid(targetPath) {
		return nil, fmt.Errorf("target path %q: %w", targetPath, domain.ErrInvalidPath)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var moved []models.File

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		files, err := s.fileRepo.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return nil
		}

		// The target folder must exist in every namespace the id set spans.
		if targetPath != pathutil.Root {
			seen := make(map[string]bool)
			for i := range files {
				accountID := files[i].AccountID
				if seen[accountID] {
					continue
				}
				seen[accountID] = true
				if _, err := s.folderRepo.GetByPath(ctx, accountID, targetPath); err != nil {
					return err
				}
			}
		}

		now := time.Now()
		deltas := make(map[folderKey]*folderDelta)
		var targetIDs []string

		for i := range files {
			f := &files[i]
			targetIDs = append(targetIDs, f.ID)
			if f.FolderPath != targetPath && !f.IsDeleted {
				addDelta(deltas, f.AccountID, f.FolderPath, -1, -f.Size)
				addDelta(deltas, f.AccountID, targetPath, 1, f.Size)
			}
			f.FolderPath = targetPath
			f.UpdatedAt = now
			moved = append(moved, *f)
		}

		if err := s.fileRepo.SetFolderPath(ctx, targetIDs, targetPath); err != nil {
			return err
		}
		return s.applyDeltas(ctx, deltas)
	})
	if err != nil {
		return nil, err
	}

	for accountID, accountFiles := range groupByAccount(moved) {
		s.emit(ctx, events.New(events.BatchFileMoved, accountID, events.FilesPayload{Files: accountFiles}))
	}

	s.logger.Info("batch move", "requested", len(ids), "moved", len(moved), "target_path", targetPath)
	return moved, nil
}

// BatchBookmarkFiles sets the bookmark flag on every resolvable id and
// returns the updated rows. Bookmarking never changes folder membership, so
// aggregates are untouched.
func (s *FileService) BatchBookmarkFiles(ctx context.Context, ids []string, bookmarked bool) ([]models.File, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var updated []models.File

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		files, err := s.fileRepo.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return nil
		}

		now := time.Now()
		var targetIDs []string
		for i := range files {
			f := &files[i]
			targetIDs = append(targetIDs, f.ID)
			f.IsBookmarked = bookmarked
			f.UpdatedAt = now
			updated = append(updated, *f)
		}

		return s.fileRepo.SetBookmarked(ctx, targetIDs, bookmarked)
	})
	if err != nil {
		return nil, err
	}

	for accountID, accountFiles := range groupByAccount(updated) {
		s.emit(ctx, events.New(events.BatchFileBookmarked, accountID, events.FilesPayload{Files: accountFiles}))
	}

	return updated, nil
}

func groupByAccount(files []models.File) map[string][]models.File {
	grouped := make(map[string][]models.File)
	for _, f := range files {
		grouped[f.AccountID] = append(grouped[f.AccountID], f)
	}
	return grouped
}
