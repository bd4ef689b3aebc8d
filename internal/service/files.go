package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"televault/internal/domain"
	"televault/internal/domain/events"
	"televault/internal/domain/models"
	"televault/internal/domain/repositories"
	"televault/internal/pathutil"
)

// FileService implements every file mutation of the metadata store. Each
// mutation executes its row changes and folder-aggregate updates as one
// transaction; the matching event is published only after the transaction
// commits, and a publish failure is logged, never retried.
type FileService struct {
	fileRepo   repositories.FileRepository
	folderRepo repositories.FolderRepository
	txManager  repositories.TransactionManager
	sink       events.Sink
	logger     *slog.Logger
}

// NewFileService creates a new file service
func NewFileService(
	fileRepo repositories.FileRepository,
	folderRepo repositories.FolderRepository,
	txManager repositories.TransactionManager,
	sink events.Sink,
	logger *slog.Logger,
) *FileService {
	return &FileService{
		fileRepo:   fileRepo,
		folderRepo: folderRepo,
		txManager:  txManager,
		sink:       sink,
		logger:     logger,
	}
}

// CreateFile registers a file's metadata after its bytes reached the
// transport, and counts it into the owning folder's aggregates.
func (s *FileService) CreateFile(ctx context.Context, req *models.CreateFileRequest) (*models.File, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if !pathutil.IsValid(req.FolderPath) {
		return nil, fmt.Errorf("folder path %q: %w", req.FolderPath, domain.ErrInvalidPath)
	}

	now := time.Now()
	file := &models.File{
		ID:         uuid.NewString(),
		AccountID:  req.AccountID,
		FolderPath: req.FolderPath,
		Filename:   req.Filename,
		Filetype:   req.Filetype,
		Size:       req.Size,
		ChatID:     req.ChatID,
		MessageID:  req.MessageID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if file.FolderPath != pathutil.Root {
			if _, err := s.folderRepo.GetByPath(ctx, file.AccountID, file.FolderPath); err != nil {
				return err
			}
		}
		if err := s.fileRepo.Create(ctx, file); err != nil {
			return err
		}
		if file.FolderPath != pathutil.Root {
			return s.folderRepo.AdjustStats(ctx, file.AccountID, file.FolderPath, 1, file.Size)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("file created",
		"id", file.ID,
		"account_id", file.AccountID,
		"folder_path", file.FolderPath,
		"size", file.Size,
	)
	s.emit(ctx, events.New(events.FileAdded, file.AccountID, events.FilePayload{File: *file}))

	return file, nil
}

// DeleteFile moves a file to trash and removes it from its folder's
// aggregates. Deleting an already-trashed file is a no-op.
func (s *FileService) DeleteFile(ctx context.Context, id string) (*models.File, error) {
	var file *models.File
	var alreadyDeleted bool

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		file, err = s.fileRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if file.IsDeleted {
			alreadyDeleted = true
			return nil
		}

		now := time.Now()
		file.IsDeleted = true
		file.DeletedAt = &now
		file.UpdatedAt = now
		if err := s.fileRepo.Update(ctx, file); err != nil {
			return err
		}
		if file.FolderPath != pathutil.Root {
			return s.folderRepo.AdjustStats(ctx, file.AccountID, file.FolderPath, -1, -file.Size)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !alreadyDeleted {
		s.emit(ctx, events.New(events.FileRemoved, file.AccountID, events.FileRemovedPayload{ID: file.ID}))
	}
	return file, nil
}

// RestoreFileFromTrash clears the soft-delete marker and counts the file
// back into its folder's aggregates. Restoring a live file is a no-op.
func (s *FileService) RestoreFileFromTrash(ctx context.Context, id string) (*models.File, error) {
	var file *models.File
	var alreadyLive bool

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		file, err = s.fileRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !file.IsDeleted {
			alreadyLive = true
			return nil
		}

		file.IsDeleted = false
		file.DeletedAt = nil
		file.UpdatedAt = time.Now()
		if err := s.fileRepo.Update(ctx, file); err != nil {
			return err
		}
		if file.FolderPath != pathutil.Root {
			return s.folderRepo.AdjustStats(ctx, file.AccountID, file.FolderPath, 1, file.Size)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !alreadyLive {
		s.emit(ctx, events.New(events.FileUpdated, file.AccountID, events.FilePayload{File: *file}))
	}
	return file, nil
}

// DeleteFilePermanently hard-deletes the row. A trashed file was already
// excluded from its folder's aggregates; a live one is decremented first so
// the aggregates stay consistent either way.
func (s *FileService) DeleteFilePermanently(ctx context.Context, id string) error {
	var file *models.File

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		file, err = s.fileRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.fileRepo.Delete(ctx, id); err != nil {
			return err
		}
		if !file.IsDeleted && file.FolderPath != pathutil.Root {
			return s.folderRepo.AdjustStats(ctx, file.AccountID, file.FolderPath, -1, -file.Size)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("file permanently deleted", "id", id, "account_id", file.AccountID)
	s.emit(ctx, events.New(events.FileRemoved, file.AccountID, events.FileRemovedPayload{ID: file.ID}))
	return nil
}

// RenameFile updates the filename only; folder membership and aggregates
// are untouched.
func (s *FileService) RenameFile(ctx context.Context, id, name string) (*models.File, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrValidation)
	}

	var file *models.File
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		file, err = s.fileRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		file.Filename = name
		file.UpdatedAt = time.Now()
		return s.fileRepo.Update(ctx, file)
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.New(events.FileUpdated, file.AccountID, events.FilePayload{File: *file}))
	return file, nil
}

// MoveFile reparents a file, shifting its aggregate contribution from the
// old folder to the new one. Moving a file onto its current folder is a
// no-op.
func (s *FileService) MoveFile(ctx context.Context, id, targetPath string) (*models.File, error) {
	if !pathutil.IsValid(targetPath) {
		return nil, fmt.Errorf("target path %q: %w", targetPath, domain.ErrInvalidPath)
	}

	var file *models.File
	var moved bool

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		file, err = s.fileRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if file.FolderPath == targetPath {
			return nil
		}

		if targetPath != pathutil.Root {
			if _, err := s.folderRepo.GetByPath(ctx, file.AccountID, targetPath); err != nil {
				return err
			}
		}

		oldPath := file.FolderPath
		file.FolderPath = targetPath
		file.UpdatedAt = time.Now()
		if err := s.fileRepo.Update(ctx, file); err != nil {
			return err
		}

		// Trashed files are not counted anywhere, so moving one shifts
		// nothing.
		if !file.IsDeleted {
			if oldPath != pathutil.Root {
				if err := s.folderRepo.AdjustStats(ctx, file.AccountID, oldPath, -1, -file.Size); err != nil {
					return err
				}
			}
			if targetPath != pathutil.Root {
				if err := s.folderRepo.AdjustStats(ctx, file.AccountID, targetPath, 1, file.Size); err != nil {
					return err
				}
			}
		}
		moved = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if moved {
		s.emit(ctx, events.New(events.FileUpdated, file.AccountID, events.FilePayload{File: *file}))
	}
	return file, nil
}

// CopyFile duplicates the source row under a collision-free name in the
// same folder: "name_copy", then "name_copy_1", "name_copy_2", ... until an
// unused name is found (the extension, if any, is preserved).
func (s *FileService) CopyFile(ctx context.Context, id string) (*models.File, error) {
	var dup *models.File

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		source, err := s.fileRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		name := copyName(source.Filename, 0)
		for n := 1; ; n++ {
			exists, err := s.fileRepo.ExistsName(ctx, source.AccountID, source.FolderPath, name)
			if err != nil {
				return err
			}
			if !exists {
				break
			}
			name = copyName(source.Filename, n)
		}

		now := time.Now()
		dup = &models.File{
			ID:           uuid.NewString(),
			AccountID:    source.AccountID,
			FolderPath:   source.FolderPath,
			Filename:     name,
			Filetype:     source.Filetype,
			Size:         source.Size,
			ChatID:       source.ChatID,
			MessageID:    source.MessageID,
			IsBookmarked: source.IsBookmarked,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.fileRepo.Create(ctx, dup); err != nil {
			return err
		}
		if dup.FolderPath != pathutil.Root {
			return s.folderRepo.AdjustStats(ctx, dup.AccountID, dup.FolderPath, 1, dup.Size)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("file copied", "source_id", id, "copy_id", dup.ID, "filename", dup.Filename)
	s.emit(ctx, events.New(events.FileAdded, dup.AccountID, events.FilePayload{File: *dup}))
	return dup, nil
}

// ToggleBookmarkFile flips the bookmark flag and returns the new value.
func (s *FileService) ToggleBookmarkFile(ctx context.Context, id string) (bool, error) {
	var file *models.File

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		file, err = s.fileRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		file.IsBookmarked = !file.IsBookmarked
		file.UpdatedAt = time.Now()
		return s.fileRepo.Update(ctx, file)
	})
	if err != nil {
		return false, err
	}

	s.emit(ctx, events.New(events.FileUpdated, file.AccountID, events.FilePayload{File: *file}))
	return file.IsBookmarked, nil
}

// GetFile retrieves one file by id.
func (s *FileService) GetFile(ctx context.Context, id string) (*models.File, error) {
	return s.fileRepo.GetByID(ctx, id)
}

// GetFiles lists the non-deleted files of one folder.
func (s *FileService) GetFiles(ctx context.Context, accountID, folderPath string) ([]models.File, error) {
	return s.fileRepo.ListByFolder(ctx, accountID, folderPath)
}

// GetTrashFiles lists an account's trashed files.
func (s *FileService) GetTrashFiles(ctx context.Context, accountID string) ([]models.File, error) {
	return s.fileRepo.ListTrash(ctx, accountID)
}

// GetBookmarkedFiles lists an account's bookmarked files.
func (s *FileService) GetBookmarkedFiles(ctx context.Context, accountID string) ([]models.File, error) {
	return s.fileRepo.ListBookmarked(ctx, accountID)
}

// GetFileStats returns account-wide usage totals.
func (s *FileService) GetFileStats(ctx context.Context, accountID string) (*models.AccountStats, error) {
	return s.fileRepo.AccountStats(ctx, accountID)
}

func (s *FileService) emit(ctx context.Context, ev events.Event) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Publish(ctx, ev); err != nil {
		// Real-time sync is advisory; the committed change stands.
		s.logger.Warn("event publish failed",
			"type", ev.Type,
			"account_id", ev.AccountID,
			"error", err,
		)
	}
}

// copyName derives the nth probe name for a copy of filename. n == 0 gives
// "stem_copy.ext", n >= 1 gives "stem_copy_n.ext".
func copyName(filename string, n int) string {
	stem, ext := filename, ""
	if idx := strings.LastIndex(filename, "."); idx > 0 {
		stem, ext = filename[:idx], filename[idx:]
	}
	if n == 0 {
		return stem + "_copy" + ext
	}
	return fmt.Sprintf("%s_copy_%d%s", stem, n, ext)
}

// notFoundOK swallows ErrNotFound, for lookups where absence is the normal
// case.
func notFoundOK(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return err
}
