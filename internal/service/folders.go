package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"televault/internal/domain"
	"televault/internal/domain/events"
	"televault/internal/domain/models"
	"televault/internal/domain/repositories"
	"televault/internal/pathutil"
)

// FolderService implements the folder mutations of the metadata store,
// including the rename cascade that rewrites every descendant path.
type FolderService struct {
	folderRepo repositories.FolderRepository
	fileRepo   repositories.FileRepository
	txManager  repositories.TransactionManager
	sink       events.Sink
	logger     *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(
	folderRepo repositories.FolderRepository,
	fileRepo repositories.FileRepository,
	txManager repositories.TransactionManager,
	sink events.Sink,
	logger *slog.Logger,
) *FolderService {
	return &FolderService{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		txManager:  txManager,
		sink:       sink,
		logger:     logger,
	}
}

// CreateFolder creates a folder under parentPath, rejecting duplicate
// sibling names.
func (s *FolderService) CreateFolder(ctx context.Context, req *models.CreateFolderRequest) (*models.Folder, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if !pathutil.IsValid(req.ParentPath) || !pathutil.IsValid(req.Name) {
		return nil, fmt.Errorf("folder %q under %q: %w", req.Name, req.ParentPath, domain.ErrInvalidPath)
	}

	now := time.Now()
	folder := &models.Folder{
		ID:         uuid.NewString(),
		AccountID:  req.AccountID,
		Name:       req.Name,
		Path:       pathutil.Join(req.ParentPath, req.Name),
		ParentPath: req.ParentPath,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if req.ParentPath != pathutil.Root {
			if _, err := s.folderRepo.GetByPath(ctx, req.AccountID, req.ParentPath); err != nil {
				return err
			}
		}

		existing, err := s.folderRepo.GetByPath(ctx, req.AccountID, folder.Path)
		if err := notFoundOK(err); err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("folder '%s': %w", req.Name, domain.ErrConflict)
		}

		return s.folderRepo.Create(ctx, folder)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"account_id", folder.AccountID,
		"path", folder.Path,
	)
	s.emit(ctx, events.New(events.FolderCreated, folder.AccountID, events.FolderPayload{Folder: *folder}))

	return folder, nil
}

// DeleteFolder removes a folder and everything beneath it: descendant
// folders and every file in the subtree, trashed ones included. Aggregates
// cover a folder's direct files only, so the parent's counters are
// unaffected.
func (s *FolderService) DeleteFolder(ctx context.Context, accountID, path string) (*models.Folder, error) {
	if !pathutil.IsValid(path) || path == pathutil.Root {
		return nil, fmt.Errorf("folder path %q: %w", path, domain.ErrInvalidPath)
	}

	var folder *models.Folder

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		folder, err = s.folderRepo.GetByPath(ctx, accountID, path)
		if err != nil {
			return err
		}

		if err := s.fileRepo.DeleteByFolderPrefix(ctx, accountID, path); err != nil {
			return err
		}
		if err := s.folderRepo.DeleteByPrefix(ctx, accountID, path); err != nil {
			return err
		}
		return s.folderRepo.Delete(ctx, folder.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder deleted", "id", folder.ID, "account_id", accountID, "path", path)
	s.emit(ctx, events.New(events.FolderDeleted, accountID, events.FolderRemovedPayload{
		ID:   folder.ID,
		Path: folder.Path,
	}))

	return folder, nil
}

// RenameFolder renames a folder and cascades the path change to every
// descendant folder and file. The cascade is a prefix-rewrite bounded at
// segment level: only paths equal to the old path or starting with it plus
// a separator are touched, never siblings that share a textual substring.
func (s *FolderService) RenameFolder(ctx context.Context, id, name string) (*models.Folder, error) {
	req := models.RenameFolderRequest{Name: name}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if !pathutil.IsValid(name) {
		return nil, fmt.Errorf("folder name %q: %w", name, domain.ErrInvalidPath)
	}

	var updated *models.Folder
	var renamed bool

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		folder, err := s.folderRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if folder.Name == name {
			updated = folder
			return nil
		}
		renamed = true

		oldPath := folder.Path
		newPath := pathutil.Join(folder.ParentPath, name)

		existing, err := s.folderRepo.GetByPath(ctx, folder.AccountID, newPath)
		if err := notFoundOK(err); err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("folder '%s': %w", name, domain.ErrConflict)
		}

		updated, err = s.folderRepo.Rename(ctx, id, name, newPath)
		if err != nil {
			return err
		}
		if err := s.folderRepo.RewritePathPrefix(ctx, folder.AccountID, oldPath, newPath); err != nil {
			return err
		}
		return s.fileRepo.RewriteFolderPrefix(ctx, folder.AccountID, oldPath, newPath)
	})
	if err != nil {
		return nil, err
	}

	if renamed {
		s.logger.Info("folder renamed",
			"id", updated.ID,
			"account_id", updated.AccountID,
			"path", updated.Path,
		)
		s.emit(ctx, events.New(events.FolderRenamed, updated.AccountID, events.FolderPayload{Folder: *updated}))
	}

	return updated, nil
}

// GetFolders lists the immediate child folders of path.
func (s *FolderService) GetFolders(ctx context.Context, accountID, path string) ([]models.Folder, error) {
	return s.folderRepo.ListByParent(ctx, accountID, path)
}

// GetFolder retrieves one folder by path.
func (s *FolderService) GetFolder(ctx context.Context, accountID, path string) (*models.Folder, error) {
	return s.folderRepo.GetByPath(ctx, accountID, path)
}

func (s *FolderService) emit(ctx context.Context, ev events.Event) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Publish(ctx, ev); err != nil {
		s.logger.Warn("event publish failed",
			"type", ev.Type,
			"account_id", ev.AccountID,
			"error", err,
		)
	}
}
