package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"televault/internal/domain"
	"televault/internal/domain/models"
	"televault/internal/pathutil"
)

type folderRepository struct {
	store *Store
}

func (r *folderRepository) Create(ctx context.Context, folder *models.Folder) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.folders {
		if existing.AccountID == folder.AccountID && existing.Path == folder.Path {
			return fmt.Errorf("folder '%s': %w", folder.Name, domain.ErrConflict)
		}
	}

	clone := *folder
	r.store.folders[folder.ID] = &clone
	return nil
}

func (r *folderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	folder, exists := r.store.folders[id]
	if !exists {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	clone := *folder
	return &clone, nil
}

func (r *folderRepository) GetByPath(ctx context.Context, accountID, path string) (*models.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, folder := range r.store.folders {
		if folder.AccountID == accountID && folder.Path == path {
			clone := *folder
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("folder %s: %w", path, domain.ErrNotFound)
}

func (r *folderRepository) ListByParent(ctx context.Context, accountID, parentPath string) ([]models.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var folders []models.Folder
	for _, folder := range r.store.folders {
		if folder.AccountID == accountID && folder.ParentPath == parentPath {
			folders = append(folders, *folder)
		}
	}

	sort.Slice(folders, func(i, j int) bool {
		return strings.Compare(folders[i].Name, folders[j].Name) < 0
	})
	return folders, nil
}

func (r *folderRepository) Rename(ctx context.Context, id, name, newPath string) (*models.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	folder, exists := r.store.folders[id]
	if !exists {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	folder.Name = name
	folder.Path = newPath
	folder.UpdatedAt = time.Now()

	clone := *folder
	return &clone, nil
}

func (r *folderRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.folders[id]; !exists {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	delete(r.store.folders, id)
	return nil
}

func (r *folderRepository) DeleteByPrefix(ctx context.Context, accountID, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, folder := range r.store.folders {
		if folder.AccountID == accountID && folder.Path != path && pathutil.HasPrefix(folder.Path, path) {
			delete(r.store.folders, id)
		}
	}
	return nil
}

func (r *folderRepository) RewritePathPrefix(ctx context.Context, accountID, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, folder := range r.store.folders {
		if folder.AccountID != accountID || folder.Path == oldPath {
			continue
		}
		if pathutil.HasPrefix(folder.Path, oldPath) {
			folder.Path = pathutil.RewritePrefix(folder.Path, oldPath, newPath)
			if pathutil.HasPrefix(folder.ParentPath, oldPath) {
				folder.ParentPath = pathutil.RewritePrefix(folder.ParentPath, oldPath, newPath)
			}
			folder.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (r *folderRepository) AdjustStats(ctx context.Context, accountID, path string, deltaFiles int, deltaSize int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deltaFiles == 0 && deltaSize == 0 {
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, folder := range r.store.folders {
		if folder.AccountID == accountID && folder.Path == path {
			folder.TotalFiles += deltaFiles
			folder.TotalSize += deltaSize
			folder.UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("folder %s: %w", path, domain.ErrNotFound)
}
