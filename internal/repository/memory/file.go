package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"televault/internal/domain"
	"televault/internal/domain/models"
	"televault/internal/pathutil"
)

type fileRepository struct {
	store *Store
}

func (r *fileRepository) Create(ctx context.Context, file *models.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.files[file.ID]; exists {
		return fmt.Errorf("file %s: %w", file.ID, domain.ErrConflict)
	}

	clone := *file
	r.store.files[file.ID] = &clone
	return nil
}

func (r *fileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	file, exists := r.store.files[id]
	if !exists {
		return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	clone := *file
	return &clone, nil
}

func (r *fileRepository) GetByIDs(ctx context.Context, ids []string) ([]models.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var files []models.File
	for _, id := range ids {
		if file, exists := r.store.files[id]; exists {
			files = append(files, *file)
		}
	}
	return files, nil
}

func (r *fileRepository) ListByFolder(ctx context.Context, accountID, folderPath string) ([]models.File, error) {
	return r.list(ctx, func(f *models.File) bool {
		return f.AccountID == accountID && f.FolderPath == folderPath && !f.IsDeleted
	})
}

func (r *fileRepository) ListTrash(ctx context.Context, accountID string) ([]models.File, error) {
	return r.list(ctx, func(f *models.File) bool {
		return f.AccountID == accountID && f.IsDeleted
	})
}

func (r *fileRepository) ListBookmarked(ctx context.Context, accountID string) ([]models.File, error) {
	return r.list(ctx, func(f *models.File) bool {
		return f.AccountID == accountID && f.IsBookmarked && !f.IsDeleted
	})
}

func (r *fileRepository) list(ctx context.Context, match func(*models.File) bool) ([]models.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var files []models.File
	for _, file := range r.store.files {
		if match(file) {
			files = append(files, *file)
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Filename < files[j].Filename
	})
	return files, nil
}

func (r *fileRepository) Update(ctx context.Context, file *models.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.files[file.ID]; !exists {
		return fmt.Errorf("file %s: %w", file.ID, domain.ErrNotFound)
	}

	clone := *file
	r.store.files[file.ID] = &clone
	return nil
}

func (r *fileRepository) SetDeleted(ctx context.Context, ids []string, deleted bool, deletedAt *time.Time) error {
	return r.updateEach(ctx, ids, func(f *models.File) {
		f.IsDeleted = deleted
		f.DeletedAt = deletedAt
		f.UpdatedAt = time.Now()
	})
}

func (r *fileRepository) SetFolderPath(ctx context.Context, ids []string, folderPath string) error {
	return r.updateEach(ctx, ids, func(f *models.File) {
		f.FolderPath = folderPath
		f.UpdatedAt = time.Now()
	})
}

func (r *fileRepository) SetBookmarked(ctx context.Context, ids []string, bookmarked bool) error {
	return r.updateEach(ctx, ids, func(f *models.File) {
		f.IsBookmarked = bookmarked
		f.UpdatedAt = time.Now()
	})
}

func (r *fileRepository) updateEach(ctx context.Context, ids []string, apply func(*models.File)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, id := range ids {
		if file, exists := r.store.files[id]; exists {
			apply(file)
		}
	}
	return nil
}

func (r *fileRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.files[id]; !exists {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	delete(r.store.files, id)
	return nil
}

func (r *fileRepository) DeleteByFolderPrefix(ctx context.Context, accountID, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, file := range r.store.files {
		if file.AccountID == accountID && pathutil.HasPrefix(file.FolderPath, path) {
			delete(r.store.files, id)
		}
	}
	return nil
}

func (r *fileRepository) RewriteFolderPrefix(ctx context.Context, accountID, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, file := range r.store.files {
		if file.AccountID == accountID && pathutil.HasPrefix(file.FolderPath, oldPath) {
			file.FolderPath = pathutil.RewritePrefix(file.FolderPath, oldPath, newPath)
			file.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (r *fileRepository) ExistsName(ctx context.Context, accountID, folderPath, filename string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, file := range r.store.files {
		if file.AccountID == accountID && file.FolderPath == folderPath &&
			file.Filename == filename && !file.IsDeleted {
			return true, nil
		}
	}
	return false, nil
}

func (r *fileRepository) AccountStats(ctx context.Context, accountID string) (*models.AccountStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var stats models.AccountStats
	for _, file := range r.store.files {
		if file.AccountID == accountID {
			stats.TotalFiles++
			stats.TotalSize += file.Size
		}
	}
	return &stats, nil
}
