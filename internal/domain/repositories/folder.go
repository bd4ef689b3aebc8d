package repositories

import (
	"context"

	"televault/internal/domain/models"
)

// FolderRepository persists folder rows and their aggregate stats.
type FolderRepository interface {
	// Create inserts a new folder row.
	Create(ctx context.Context, folder *models.Folder) error

	// GetByID retrieves a folder by id.
	GetByID(ctx context.Context, id string) (*models.Folder, error)

	// GetByPath retrieves a folder by its canonical path.
	GetByPath(ctx context.Context, accountID, path string) (*models.Folder, error)

	// ListByParent lists the immediate child folders of parentPath, ordered
	// by name.
	ListByParent(ctx context.Context, accountID, parentPath string) ([]models.Folder, error)

	// Rename updates a folder's name and path, returning the updated row.
	// Descendants are rewritten separately via the prefix-rewrite methods.
	Rename(ctx context.Context, id, name, newPath string) (*models.Folder, error)

	// Delete removes a folder row.
	Delete(ctx context.Context, id string) error

	// DeleteByPrefix removes every folder strictly below path.
	DeleteByPrefix(ctx context.Context, accountID, path string) error

	// RewritePathPrefix substitutes oldPath with newPath on every folder
	// strictly below oldPath (the renamed folder itself is updated via
	// Rename). Parent paths are rewritten along with paths.
	RewritePathPrefix(ctx context.Context, accountID, oldPath, newPath string) error

	// AdjustStats applies an aggregate delta to the folder at path.
	// Callers skip the root path, which has no folder row.
	AdjustStats(ctx context.Context, accountID, path string, deltaFiles int, deltaSize int64) error
}
