package repositories

import (
	"context"
	"time"

	"televault/internal/domain/models"
)

// FileRepository persists file metadata rows.
type FileRepository interface {
	// Create inserts a new file row.
	Create(ctx context.Context, file *models.File) error

	// GetByID retrieves a file by id, deleted rows included.
	GetByID(ctx context.Context, id string) (*models.File, error)

	// GetByIDs retrieves every existing row for the given ids. Missing ids
	// are silently skipped; the result order is unspecified.
	GetByIDs(ctx context.Context, ids []string) ([]models.File, error)

	// ListByFolder lists the non-deleted files of one folder, ordered by
	// filename.
	ListByFolder(ctx context.Context, accountID, folderPath string) ([]models.File, error)

	// ListTrash lists an account's soft-deleted files.
	ListTrash(ctx context.Context, accountID string) ([]models.File, error)

	// ListBookmarked lists an account's bookmarked, non-deleted files.
	ListBookmarked(ctx context.Context, accountID string) ([]models.File, error)

	// Update rewrites a file row in place.
	Update(ctx context.Context, file *models.File) error

	// SetDeleted marks the given rows deleted or restored in one statement.
	SetDeleted(ctx context.Context, ids []string, deleted bool, deletedAt *time.Time) error

	// SetFolderPath moves the given rows to folderPath in one statement.
	SetFolderPath(ctx context.Context, ids []string, folderPath string) error

	// SetBookmarked flags the given rows in one statement.
	SetBookmarked(ctx context.Context, ids []string, bookmarked bool) error

	// Delete hard-deletes a row.
	Delete(ctx context.Context, id string) error

	// DeleteByFolderPrefix hard-deletes every row (deleted or not) whose
	// folderPath equals path or lies below it.
	DeleteByFolderPrefix(ctx context.Context, accountID, path string) error

	// RewriteFolderPrefix substitutes oldPath with newPath on every row
	// whose folderPath equals oldPath or begins with oldPath + "/". Rows
	// that merely share a textual substring are untouched.
	RewriteFolderPrefix(ctx context.Context, accountID, oldPath, newPath string) error

	// ExistsName reports whether a non-deleted file with the given name
	// already exists in the folder.
	ExistsName(ctx context.Context, accountID, folderPath, filename string) (bool, error)

	// AccountStats returns the row count and size sum across every file of
	// the account, deleted rows included.
	AccountStats(ctx context.Context, accountID string) (*models.AccountStats, error)
}
