package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"televault/internal/domain"
	"televault/internal/domain/models"
	"televault/internal/domain/repositories"
)

const folderColumns = `id, account_id, name, path, parent_path, total_files, total_size, created_at, updated_at`

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *RepositoryConfig) repositories.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a new folder row
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, account_id, name, path, parent_path, total_files, total_size, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.Folders)

	_, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		folder.ID,
		folder.AccountID,
		folder.Name,
		folder.Path,
		folder.ParentPath,
		folder.TotalFiles,
		folder.TotalSize,
		folder.CreatedAt,
		folder.UpdatedAt,
	)
	if err != nil {
		if isPgDuplicateError(err) {
			// Unique (account_id, path) index - sibling name collision
			return fmt.Errorf("folder '%s': %w", folder.Name, domain.ErrConflict)
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// GetByID retrieves a folder by id
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, folderColumns, r.tables.Folders)

	row := GetExecutor(ctx, r.pool).QueryRow(ctx, query, id)
	folder, err := scanFolder(row)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return folder, nil
}

// GetByPath retrieves a folder by its canonical path
func (r *PostgresFolderRepository) GetByPath(ctx context.Context, accountID, path string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE account_id = $1 AND path = $2
	`, folderColumns, r.tables.Folders)

	row := GetExecutor(ctx, r.pool).QueryRow(ctx, query, accountID, path)
	folder, err := scanFolder(row)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder by path: %w", err)
	}

	return folder, nil
}

// ListByParent lists the immediate child folders of parentPath, ordered by name
func (r *PostgresFolderRepository) ListByParent(ctx context.Context, accountID, parentPath string) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE account_id = $1 AND parent_path = $2
		ORDER BY name ASC
	`, folderColumns, r.tables.Folders)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, accountID, parentPath)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, *folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	return folders, nil
}

// Rename updates a folder's name and path, returning the updated row
func (r *PostgresFolderRepository) Rename(ctx context.Context, id, name, newPath string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET name = $1, path = $2, updated_at = $3
		WHERE id = $4
		RETURNING %s
	`, r.tables.Folders, folderColumns)

	row := GetExecutor(ctx, r.pool).QueryRow(ctx, query, name, newPath, time.Now(), id)
	folder, err := scanFolder(row)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		if isPgDuplicateError(err) {
			return nil, fmt.Errorf("folder '%s': %w", name, domain.ErrConflict)
		}
		return nil, fmt.Errorf("rename folder: %w", err)
	}

	return folder, nil
}

// Delete removes a folder row
func (r *PostgresFolderRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Folders)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DeleteByPrefix removes every folder strictly below path. The comparison is
// a left() slice rather than LIKE so that % and _ in folder names stay
// literal.
func (r *PostgresFolderRepository) DeleteByPrefix(ctx context.Context, accountID, path string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE account_id = $1 AND left(path, length($2) + 1) = $2 || '/'
	`, r.tables.Folders)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, accountID, path); err != nil {
		return fmt.Errorf("delete folders by prefix: %w", err)
	}
	return nil
}

// RewritePathPrefix substitutes oldPath with newPath on every folder
// strictly below oldPath. Direct children have parent_path = oldPath, deeper
// descendants carry it as a prefix; both forms are rewritten in one pass.
func (r *PostgresFolderRepository) RewritePathPrefix(ctx context.Context, accountID, oldPath, newPath string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET path = $1 || substr(path, length($2) + 1),
			parent_path = CASE
				WHEN parent_path = $2 OR left(parent_path, length($2) + 1) = $2 || '/'
				THEN $1 || substr(parent_path, length($2) + 1)
				ELSE parent_path
			END,
			updated_at = $3
		WHERE account_id = $4 AND left(path, length($2) + 1) = $2 || '/'
	`, r.tables.Folders)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, newPath, oldPath, time.Now(), accountID); err != nil {
		return fmt.Errorf("rewrite folder path prefix: %w", err)
	}
	return nil
}

// AdjustStats applies an aggregate delta to the folder at path
func (r *PostgresFolderRepository) AdjustStats(ctx context.Context, accountID, path string, deltaFiles int, deltaSize int64) error {
	if deltaFiles == 0 && deltaSize == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET total_files = total_files + $1, total_size = total_size + $2, updated_at = $3
		WHERE account_id = $4 AND path = $5
	`, r.tables.Folders)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, deltaFiles, deltaSize, time.Now(), accountID, path)
	if err != nil {
		return fmt.Errorf("adjust folder stats: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", path, domain.ErrNotFound)
	}

	return nil
}

func scanFolder(row pgx.Row) (*models.Folder, error) {
	var folder models.Folder
	err := row.Scan(
		&folder.ID,
		&folder.AccountID,
		&folder.Name,
		&folder.Path,
		&folder.ParentPath,
		&folder.TotalFiles,
		&folder.TotalSize,
		&folder.CreatedAt,
		&folder.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &folder, nil
}
