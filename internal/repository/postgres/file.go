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

const fileColumns = `id, account_id, folder_path, filename, filetype, size,
		chat_id, message_id, is_bookmarked, is_deleted, deleted_at, created_at, updated_at`

// PostgresFileRepository implements the FileRepository interface
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFileRepository creates a new file repository
func NewFileRepository(config *RepositoryConfig) repositories.FileRepository {
	return &PostgresFileRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a new file row
func (r *PostgresFileRepository) Create(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, account_id, folder_path, filename, filetype, size,
			chat_id, message_id, is_bookmarked, is_deleted, deleted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, r.tables.Files)

	_, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		file.ID,
		file.AccountID,
		file.FolderPath,
		file.Filename,
		file.Filetype,
		file.Size,
		file.ChatID,
		file.MessageID,
		file.IsBookmarked,
		file.IsDeleted,
		file.DeletedAt,
		file.CreatedAt,
		file.UpdatedAt,
	)
	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("file %s: %w", file.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create file: %w", err)
	}

	return nil
}

// GetByID retrieves a file by id, deleted rows included
func (r *PostgresFileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, fileColumns, r.tables.Files)

	row := GetExecutor(ctx, r.pool).QueryRow(ctx, query, id)
	file, err := scanFile(row)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file: %w", err)
	}

	return file, nil
}

// GetByIDs retrieves every existing row for the given ids
func (r *PostgresFileRepository) GetByIDs(ctx context.Context, ids []string) ([]models.File, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ANY($1)`, fileColumns, r.tables.Files)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get files by ids: %w", err)
	}
	defer rows.Close()

	return collectFiles(rows)
}

// ListByFolder lists the non-deleted files of one folder, ordered by filename
func (r *PostgresFileRepository) ListByFolder(ctx context.Context, accountID, folderPath string) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE account_id = $1 AND folder_path = $2 AND is_deleted = FALSE
		ORDER BY filename ASC
	`, fileColumns, r.tables.Files)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, accountID, folderPath)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	return collectFiles(rows)
}

// ListTrash lists an account's soft-deleted files
func (r *PostgresFileRepository) ListTrash(ctx context.Context, accountID string) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE account_id = $1 AND is_deleted = TRUE
		ORDER BY deleted_at DESC
	`, fileColumns, r.tables.Files)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list trash files: %w", err)
	}
	defer rows.Close()

	return collectFiles(rows)
}

// ListBookmarked lists an account's bookmarked, non-deleted files
func (r *PostgresFileRepository) ListBookmarked(ctx context.Context, accountID string) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE account_id = $1 AND is_bookmarked = TRUE AND is_deleted = FALSE
		ORDER BY filename ASC
	`, fileColumns, r.tables.Files)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarked files: %w", err)
	}
	defer rows.Close()

	return collectFiles(rows)
}

// Update rewrites a file row in place
func (r *PostgresFileRepository) Update(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_path = $1, filename = $2, is_bookmarked = $3,
			is_deleted = $4, deleted_at = $5, updated_at = $6
		WHERE id = $7
	`, r.tables.Files)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		file.FolderPath,
		file.Filename,
		file.IsBookmarked,
		file.IsDeleted,
		file.DeletedAt,
		file.UpdatedAt,
		file.ID,
	)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", file.ID, domain.ErrNotFound)
	}

	return nil
}

// SetDeleted marks the given rows deleted or restored in one statement
func (r *PostgresFileRepository) SetDeleted(ctx context.Context, ids []string, deleted bool, deletedAt *time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s SET is_deleted = $1, deleted_at = $2, updated_at = $3
		WHERE id = ANY($4)
	`, r.tables.Files)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, deleted, deletedAt, time.Now(), ids); err != nil {
		return fmt.Errorf("set files deleted: %w", err)
	}
	return nil
}

// SetFolderPath moves the given rows to folderPath in one statement
func (r *PostgresFileRepository) SetFolderPath(ctx context.Context, ids []string, folderPath string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s SET folder_path = $1, updated_at = $2 WHERE id = ANY($3)
	`, r.tables.Files)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, folderPath, time.Now(), ids); err != nil {
		return fmt.Errorf("set files folder path: %w", err)
	}
	return nil
}

// SetBookmarked flags the given rows in one statement
func (r *PostgresFileRepository) SetBookmarked(ctx context.Context, ids []string, bookmarked bool) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s SET is_bookmarked = $1, updated_at = $2 WHERE id = ANY($3)
	`, r.tables.Files)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, bookmarked, time.Now(), ids); err != nil {
		return fmt.Errorf("set files bookmarked: %w", err)
	}
	return nil
}

// Delete hard-deletes a row
func (r *PostgresFileRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Files)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// DeleteByFolderPrefix hard-deletes every row at or below path
func (r *PostgresFileRepository) DeleteByFolderPrefix(ctx context.Context, accountID, path string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE account_id = $1 AND (folder_path = $2 OR left(folder_path, length($2) + 1) = $2 || '/')
	`, r.tables.Files)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, accountID, path); err != nil {
		return fmt.Errorf("delete files by folder prefix: %w", err)
	}
	return nil
}

// RewriteFolderPrefix substitutes oldPath with newPath on every row whose
// folderPath equals oldPath or begins with oldPath + "/". The boundary
// condition keeps siblings that merely share a textual prefix untouched.
func (r *PostgresFileRepository) RewriteFolderPrefix(ctx context.Context, accountID, oldPath, newPath string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_path = $1 || substr(folder_path, length($2) + 1), updated_at = $3
		WHERE account_id = $4 AND (folder_path = $2 OR left(folder_path, length($2) + 1) = $2 || '/')
	`, r.tables.Files)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, newPath, oldPath, time.Now(), accountID); err != nil {
		return fmt.Errorf("rewrite file folder prefix: %w", err)
	}
	return nil
}

// ExistsName reports whether a non-deleted file with the given name already
// exists in the folder
func (r *PostgresFileRepository) ExistsName(ctx context.Context, accountID, folderPath, filename string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s
			WHERE account_id = $1 AND folder_path = $2 AND filename = $3 AND is_deleted = FALSE
		)
	`, r.tables.Files)

	var exists bool
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, accountID, folderPath, filename).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check filename exists: %w", err)
	}

	return exists, nil
}

// AccountStats returns the row count and size sum across every file of the
// account, deleted rows included
func (r *PostgresFileRepository) AccountStats(ctx context.Context, accountID string) (*models.AccountStats, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*), COALESCE(SUM(size), 0) FROM %s WHERE account_id = $1
	`, r.tables.Files)

	var stats models.AccountStats
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, accountID).Scan(&stats.TotalFiles, &stats.TotalSize)
	if err != nil {
		return nil, fmt.Errorf("account stats: %w", err)
	}

	return &stats, nil
}

func scanFile(row pgx.Row) (*models.File, error) {
	var file models.File
	err := row.Scan(
		&file.ID,
		&file.AccountID,
		&file.FolderPath,
		&file.Filename,
		&file.Filetype,
		&file.Size,
		&file.ChatID,
		&file.MessageID,
		&file.IsBookmarked,
		&file.IsDeleted,
		&file.DeletedAt,
		&file.CreatedAt,
		&file.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func collectFiles(rows pgx.Rows) ([]models.File, error) {
	var files []models.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return files, nil
}
