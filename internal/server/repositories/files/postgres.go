package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/dmitrijs2005/studynest/internal/dbx"
	"github.com/dmitrijs2005/studynest/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements file metadata storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, page_name, name, backend, storage_key, file_data, content_type, size, uploaded_at`

func scanFile(s interface{ Scan(...any) error }) (*models.File, error) {
	f := &models.File{}
	err := s.Scan(&f.ID, &f.PageName, &f.Name, &f.Backend, &f.StorageKey, &f.FileData, &f.ContentType, &f.Size, &f.UploadedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Create inserts a file record. The (page_name, name) unique constraint
// turns a concurrent duplicate into common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}

	query := `
		INSERT INTO files (id, page_name, name, backend, storage_key, file_data, content_type, size)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING uploaded_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.ID, file.PageName, file.Name, file.Backend, file.StorageKey, file.FileData, file.ContentType, file.Size).
		Scan(&file.UploadedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the file named name on page pageName.
func (r *PostgresRepository) Get(ctx context.Context, pageName, name string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE page_name = $1 AND name = $2`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, pageName, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return f, nil
}

// ListByPage returns every file of pageName in upload order.
func (r *PostgresRepository) ListByPage(ctx context.Context, pageName string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE page_name = $1 ORDER BY uploaded_at, name`

	rows, err := r.db.QueryContext(ctx, query, pageName)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes one file record and returns it, so the caller can reap its blob.
func (r *PostgresRepository) Delete(ctx context.Context, pageName, name string) (*models.File, error) {
	query := `DELETE FROM files WHERE page_name = $1 AND name = $2 RETURNING ` + fileColumns

	f, err := scanFile(r.db.QueryRowContext(ctx, query, pageName, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to delete file: %w", err)
	}
	return f, nil
}

// DeleteByPage removes all file records of pageName in one statement and
// reports how many were removed. Zero is not an error.
func (r *PostgresRepository) DeleteByPage(ctx context.Context, pageName string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE page_name = $1`, pageName)
	if err != nil {
		return 0, fmt.Errorf("failed to delete files: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// OrphanedPageNames lists page names that still have file records but no page.
func (r *PostgresRepository) OrphanedPageNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT f.page_name FROM files f
		WHERE NOT EXISTS (SELECT 1 FROM pages p WHERE p.name = f.page_name)
		ORDER BY f.page_name
	`
	return r.selectStrings(ctx, query)
}

// StorageKeys lists the blob keys referenced by records of the given backend.
func (r *PostgresRepository) StorageKeys(ctx context.Context, backend string) ([]string, error) {
	query := `SELECT storage_key FROM files WHERE backend = $1 AND storage_key <> ''`
	return r.selectStrings(ctx, query, backend)
}

func (r *PostgresRepository) selectStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
