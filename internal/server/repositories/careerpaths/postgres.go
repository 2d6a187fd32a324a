package careerpaths

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

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, cp *models.CareerPath) error {
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}

	query := `
		INSERT INTO career_paths (id, career_path, pdf_data, content_type, uploaded_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, cp.ID, cp.CareerPath, cp.PdfData, cp.ContentType, cp.UploadedBy).
		Scan(&cp.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByLabel(ctx context.Context, label string) (*models.CareerPath, error) {
	query := `
		SELECT id, career_path, pdf_data, content_type, uploaded_by, created_at
		FROM career_paths WHERE career_path = $1
	`
	cp := &models.CareerPath{}
	err := r.db.QueryRowContext(ctx, query, label).
		Scan(&cp.ID, &cp.CareerPath, &cp.PdfData, &cp.ContentType, &cp.UploadedBy, &cp.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return cp, nil
}

// List returns every career path ordered by label.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.CareerPath, error) {
	query := `
		SELECT id, career_path, pdf_data, content_type, uploaded_by, created_at
		FROM career_paths ORDER BY career_path
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select career paths: %w", err)
	}
	defer rows.Close()

	var result []*models.CareerPath
	for rows.Next() {
		cp := &models.CareerPath{}
		if err := rows.Scan(&cp.ID, &cp.CareerPath, &cp.PdfData, &cp.ContentType, &cp.UploadedBy, &cp.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
