package pages

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

// PostgresRepository implements pages.Repository over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts page. A taken name yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, page *models.Page) error {
	if page.ID == "" {
		page.ID = uuid.NewString()
	}

	query := `INSERT INTO pages (id, name, semester) VALUES ($1, $2, $3) RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, page.ID, page.Name, page.Semester).Scan(&page.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Page, error) {
	query := `SELECT id, name, semester, created_at FROM pages WHERE name = $1`

	p := &models.Page{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(&p.ID, &p.Name, &p.Semester, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// List returns all pages ordered by semester, then name.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Page, error) {
	query := `SELECT id, name, semester, created_at FROM pages ORDER BY semester, name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select pages: %w", err)
	}
	defer rows.Close()

	var result []*models.Page
	for rows.Next() {
		var p models.Page
		if err := rows.Scan(&p.ID, &p.Name, &p.Semester, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteByName removes the page and returns what was deleted.
func (r *PostgresRepository) DeleteByName(ctx context.Context, name string) (*models.Page, error) {
	query := `DELETE FROM pages WHERE name = $1 RETURNING id, name, semester, created_at`

	p := &models.Page{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(&p.ID, &p.Name, &p.Semester, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to delete page: %w", err)
	}
	return p, nil
}
