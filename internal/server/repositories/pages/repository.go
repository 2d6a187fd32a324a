package pages

import (
	"context"

	"github.com/dmitrijs2005/studynest/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, page *models.Page) error
	GetByName(ctx context.Context, name string) (*models.Page, error)
	List(ctx context.Context) ([]*models.Page, error)
	DeleteByName(ctx context.Context, name string) (*models.Page, error)
}
