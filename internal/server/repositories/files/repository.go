package files

import (
	"context"

	"github.com/dmitrijs2005/studynest/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) error
	Get(ctx context.Context, pageName, name string) (*models.File, error)
	ListByPage(ctx context.Context, pageName string) ([]*models.File, error)
	Delete(ctx context.Context, pageName, name string) (*models.File, error)
	DeleteByPage(ctx context.Context, pageName string) (int64, error)
	OrphanedPageNames(ctx context.Context) ([]string, error)
	StorageKeys(ctx context.Context, backend string) ([]string, error)
}
