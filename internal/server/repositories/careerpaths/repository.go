package careerpaths

import (
	"context"

	"github.com/dmitrijs2005/studynest/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, cp *models.CareerPath) error
	GetByLabel(ctx context.Context, label string) (*models.CareerPath, error)
	List(ctx context.Context) ([]*models.CareerPath, error)
}
