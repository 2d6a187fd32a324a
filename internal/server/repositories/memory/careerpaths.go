package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/dmitrijs2005/studynest/internal/server/models"
	"github.com/google/uuid"
)

type CareerPathRepository struct {
	s *Store
}

func (r *CareerPathRepository) Create(ctx context.Context, cp *models.CareerPath) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.careerPaths[cp.CareerPath]; ok {
		return common.ErrorAlreadyExists
	}
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	cp.CreatedAt = time.Now()
	r.s.careerPaths[cp.CareerPath] = *cp
	return nil
}

func (r *CareerPathRepository) GetByLabel(ctx context.Context, label string) (*models.CareerPath, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	cp, ok := r.s.careerPaths[label]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &cp, nil
}

func (r *CareerPathRepository) List(ctx context.Context) ([]*models.CareerPath, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*models.CareerPath
	for _, label := range sortedKeys(r.s.careerPaths) {
		cp := r.s.careerPaths[label]
		result = append(result, &cp)
	}
	return result, nil
}
