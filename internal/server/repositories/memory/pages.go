package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/dmitrijs2005/studynest/internal/server/models"
	"github.com/google/uuid"
)

type PageRepository struct {
	s *Store
}

func (r *PageRepository) Create(ctx context.Context, page *models.Page) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.pages[page.Name]; ok {
		return common.ErrorAlreadyExists
	}
	if page.ID == "" {
		page.ID = uuid.NewString()
	}
	page.CreatedAt = time.Now()
	r.s.pages[page.Name] = *page
	return nil
}

func (r *PageRepository) GetByName(ctx context.Context, name string) (*models.Page, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.pages[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

// List orders like the Postgres repository: by semester, then name.
func (r *PageRepository) List(ctx context.Context) ([]*models.Page, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*models.Page
	for _, name := range sortedKeys(r.s.pages) {
		p := r.s.pages[name]
		result = append(result, &p)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Semester < result[j].Semester })
	return result, nil
}

func (r *PageRepository) DeleteByName(ctx context.Context, name string) (*models.Page, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.pages[name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(r.s.pages, name)
	return &p, nil
}
