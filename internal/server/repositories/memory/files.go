package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/dmitrijs2005/studynest/internal/server/models"
	"github.com/google/uuid"
)

type FileRepository struct {
	s *Store
}

func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	byName, ok := r.s.files[file.PageName]
	if !ok {
		byName = make(map[string]models.File)
		r.s.files[file.PageName] = byName
	}
	if _, ok := byName[file.Name]; ok {
		return common.ErrorAlreadyExists
	}
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	file.UploadedAt = time.Now()
	byName[file.Name] = *file
	return nil
}

func (r *FileRepository) Get(ctx context.Context, pageName, name string) (*models.File, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.files[pageName][name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &f, nil
}

func (r *FileRepository) ListByPage(ctx context.Context, pageName string) ([]*models.File, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*models.File
	for _, f := range r.s.files[pageName] {
		result = append(result, &f)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UploadedAt.Equal(result[j].UploadedAt) {
			return result[i].UploadedAt.Before(result[j].UploadedAt)
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (r *FileRepository) Delete(ctx context.Context, pageName, name string) (*models.File, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	f, ok := r.s.files[pageName][name]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(r.s.files[pageName], name)
	if len(r.s.files[pageName]) == 0 {
		delete(r.s.files, pageName)
	}
	return &f, nil
}

func (r *FileRepository) DeleteByPage(ctx context.Context, pageName string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := int64(len(r.s.files[pageName]))
	delete(r.s.files, pageName)
	return n, nil
}

func (r *FileRepository) OrphanedPageNames(ctx context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []string
	for _, name := range sortedKeys(r.s.files) {
		if _, ok := r.s.pages[name]; !ok {
			result = append(result, name)
		}
	}
	return result, nil
}

func (r *FileRepository) StorageKeys(ctx context.Context, backend string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []string
	for _, byName := range r.s.files {
		for _, f := range byName {
			if f.Backend == backend && f.StorageKey != "" {
				result = append(result, f.StorageKey)
			}
		}
	}
	sort.Strings(result)
	return result, nil
}
