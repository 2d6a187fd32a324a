package repomanager

import (
	"context"

	"github.com/dmitrijs2005/studynest/internal/server/repositories/careerpaths"
	"github.com/dmitrijs2005/studynest/internal/server/repositories/files"
	"github.com/dmitrijs2005/studynest/internal/server/repositories/memory"
	"github.com/dmitrijs2005/studynest/internal/server/repositories/pages"
	"github.com/dmitrijs2005/studynest/internal/server/repositories/users"
)

type InMemoryRepositoryManager struct {
	store *memory.Store
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: memory.NewStore()}
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users() users.Repository {
	return m.store.Users()
}

func (m *InMemoryRepositoryManager) Pages() pages.Repository {
	return m.store.Pages()
}

func (m *InMemoryRepositoryManager) Files() files.Repository {
	return m.store.Files()
}

func (m *InMemoryRepositoryManager) CareerPaths() careerpaths.Repository {
	return m.store.CareerPaths()
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}
