package repomanager

import (
	"context"

	"github.com/dmitrijs2005/studynest/internal/server/repositories/careerpaths"
	"github.com/dmitrijs2005/studynest/internal/server/repositories/files"
	"github.com/dmitrijs2005/studynest/internal/server/repositories/pages"
	"github.com/dmitrijs2005/studynest/internal/server/repositories/users"
)

// MemoryDSN selects the in-memory metadata store.
const MemoryDSN = "memory"

// RepositoryManager owns the metadata store handle. It is created once at
// startup, injected into services and closed on shutdown.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Pages() pages.Repository
	Files() files.Repository
	CareerPaths() careerpaths.Repository
	Close() error
}

// New picks the metadata store implementation for dsn.
func New(dsn string) (RepositoryManager, error) {
	if dsn == MemoryDSN {
		return NewInMemoryRepositoryManager(), nil
	}
	m, err := NewPostgresRepositoryManager(dsn)
	if err != nil {
		return nil, err
	}
	return m, nil
}
