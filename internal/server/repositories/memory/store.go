// Package memory is an in-process metadata store. It enforces the same
// uniqueness rules as the Postgres schema and is selected with the "memory" DSN.
package memory

import (
	"sort"
	"sync"

	"github.com/dmitrijs2005/studynest/internal/server/models"
)

// Store holds all tables behind one mutex so cross-table queries, such as
// orphan detection, see a consistent snapshot.
type Store struct {
	mu          sync.RWMutex
	users       map[string]models.User
	pages       map[string]models.Page
	files       map[string]map[string]models.File
	careerPaths map[string]models.CareerPath
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]models.User),
		pages:       make(map[string]models.Page),
		files:       make(map[string]map[string]models.File),
		careerPaths: make(map[string]models.CareerPath),
	}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

func (s *Store) Pages() *PageRepository {
	return &PageRepository{s: s}
}

func (s *Store) Files() *FileRepository {
	return &FileRepository{s: s}
}

func (s *Store) CareerPaths() *CareerPathRepository {
	return &CareerPathRepository{s: s}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
