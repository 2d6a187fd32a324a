package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/dmitrijs2005/studynest/internal/keylock"
	"github.com/dmitrijs2005/studynest/internal/logging"
	"github.com/dmitrijs2005/studynest/internal/server/blobstore"
	"github.com/dmitrijs2005/studynest/internal/server/config"
	"github.com/dmitrijs2005/studynest/internal/server/models"
	"github.com/dmitrijs2005/studynest/internal/server/repositories/files"
	"github.com/dmitrijs2005/studynest/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "k"
	cfg.AccessTokenValidityDuration = time.Hour
	return cfg
}

var (
	teacher = &models.User{UserName: "t1", Role: common.RoleTeacher}
	student = &models.User{UserName: "s1", Role: common.RoleStudent}
)

// faultyFiles injects failures into an otherwise working files repository.
type faultyFiles struct {
	files.Repository
	createErr       error
	deleteByPageErr error
	onCreate        func()
}

func (f *faultyFiles) Create(ctx context.Context, file *models.File) error {
	if f.onCreate != nil {
		f.onCreate()
	}
	if f.createErr != nil {
		return f.createErr
	}
	return f.Repository.Create(ctx, file)
}

func (f *faultyFiles) DeleteByPage(ctx context.Context, pageName string) (int64, error) {
	if f.deleteByPageErr != nil {
		return 0, f.deleteByPageErr
	}
	return f.Repository.DeleteByPage(ctx, pageName)
}

type faultyManager struct {
	repomanager.RepositoryManager
	files *faultyFiles
}

func (m *faultyManager) Files() files.Repository {
	return m.files
}

func newFaultyManager() *faultyManager {
	rm := repomanager.NewInMemoryRepositoryManager()
	return &faultyManager{RepositoryManager: rm, files: &faultyFiles{Repository: rm.Files()}}
}

func newDiskAttachments(t *testing.T, rm repomanager.RepositoryManager) (*AttachmentService, *blobstore.DiskStore) {
	t.Helper()
	store, err := blobstore.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	return NewAttachmentService(rm, store, testConfig(), keylock.New(), logging.Nop()), store
}

func blobKeys(t *testing.T, l blobstore.Lister) []string {
	t.Helper()
	objs, err := l.List(context.Background())
	require.NoError(t, err)
	var keys []string
	for _, o := range objs {
		keys = append(keys, o.Key)
	}
	return keys
}

// memS3 is a presigning store used to exercise the URL branch of listings.
type memS3 struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleteErr error
	n         int
}

func newMemS3() *memS3 {
	return &memS3{objects: map[string][]byte{}}
}

func (m *memS3) Kind() string { return config.BlobBackendS3 }

func (m *memS3) Put(ctx context.Context, pageName, fileName string, data []byte, contentType string) (*blobstore.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	key := "pages/" + pageName + "/" + strconv.Itoa(m.n) + "_" + fileName
	m.objects[key] = data
	return &blobstore.Handle{Backend: config.BlobBackendS3, Key: key, ContentType: contentType}, nil
}

func (m *memS3) Get(ctx context.Context, h blobstore.Handle) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.objects[h.Key]
	if !ok {
		return nil, "", common.ErrorNotFound
	}
	return d, h.ContentType, nil
}

func (m *memS3) Delete(ctx context.Context, h blobstore.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.objects[h.Key]; !ok {
		return common.ErrorNotFound
	}
	delete(m.objects, h.Key)
	return nil
}

func (m *memS3) PresignGet(ctx context.Context, h blobstore.Handle, ttl time.Duration) (string, error) {
	if h.Key == "" {
		return "", errors.New("empty key")
	}
	return "https://s3.test/" + h.Key, nil
}
