package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/dmitrijs2005/studynest/internal/filex"
	"github.com/dmitrijs2005/studynest/internal/server/config"
	"github.com/google/uuid"
)

// DiskStore writes blobs below a root directory, one subdirectory per page.
// Keys are slash-separated and relative to the root.
type DiskStore struct {
	root string
}

// NewDiskStore creates root if needed and returns a store rooted there.
func NewDiskStore(root string) (*DiskStore, error) {
	abs, err := filex.EnsureDir(root)
	if err != nil {
		return nil, fmt.Errorf("blob dir: %w", err)
	}
	return &DiskStore{root: abs}, nil
}

func (s *DiskStore) Kind() string {
	return config.BlobBackendDisk
}

func (s *DiskStore) Root() string {
	return s.root
}

// Put writes data under <page>/<uuid>_<file>. The uuid prefix keeps
// concurrent uploads of the same name from overwriting each other's bytes.
func (s *DiskStore) Put(ctx context.Context, pageName, fileName string, data []byte, contentType string) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pageSeg := escapeSegment(pageName)
	if _, err := filex.EnsureDir(filepath.Join(s.root, pageSeg)); err != nil {
		return nil, err
	}

	key := path.Join(pageSeg, uuid.NewString()+"_"+escapeSegment(fileName))
	if err := filex.WriteFileAtomic(filepath.Join(s.root, filepath.FromSlash(key)), data, 0o660); err != nil {
		return nil, fmt.Errorf("write blob: %w", err)
	}

	return &Handle{Backend: config.BlobBackendDisk, Key: key, ContentType: contentType}, nil
}

func (s *DiskStore) Get(ctx context.Context, h Handle) ([]byte, string, error) {
	p, err := s.resolve(h.Key)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", common.ErrorNotFound
		}
		return nil, "", fmt.Errorf("read blob: %w", err)
	}
	return data, contentTypeFor(h.ContentType, h.Key), nil
}

// Delete removes the blob. Page directories are left in place since a
// concurrent Put may be about to write into them.
func (s *DiskStore) Delete(ctx context.Context, h Handle) error {
	p, err := s.resolve(h.Key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

// List walks the root and reports every finished blob.
func (s *DiskStore) List(ctx context.Context) ([]Object, error) {
	var result []Object
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || filex.IsTemp(p) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		result = append(result, Object{Key: filepath.ToSlash(rel), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	return result, nil
}

// resolve maps key to a path and rejects keys that leave the root.
func (s *DiskStore) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty blob key", common.ErrorNotFound)
	}
	p := filepath.Join(s.root, filepath.FromSlash(key))
	if p == s.root || !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: blob key %q outside root", common.ErrorInvalidInput, key)
	}
	return p, nil
}
