// Package blobstore holds file payloads. Backends share one interface and
// are selected by configuration; the metadata store keeps the Handle that
// Put returns and passes it back to Get and Delete.
package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/dmitrijs2005/studynest/internal/server/config"
)

const defaultContentType = "application/octet-stream"

// Handle locates a stored blob. Inline blobs carry their payload in Data;
// disk and s3 blobs are addressed by Key.
type Handle struct {
	Backend     string
	Key         string
	Data        string
	ContentType string
}

type Store interface {
	// Kind names the backend, matching config.BlobBackend* values.
	Kind() string

	Put(ctx context.Context, pageName, fileName string, data []byte, contentType string) (*Handle, error)

	// Get returns the payload and its content type, or common.ErrorNotFound.
	Get(ctx context.Context, h Handle) ([]byte, string, error)

	// Delete removes the blob. An absent blob yields common.ErrorNotFound.
	Delete(ctx context.Context, h Handle) error
}

// Object is a stored blob as seen by a Lister.
type Object struct {
	Key     string
	ModTime time.Time
}

// Lister is implemented by backends whose blobs live outside the metadata
// store and can therefore outlive their records.
type Lister interface {
	List(ctx context.Context) ([]Object, error)
}

// Presigner is implemented by backends that can hand out direct download URLs.
type Presigner interface {
	PresignGet(ctx context.Context, h Handle, ttl time.Duration) (string, error)
}

// New builds the backend selected by cfg.BlobBackend.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendInline:
		return NewInlineStore(), nil
	case config.BlobBackendDisk:
		s, err := NewDiskStore(cfg.BlobDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BlobBackendS3:
		s, err := NewS3Store(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

// maxSegmentLen bounds an escaped name inside a key. With the uuid prefix a
// file segment stays well below the usual 255-byte file name limit.
const maxSegmentLen = 120

// escapeSegment makes name safe to use as a single path segment. Long names
// are cut and suffixed with a hash of the full name and its extension; the
// original name is kept in the file record.
func escapeSegment(name string) string {
	switch name {
	case ".":
		return "%2E"
	case "..":
		return "%2E%2E"
	}
	esc := url.PathEscape(name)
	if len(esc) <= maxSegmentLen {
		return esc
	}

	sum := sha256.Sum256([]byte(name))
	suffix := "~" + hex.EncodeToString(sum[:6])
	if ext := url.PathEscape(path.Ext(name)); len(ext) <= 16 {
		suffix += ext
	}

	cut := maxSegmentLen - len(suffix)
	// do not split a %XX escape
	if i := strings.LastIndexByte(esc[:cut], '%'); i >= 0 && i > cut-3 {
		cut = i
	}
	return esc[:cut] + suffix
}

func contentTypeFor(stored, key string) string {
	if stored != "" {
		return stored
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return defaultContentType
}
