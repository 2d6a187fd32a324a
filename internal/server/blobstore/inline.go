package blobstore

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/dmitrijs2005/studynest/internal/server/config"
)

// InlineStore keeps the base64 payload inside the Handle, so the bytes are
// persisted with the file record and removed together with it.
type InlineStore struct{}

func NewInlineStore() *InlineStore {
	return &InlineStore{}
}

func (s *InlineStore) Kind() string {
	return config.BlobBackendInline
}

func (s *InlineStore) Put(ctx context.Context, pageName, fileName string, data []byte, contentType string) (*Handle, error) {
	return &Handle{
		Backend:     config.BlobBackendInline,
		Data:        base64.StdEncoding.EncodeToString(data),
		ContentType: contentType,
	}, nil
}

func (s *InlineStore) Get(ctx context.Context, h Handle) ([]byte, string, error) {
	if h.Backend != config.BlobBackendInline {
		return nil, "", fmt.Errorf("%w: %s handle in inline store", common.ErrorNotFound, h.Backend)
	}
	data, err := base64.StdEncoding.DecodeString(h.Data)
	if err != nil {
		return nil, "", fmt.Errorf("decode inline blob: %w", err)
	}
	return data, contentTypeFor(h.ContentType, ""), nil
}

// Delete is a no-op: the payload goes away with the record.
func (s *InlineStore) Delete(ctx context.Context, h Handle) error {
	return nil
}
