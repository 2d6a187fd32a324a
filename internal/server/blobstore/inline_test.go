package blobstore

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/dmitrijs2005/studynest/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewInlineStore()
	assert.Equal(t, config.BlobBackendInline, s.Kind())

	h, err := s.Put(ctx, "Math101", "notes.txt", []byte("hello"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", h.Data)
	assert.Empty(t, h.Key)

	data, ct, err := s.Get(ctx, *h)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
	assert.Equal(t, "text/plain", ct)

	assert.NoError(t, s.Delete(ctx, *h))
}

func TestInlineStore_Get_Errors(t *testing.T) {
	ctx := context.Background()
	s := NewInlineStore()

	_, _, err := s.Get(ctx, Handle{Backend: config.BlobBackendDisk, Key: "k"})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, _, err = s.Get(ctx, Handle{Backend: config.BlobBackendInline, Data: "!!"})
	assert.Error(t, err)
}

func TestInlineStore_DefaultContentType(t *testing.T) {
	s := NewInlineStore()
	_, ct, err := s.Get(context.Background(), Handle{Backend: config.BlobBackendInline, Data: ""})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", ct)
}
