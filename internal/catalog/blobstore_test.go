package catalog

import (
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBlobStore(t *testing.T, publicBaseURL string) *BlobStore {
	t.Helper()
	client, err := minio.New("blob.example.com", &minio.Options{Secure: true})
	require.NoError(t, err)
	return NewBlobStore(client, "catalog", publicBaseURL)
}

func TestBlobStoreDerivesBaseURL(t *testing.T) {
	s := newTestBlobStore(t, "")
	assert.Equal(t, "https://blob.example.com/catalog", s.baseURL)

	s = newTestBlobStore(t, "https://cdn.example.com/assets/")
	assert.Equal(t, "https://cdn.example.com/assets", s.baseURL)
}

func TestBlobStoreOwns(t *testing.T) {
	s := newTestBlobStore(t, "")

	assert.True(t, s.Owns("https://blob.example.com/catalog/products/1-0-a.png"))
	assert.False(t, s.Owns("https://cdn.elsewhere.org/b.png"))
	assert.False(t, s.Owns("data:image/png;base64,aGVsbG8="))
}

func TestBlobStoreObjectKey(t *testing.T) {
	s := newTestBlobStore(t, "")

	key, err := s.objectKey("https://blob.example.com/catalog/products/1700000000000-0-a.png")
	require.NoError(t, err)
	assert.Equal(t, "products/1700000000000-0-a.png", key)

	_, err = s.objectKey("https://blob.example.com/")
	assert.Error(t, err)
}
