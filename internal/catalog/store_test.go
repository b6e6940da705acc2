package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	loadErr error
	saveErr error
	doc     *Document
}

func (s *failingStore) Load(context.Context) (*Document, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.doc == nil {
		return &Document{Products: []Product{}}, nil
	}
	return s.doc.Clone(), nil
}

func (s *failingStore) Save(_ context.Context, doc *Document) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.doc = doc.Clone()
	return nil
}

func sampleDoc() *Document {
	return &Document{Products: []Product{
		{
			ID:          "automation-1700000000000",
			Category:    "automation",
			Name:        "PLC Controller",
			Description: "8-channel controller",
			Link:        "https://example.com/plc",
			Images:      []string{"https://blob.example.com/catalog/products/1-0-plc.png"},
			CreatedAt:   "2024-01-01T00:00:00Z",
		},
		{
			ID:             "electronics-1700000000001",
			Category:       "electronics",
			Name:           "NMEA Gateway",
			Description:    "Bus bridge",
			Link:           "https://example.com/gw",
			PartNumber:     "NG-42",
			Condition:      "new",
			Specifications: []SpecEntry{{Name: "voltage", Value: "12V"}},
			CreatedAt:      "2024-01-02T00:00:00Z",
		},
	}}
}

func TestMemoryStoreIsolatesSnapshots(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Save(ctx, sampleDoc()))

	doc, err := s.Load(ctx)
	require.NoError(t, err)
	doc.Products[0].Name = "mutated"
	doc.Products = doc.Products[:1]

	again, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, again.Products, 2)
	assert.Equal(t, "PLC Controller", again.Products[0].Name)
}

// save(load()) must be a no-op: loading, saving unchanged, and loading again
// yields the same products.
func TestRoundTripIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Save(ctx, sampleDoc()))

	first, err := s.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, first))

	second, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFallbackStoreServesMemoryOnLoadFailure(t *testing.T) {
	ctx := context.Background()
	s := NewFallbackStore(&failingStore{loadErr: errors.New("blob unreachable")})

	doc, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Products)
}

func TestFallbackStoreKeepsWritesReadableOnSaveFailure(t *testing.T) {
	ctx := context.Background()
	primary := &failingStore{
		loadErr: errors.New("blob unreachable"),
		saveErr: errors.New("blob unreachable"),
	}
	s := NewFallbackStore(primary)

	require.NoError(t, s.Save(ctx, sampleDoc()))

	doc, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Products, 2)
	assert.Equal(t, "automation-1700000000000", doc.Products[0].ID)
}

func TestFallbackStoreWarmsMemoryFromPrimary(t *testing.T) {
	ctx := context.Background()
	primary := &failingStore{doc: sampleDoc()}
	s := NewFallbackStore(primary)

	// a successful load primes the fallback copy
	_, err := s.Load(ctx)
	require.NoError(t, err)

	// primary goes down; the last seen snapshot is still served
	primary.loadErr = errors.New("blob unreachable")
	doc, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Products, 2)
}
