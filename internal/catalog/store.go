package catalog

import (
	"context"
	"sync"

	"marine-catalog/internal/logger"
)

// DocumentStore persists the whole catalog document. Save always replaces
// the full document; there is no partial update at the storage layer.
type DocumentStore interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
}

// MemoryStore keeps the document in process memory. Non-durable: contents
// are lost on restart. It doubles as the fallback target when the blob
// backend is unreachable.
type MemoryStore struct {
	mu  sync.Mutex
	doc *Document
}

// NewMemoryStore creates an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{doc: &Document{Products: []Product{}}}
}

func (s *MemoryStore) Load(_ context.Context) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	return nil
}

// FallbackStore wraps a primary (durable) store with a memory fallback.
// Storage failures never propagate to callers: a failed load serves the
// in-memory copy and a failed save lands there, keeping reads consistent
// within this process while cross-process durability is silently lost.
type FallbackStore struct {
	primary DocumentStore
	mem     *MemoryStore
}

// NewFallbackStore wraps primary with an empty memory fallback.
func NewFallbackStore(primary DocumentStore) *FallbackStore {
	return &FallbackStore{primary: primary, mem: NewMemoryStore()}
}

func (s *FallbackStore) Load(ctx context.Context) (*Document, error) {
	doc, err := s.primary.Load(ctx)
	if err != nil {
		logger.Warnf("document load failed, serving memory fallback: %v", err)
		return s.mem.Load(ctx)
	}
	// Keep the fallback warm so a later failed save starts from the
	// freshest snapshot this process has seen.
	_ = s.mem.Save(ctx, doc)
	return doc, nil
}

func (s *FallbackStore) Save(ctx context.Context, doc *Document) error {
	if err := s.primary.Save(ctx, doc); err != nil {
		logger.Warnf("document save failed, writing memory fallback: %v", err)
	}
	return s.mem.Save(ctx, doc)
}
