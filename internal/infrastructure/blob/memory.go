package blob

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore holds envelopes in a map. Test backend.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Store(_ context.Context, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := uuid.NewString()
	clone := make([]byte, len(data))
	copy(clone, data)
	s.blobs[ref] = clone
	return ref, nil
}

func (s *MemoryStore) Fetch(_ context.Context, ref string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.blobs[ref]
	if !ok {
		return nil, ErrNotFound
	}
	clone := make([]byte, len(data))
	copy(clone, data)
	return clone, nil
}

func (s *MemoryStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, ref)
	return nil
}

// Len reports the number of stored blobs; used by tests to verify nothing
// outlives its record.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
