package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore is an in-memory ImageStore used in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore creates an empty in-memory image store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Upload(_ context.Context, originalName, _ string, r io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read image data: %w", err)
	}

	imageName := NewImageName(originalName)
	s.mu.Lock()
	s.objects[imageName] = data
	s.mu.Unlock()
	return imageName, nil
}

func (s *MemoryStore) URL(imageName string) string {
	return "http://images.local/" + imageName
}

func (s *MemoryStore) Delete(_ context.Context, imageName string) error {
	s.mu.Lock()
	delete(s.objects, imageName)
	s.mu.Unlock()
	return nil
}

// Has reports whether an image is currently stored. Test hook.
func (s *MemoryStore) Has(imageName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[imageName]
	return ok
}
