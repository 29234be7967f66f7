package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gostore/internal/models"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired() bool {
	return time.Now().After(e.expiresAt)
}

// MemoryStore is an in-memory Store used in tests. Snapshots round-trip
// through JSON like the Redis store so the same serialization rules apply;
// expiry is checked lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	byToken map[string]memoryEntry
	byUser  map[string]memoryEntry
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byToken: make(map[string]memoryEntry),
		byUser:  make(map[string]memoryEntry),
	}
}

func (m *MemoryStore) Put(_ context.Context, token string, user *models.User, ttl time.Duration) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user snapshot: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	expiresAt := time.Now().Add(ttl)
	m.byToken[token] = memoryEntry{value: data, expiresAt: expiresAt}
	m.byUser[user.ID] = memoryEntry{value: []byte(token), expiresAt: expiresAt}
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, token string) (*models.User, error) {
	m.mu.RLock()
	entry, ok := m.byToken[token]
	m.mu.RUnlock()
	if !ok || entry.expired() {
		return nil, nil
	}

	var user models.User
	if err := json.Unmarshal(entry.value, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user snapshot: %w", err)
	}
	return &user, nil
}

func (m *MemoryStore) GetToken(_ context.Context, userID string) (string, error) {
	m.mu.RLock()
	entry, ok := m.byUser[userID]
	m.mu.RUnlock()
	if !ok || entry.expired() {
		return "", nil
	}
	return string(entry.value), nil
}

func (m *MemoryStore) Delete(_ context.Context, token, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byToken, token)
	delete(m.byUser, userID)
	return nil
}

func (m *MemoryStore) Exists(_ context.Context, token, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if entry, ok := m.byToken[token]; ok && !entry.expired() {
		return true, nil
	}
	if entry, ok := m.byUser[userID]; ok && !entry.expired() {
		return true, nil
	}
	return false, nil
}
