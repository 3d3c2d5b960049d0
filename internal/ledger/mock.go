package ledger

import (
	"context"
	"sync"

	"github.com/hashback/hashback/internal/domain"
)

// MockStore is an in-memory implementation of domain.FingerprintStore for
// testing.
type MockStore struct {
	GetFunc  func(ctx context.Context, name string) (string, bool, error)
	PutFunc  func(ctx context.Context, name, hash string) error
	PingFunc func(ctx context.Context) error

	mu sync.Mutex
	// Hashes is the in-memory ledger state.
	Hashes map[string]string
	// Puts records the names written, in order.
	Puts []string
}

// NewMockStore creates a MockStore with an empty ledger.
func NewMockStore() *MockStore {
	return &MockStore{Hashes: make(map[string]string)}
}

// Get calls the mock GetFunc, or reads the in-memory state.
func (m *MockStore) Get(ctx context.Context, name string) (string, bool, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	hash, ok := m.Hashes[name]
	return hash, ok, nil
}

// Put calls the mock PutFunc, or writes the in-memory state.
func (m *MockStore) Put(ctx context.Context, name, hash string) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, name, hash)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Hashes[name] = hash
	m.Puts = append(m.Puts, name)
	return nil
}

// Ping calls the mock PingFunc.
func (m *MockStore) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// Ensure MockStore implements domain.FingerprintStore.
var _ domain.FingerprintStore = (*MockStore)(nil)
