// Package mock provides in-memory implementations of the store contracts
// for testing.
package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/faceguard/faceguard/internal/snapshot"
)

// KV is an in-memory store.KV with per-method error injection.
type KV struct {
	mu     sync.RWMutex
	values map[string][]byte

	// Error injection
	GetError    error
	SetError    error
	DeleteError error
	KeysError   error
}

// NewKV creates an empty in-memory KV store.
func NewKV() *KV {
	return &KV{values: make(map[string][]byte)}
}

func (m *KV) Get(key string) ([]byte, bool, error) {
	if m.GetError != nil {
		return nil, false, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *KV) Set(key string, value []byte) error {
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.values[key] = cp
	return nil
}

func (m *KV) Delete(key string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *KV) Keys(prefix string) ([]string, error) {
	if m.KeysError != nil {
		return nil, m.KeysError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Len returns the number of stored keys.
func (m *KV) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// ServerStore is an in-memory store.ServerStore applying the real merge
// rules, with error injection for transport-failure tests.
type ServerStore struct {
	mu   sync.Mutex
	snap snapshot.Snapshot
	days map[string]map[string]struct{} // day keys seen, for assertions

	MergeCalls int

	SnapshotError error
	MergeError    error
	DeleteError   error
	WipeError     error
}

// NewServerStore creates an empty in-memory server store.
func NewServerStore() *ServerStore {
	return &ServerStore{snap: snapshot.Empty(), days: make(map[string]map[string]struct{})}
}

// Seed replaces the stored snapshot wholesale.
func (m *ServerStore) Seed(snap snapshot.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
}

// State returns a copy of the stored snapshot.
func (m *ServerStore) State() snapshot.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return snapshot.Empty().Merge(m.snap)
}

func (m *ServerStore) Snapshot(_ context.Context, _ string) (snapshot.Snapshot, error) {
	if m.SnapshotError != nil {
		return snapshot.Snapshot{}, m.SnapshotError
	}
	return m.State(), nil
}

func (m *ServerStore) Merge(_ context.Context, day string, pushed snapshot.Snapshot) error {
	if m.MergeError != nil {
		return m.MergeError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MergeCalls++
	m.snap = m.snap.Merge(pushed)
	if m.days[day] == nil {
		m.days[day] = make(map[string]struct{})
	}
	return nil
}

func (m *ServerStore) DeleteIdentity(_ context.Context, id string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.snap.Identities[:0]
	for _, u := range m.snap.Identities {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	m.snap.Identities = kept
	return nil
}

func (m *ServerStore) Wipe(_ context.Context) error {
	if m.WipeError != nil {
		return m.WipeError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snapshot.Empty()
	return nil
}
