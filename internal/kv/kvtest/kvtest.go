// Package kvtest provides test doubles for the kv package: an in-memory
// Store for session and service tests, and a miniature TCP server speaking
// the same wire-protocol subset the real client uses, for client and
// end-to-end tests.
package kvtest

import (
	"path"
	"sort"
	"sync"

	"github.com/greenroom-sh/greenroom/internal/kv"
)

// globMatch reports whether key matches the store-style glob pattern.
func globMatch(pattern, key string) bool {
	ok, err := path.Match(pattern, key)
	return err == nil && ok
}

// ---------------------------------------------------------------------------
// In-memory Store
// ---------------------------------------------------------------------------

// InMemory is an in-process kv.Store. Safe for concurrent use.
type InMemory struct {
	mu    sync.Mutex
	data  map[string]string
	lists map[string][]string
}

// NewInMemory returns an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		data:  make(map[string]string),
		lists: make(map[string][]string),
	}
}

// Get implements kv.Store.
func (m *InMemory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set implements kv.Store.
func (m *InMemory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lists, key)
	m.data[key] = value
	return nil
}

// Delete implements kv.Store.
func (m *InMemory) Delete(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, inData := m.data[key]
	_, inLists := m.lists[key]
	delete(m.data, key)
	delete(m.lists, key)
	return inData || inLists, nil
}

// PutList stores a list-typed (Composite) value.
func (m *InMemory) PutList(key string, members ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.lists[key] = append([]string(nil), members...)
}

// Kind implements kv.Store.
func (m *InMemory) Kind(key string) (kv.ValueKind, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lists[key]; ok {
		return kv.Composite, nil
	}
	v, ok := m.data[key]
	if !ok {
		return kv.Absent, nil
	}
	return kv.ClassifyValue(v), nil
}

// Keys returns all keys, sorted, for test assertions.
func (m *InMemory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotKeys("*")
}

func (m *InMemory) snapshotKeys(pattern string) []string {
	var keys []string
	for k := range m.data {
		if globMatch(pattern, k) {
			keys = append(keys, k)
		}
	}
	for k := range m.lists {
		if globMatch(pattern, k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Scan implements kv.Store over a point-in-time snapshot of the keyspace.
func (m *InMemory) Scan(pattern string) kv.Scanner {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &sliceScanner{keys: m.snapshotKeys(pattern)}
}

type sliceScanner struct {
	keys []string
	cur  string
}

func (s *sliceScanner) Next() bool {
	if len(s.keys) == 0 {
		return false
	}
	s.cur = s.keys[0]
	s.keys = s.keys[1:]
	return true
}

func (s *sliceScanner) Key() string { return s.cur }
func (s *sliceScanner) Err() error  { return nil }
