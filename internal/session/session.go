// Package session owns the notion of the "current session": the namespace
// in the shared key-value store into which exactly one context's data is
// loaded for consumption by the downstream agent.
//
// Key scheme: the current session id lives under the well-known,
// session-independent key "<namespace>.current_session"; every variable a
// session owns lives under the prefix "<namespace>.<session-id>.".
package session

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/greenroom-sh/greenroom/internal/kv"
	"github.com/greenroom-sh/greenroom/internal/models"
)

// CurrentSessionKey is the name of the well-known key (within the
// namespace) holding the current session id.
const CurrentSessionKey = "current_session"

// Well-known variable names written under the session prefix by Load.
const (
	VarContext    = "interview_context"
	VarGuestName  = "guest_name"
	VarFocusAreas = "focus_areas"
	VarLoadedAt   = "loaded_at"
)

// Variable is one key under the session prefix, classified for display.
type Variable struct {
	Name string // name relative to the session prefix
	Key  string // full store key
	Kind kv.ValueKind
}

// Manager owns the variables under the active session's prefix. It holds an
// explicit store handle rather than ambient global state, so multiple
// managers (e.g. under test) do not interfere. The store client is a
// stateless transport; all ownership decisions live here.
//
// Load is clear-then-write, not transactional: a concurrent reader may
// observe an empty or partially-populated prefix during a load. The store
// offers no multi-key transaction here, so this window is an accepted,
// documented limitation. Likewise concurrent Load calls against the same
// session are a caller error and may interleave unpredictably.
type Manager struct {
	store     kv.Store
	namespace string
}

// New returns a Manager over store using the given namespace
// ("default" when empty).
func New(store kv.Store, namespace string) *Manager {
	if namespace == "" {
		namespace = "default"
	}
	return &Manager{store: store, namespace: namespace}
}

// currentKey returns the well-known key holding the current session id.
func (m *Manager) currentKey() string {
	return m.namespace + "." + CurrentSessionKey
}

// Ensure returns the current session id, generating and persisting a fresh
// one when none exists. Idempotent once a session is in place.
func (m *Manager) Ensure() (id string, created bool, err error) {
	id, ok, err := m.store.Get(m.currentKey())
	if err != nil {
		return "", false, err
	}
	if ok && id != "" {
		return id, false, nil
	}

	id = models.NewSessionID()
	if err := m.store.Set(m.currentKey(), id); err != nil {
		return "", false, err
	}
	return id, true, nil
}

// Current returns the current session id without creating one. Returns
// models.ErrNotFound when no session exists.
func (m *Manager) Current() (string, error) {
	id, ok, err := m.store.Get(m.currentKey())
	if err != nil {
		return "", err
	}
	if !ok || id == "" {
		return "", fmt.Errorf("no current session: %w", models.ErrNotFound)
	}
	return id, nil
}

// Prefix returns the active session's key prefix (trailing dot included),
// creating the session if needed.
func (m *Manager) Prefix() (string, error) {
	id, _, err := m.Ensure()
	if err != nil {
		return "", err
	}
	return m.prefixFor(id), nil
}

func (m *Manager) prefixFor(id string) string {
	return m.namespace + "." + id + "."
}

// Qualify resolves name to a full store key. Names containing a dot are
// treated as absolute keys and returned unchanged; bare names are placed
// under the active session prefix.
func (m *Manager) Qualify(name string) (string, error) {
	if strings.Contains(name, ".") {
		return name, nil
	}
	prefix, err := m.Prefix()
	if err != nil {
		return "", err
	}
	return prefix + name, nil
}

// Load replaces the active session's variables with the given context:
// every existing key under the prefix is deleted first, then the context
// body, its derived fields, and one variable per document section (named
// per models.SectionVars) are written. A reader observing the prefix
// mid-load sees either the old complete context or a partially-cleared
// prefix, never a blend of two contexts.
func (m *Manager) Load(doc *models.ContextDocument) error {
	prefix, err := m.Prefix()
	if err != nil {
		return err
	}

	// Clear phase must complete before any new key is written.
	if err := m.clear(prefix); err != nil {
		return err
	}

	vars := []struct{ name, value string }{
		{VarContext, doc.Body},
		{VarGuestName, doc.GuestName},
		{VarFocusAreas, doc.FocusAreas},
		{VarLoadedAt, time.Now().UTC().Format(time.RFC3339)},
	}
	for _, h := range models.SectionHeaders {
		vars = append(vars, struct{ name, value string }{
			models.SectionVars[h], models.ExtractSection(doc.Body, h),
		})
	}
	for _, v := range vars {
		if v.value == "" {
			continue
		}
		if err := m.store.Set(prefix+v.name, v.value); err != nil {
			return fmt.Errorf("session.Load: write %s: %w", v.name, err)
		}
	}
	return nil
}

// Unload deletes every key under the active session prefix. Idempotent: an
// already-empty prefix is not an error.
func (m *Manager) Unload() error {
	prefix, err := m.Prefix()
	if err != nil {
		return err
	}
	return m.clear(prefix)
}

// clear enumerates and deletes all keys under prefix, key by key. The keys
// are collected before deletion so the scan cursor is never invalidated by
// our own writes.
func (m *Manager) clear(prefix string) error {
	keys, err := m.keysUnder(prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if _, err := m.store.Delete(k); err != nil {
			return fmt.Errorf("session: clear %s: %w", k, err)
		}
	}
	return nil
}

func (m *Manager) keysUnder(prefix string) ([]string, error) {
	var keys []string
	sc := m.store.Scan(prefix + "*")
	for sc.Next() {
		keys = append(keys, sc.Key())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Variables lists the keys under the active session prefix for display.
// Values classified Vector (e.g. embeddings) are excluded unless includeAll
// is set.
func (m *Manager) Variables(includeAll bool) ([]Variable, error) {
	prefix, err := m.Prefix()
	if err != nil {
		return nil, err
	}
	keys, err := m.keysUnder(prefix)
	if err != nil {
		return nil, err
	}

	vars := make([]Variable, 0, len(keys))
	for _, k := range keys {
		kind, err := m.store.Kind(k)
		if err != nil {
			return nil, err
		}
		if kind == kv.Absent {
			continue // deleted since the scan
		}
		if kind == kv.Vector && !includeAll {
			continue
		}
		vars = append(vars, Variable{
			Name: strings.TrimPrefix(k, prefix),
			Key:  k,
			Kind: kind,
		})
	}
	return vars, nil
}

// Reset deletes the well-known current-session key, returning the store to
// the no-session state. Variables under the old prefix are left behind;
// ReapStale reclaims them.
func (m *Manager) Reset() (bool, error) {
	return m.store.Delete(m.currentKey())
}

// sessionKeyRe matches keys under a recognized session prefix within a
// namespace: "<ns>.<32 hex chars>.<name>".
var sessionKeyRe = regexp.MustCompile(`^([0-9a-f]{32})\.`)

// ReapStale deletes variables belonging to sessions other than the current
// one. Only keys matching the recognized "<namespace>.<32-hex-id>.<name>"
// shape are touched; foreign keys sharing the namespace are left alone.
// Returns the number of keys deleted.
func (m *Manager) ReapStale() (int, error) {
	current, err := m.Current()
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return 0, err
		}
		current = ""
	}

	nsPrefix := m.namespace + "."
	keys, err := m.keysUnder(nsPrefix)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, k := range keys {
		rest := strings.TrimPrefix(k, nsPrefix)
		match := sessionKeyRe.FindStringSubmatch(rest)
		if match == nil {
			continue // current_session key or a foreign key; never touched
		}
		if current != "" && match[1] == current {
			continue
		}
		ok, err := m.store.Delete(k)
		if err != nil {
			return deleted, err
		}
		if ok {
			deleted++
		}
	}
	return deleted, nil
}
