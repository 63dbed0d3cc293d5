// Package params resolves &name parameter references inside formulas.
package params

import (
	"context"
	"maps"
	"sync"
)

// Store looks up the raw replacement text of a named parameter.
//
// Implementations return "" with a nil error for unknown names. A non-nil
// error is treated by the Expander as an empty value and logged.
type Store interface {
	Lookup(ctx context.Context, name string) (string, error)
}

// StoreFunc adapts a plain function to Store.
type StoreFunc func(ctx context.Context, name string) (string, error)

// Lookup calls f.
func (f StoreFunc) Lookup(ctx context.Context, name string) (string, error) {
	return f(ctx, name)
}

// MapStore is an in-memory Store safe for concurrent use.
type MapStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMapStore creates a MapStore seeded with a copy of values.
//
// Postcondition: later changes to values do not affect the store.
func NewMapStore(values map[string]string) *MapStore {
	m := make(map[string]string, len(values))
	maps.Copy(m, values)
	return &MapStore{values: m}
}

// Lookup returns the value of name, or "" when it is not set.
func (s *MapStore) Lookup(_ context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[name], nil
}

// Set stores value under name, replacing any existing value.
func (s *MapStore) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
}

// Delete removes name. Deleting an unknown name is a no-op.
func (s *MapStore) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, name)
}
