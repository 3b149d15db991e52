package cache

import (
	"context"
	"time"
)

// NullStore is a no-op store that never keeps anything.
// Every lookup is a miss.
type NullStore struct{}

// NewNullStore creates a null store.
func NewNullStore() Store {
	return NullStore{}
}

// Load always returns a miss.
func (NullStore) Load(context.Context, string, time.Time) (*Entry, error) { return nil, nil }

// Save does nothing.
func (NullStore) Save(context.Context, Entry) error { return nil }

// Delete does nothing.
func (NullStore) Delete(context.Context, string) error { return nil }

// Purge does nothing.
func (NullStore) Purge(context.Context, time.Time) (int, error) { return 0, nil }

// Clear does nothing.
func (NullStore) Clear(context.Context) (int, error) { return 0, nil }

// Name implements Store.
func (NullStore) Name() string { return "none" }

// Close does nothing.
func (NullStore) Close() error { return nil }

// Ensure NullStore implements Store.
var _ Store = NullStore{}
