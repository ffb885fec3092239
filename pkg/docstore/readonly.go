package docstore

import (
	"context"
)

// ReadOnlyStore wraps a Store and refuses writes while in read-only mode.
//
// The read-only state is decided on every call by isReadOnly, so operators can
// switch a running server into maintenance (for example while a snapshot is
// restored) and back without recreating the store.
//
// Add, Set, Update and Delete return ErrReadOnly while the mode is on. Reads
// and Query pass through.
type ReadOnlyStore struct {
	Store
	isReadOnly func() bool
}

// NewReadOnly creates a read-only wrapper for a store.
func NewReadOnly(store Store, isReadOnly func() bool) *ReadOnlyStore {
	return &ReadOnlyStore{
		Store:      store,
		isReadOnly: isReadOnly,
	}
}

// Unwrap returns the underlying store
func (r *ReadOnlyStore) Unwrap() Store {
	return r.Store
}

func (r *ReadOnlyStore) checkReadOnly() error {
	if r.isReadOnly != nil && r.isReadOnly() {
		return ErrReadOnly
	}
	return nil
}

func (r *ReadOnlyStore) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := r.checkReadOnly(); err != nil {
		return "", err
	}
	return r.Store.Add(ctx, collection, fields)
}

func (r *ReadOnlyStore) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.Set(ctx, collection, id, fields)
}

func (r *ReadOnlyStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.Update(ctx, collection, id, fields)
}

func (r *ReadOnlyStore) Delete(ctx context.Context, collection, id string) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Store.Delete(ctx, collection, id)
}
