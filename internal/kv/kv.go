// Package kv is the durable key/value layer the ledger and the guest screen
// share. Values are opaque strings, typically JSON.
package kv

import "context"

// Store is a flat string key/value namespace.
type Store interface {
	// Get returns the value for key. ok is false when the key is unset.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// List returns every key starting with prefix, in ascending order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Transactor is implemented by stores that can apply a group of writes
// atomically. Writes made through the Store passed to fn are committed
// together when fn returns nil and discarded otherwise.
type Transactor interface {
	WithTx(ctx context.Context, fn func(Store) error) error
}

// Atomically runs fn inside a transaction when s supports one, and directly
// against s otherwise.
func Atomically(ctx context.Context, s Store, fn func(Store) error) error {
	if tx, ok := s.(Transactor); ok {
		return tx.WithTx(ctx, fn)
	}
	return fn(s)
}
