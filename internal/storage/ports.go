package storage

import "context"

// SlotStore is a key/value store of opaque JSON documents. The ledger keeps
// each of its collections in one slot.
type SlotStore interface {
	// Get returns the stored value. ok is false when the key was never written.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// PutAll writes every entry or none of them.
	PutAll(ctx context.Context, entries map[string][]byte) error
	Close() error
}
