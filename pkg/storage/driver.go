// Package storage persists relay records: one row per finished relay
// session, written off the request path by the gateway worker pool.
package storage

import (
	"context"
)

// Driver defines the interface for persisting and retrieving relay records
// in a storage backend.
type Driver interface {
	// Put stores a record. Records are immutable once written; storing an
	// id twice is an error.
	Put(ctx context.Context, rec *Record) error

	// Get retrieves a record by its relay id.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns records matching the filter, newest first.
	List(ctx context.Context, filter Filter) ([]*Record, error)

	// Close closes the store and releases any resources.
	Close() error
}
