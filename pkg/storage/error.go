package storage

import "errors"

// ErrDuplicateRecord is returned by Put when the relay id already exists.
var ErrDuplicateRecord = errors.New("relay record already exists")

// NotFoundError is returned when a record doesn't exist in the store.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "relay record not found"
	}

	return "relay record not found: " + e.ID
}
