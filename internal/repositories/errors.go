package repositories

import "errors"

// Sentinel errors shared by all repository implementations. Services match
// on these and translate them to the HTTP taxonomy.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)
