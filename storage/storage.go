package storage

import "errors"

// ErrNotFound indicates a requested key has no stored value.
var ErrNotFound = errors.New("key not found")

// KeyValueStore persists small string values across daemon restarts.
// The adherence tracker is the only writer; readers treat any error,
// including ErrNotFound, as "use the default".
type KeyValueStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Close() error
}
