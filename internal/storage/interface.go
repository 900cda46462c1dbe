package storage

import "errors"

// ErrNotFound is returned by GetItem when the key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// KeyValue is durable local storage: a flat string-keyed map of serialized
// values, the terminal counterpart of browser local storage.
type KeyValue interface {
	GetItem(key string) (string, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	KeyValue

	// Keys lists every stored key in lexical order.
	Keys() ([]string, error)

	// Utils
	GetConfigPath() string
}

// Migrator is implemented by the SQL-backed providers.
type Migrator interface {
	// Migrate applies pending migrations and reports how many ran.
	Migrate(logFn func(string)) (int, error)
	SchemaVersion() (current, latest int, err error)
	Ping() error
}
