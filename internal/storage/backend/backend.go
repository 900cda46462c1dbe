// Package backend picks a storage.Provider from a --config target.
package backend

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/julianstephens/cmucal/internal/storage"
	"github.com/julianstephens/cmucal/internal/storage/postgres"
	"github.com/julianstephens/cmucal/internal/storage/sqlite"
)

type Kind string

const (
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
	KindJSON     Kind = "json"
	KindMemory   Kind = "memory"
)

// Detect classifies a config target without touching disk or network.
func Detect(target string) Kind {
	switch {
	case target == ":memory:":
		return KindMemory
	case strings.HasPrefix(target, "postgres://"), strings.HasPrefix(target, "postgresql://"):
		return KindPostgres
	case strings.EqualFold(filepath.Ext(target), ".json"):
		return KindJSON
	default:
		return KindSQLite
	}
}

// Open returns an unloaded provider for target. Postgres targets with an
// embedded password are rejected.
func Open(target string) (storage.Provider, error) {
	if strings.TrimSpace(target) == "" {
		return nil, fmt.Errorf("storage target cannot be empty")
	}
	switch Detect(target) {
	case KindMemory:
		return storage.NewMemoryStore(), nil
	case KindPostgres:
		if _, err := postgres.ValidateConnString(target); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("%w; store the password in the OS keyring, CMUCAL_DB_CONNECTION, or .pgpass instead", err)
			}
			return nil, err
		}
		return postgres.New(target), nil
	case KindJSON:
		return storage.NewJSONStore(target), nil
	default:
		return sqlite.NewStore(target), nil
	}
}
