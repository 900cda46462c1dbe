package postgres

import (
	"errors"
	"os"
	"testing"

	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/storage"
)

// TestStore_Integration tests PostgreSQL store with a real database
// Set POSTGRES_TEST_URL environment variable to run this test
// Example: POSTGRES_TEST_URL="postgres://cmucal_user@localhost:5432/cmucal_test?sslmode=disable"
func TestStore_Integration(t *testing.T) {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}

	store := New(connStr)
	if err := store.Init(); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	key := constants.VisibilityStorageKey + ".integration"
	t.Cleanup(func() { _ = store.RemoveItem(key) })

	t.Run("MissingKey", func(t *testing.T) {
		_ = store.RemoveItem(key)
		if _, err := store.GetItem(key); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		if err := store.SetItem(key, `{"a":1}`); err != nil {
			t.Fatalf("Failed to set item: %v", err)
		}
		if err := store.SetItem(key, `{"a":2}`); err != nil {
			t.Fatalf("Failed to overwrite item: %v", err)
		}
		got, err := store.GetItem(key)
		if err != nil {
			t.Fatalf("Failed to get item: %v", err)
		}
		if got != `{"a":2}` {
			t.Errorf("Expected overwritten value, got %s", got)
		}
	})

	t.Run("Keys", func(t *testing.T) {
		keys, err := store.Keys()
		if err != nil {
			t.Fatalf("Failed to list keys: %v", err)
		}
		found := false
		for _, k := range keys {
			if k == key {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected %s in %v", key, keys)
		}
	})

	t.Run("Reload", func(t *testing.T) {
		if err := store.Close(); err != nil {
			t.Fatalf("Failed to close: %v", err)
		}
		if err := store.Load(); err != nil {
			t.Fatalf("Failed to load: %v", err)
		}
		got, err := store.GetItem(key)
		if err != nil || got != `{"a":2}` {
			t.Errorf("Expected persisted value, got %q (%v)", got, err)
		}
	})
}
