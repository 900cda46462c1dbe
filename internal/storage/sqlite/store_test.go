package sqlite

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/julianstephens/cmucal/internal/storage"
)

var (
	_ storage.Provider = (*Store)(nil)
	_ storage.Migrator = (*Store)(nil)
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInitCreatesSchema(t *testing.T) {
	store := setupTestStore(t)

	for _, table := range []string{"kv_store", "schema_version"} {
		exists, err := store.tableExists(table)
		if err != nil {
			t.Fatalf("tableExists(%s) returned unexpected error: %v", table, err)
		}
		if !exists {
			t.Errorf("tableExists(%s) = false, want true", table)
		}
	}

	exists, err := store.tableExists("KV_STORE")
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("tableExists should be case-insensitive")
	}
}

func TestKeyValueRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	if _, err := store.GetItem("cmucal.visibility.v1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetItem() on empty store error = %v, want ErrNotFound", err)
	}

	if err := store.SetItem("cmucal.visibility.v1", `{"1":[1]}`); err != nil {
		t.Fatalf("SetItem() failed: %v", err)
	}
	if err := store.SetItem("cmucal.visibility.v1", `{"1":[1,2]}`); err != nil {
		t.Fatalf("SetItem() overwrite failed: %v", err)
	}

	got, err := store.GetItem("cmucal.visibility.v1")
	if err != nil {
		t.Fatalf("GetItem() failed: %v", err)
	}
	if got != `{"1":[1,2]}` {
		t.Errorf("GetItem() = %q, want last written value", got)
	}

	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("Keys() failed: %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("Keys() = %v, want one key", keys)
	}

	if err := store.RemoveItem("cmucal.visibility.v1"); err != nil {
		t.Fatalf("RemoveItem() failed: %v", err)
	}
	if _, err := store.GetItem("cmucal.visibility.v1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetItem() after remove error = %v, want ErrNotFound", err)
	}
}

func TestLoadExistingDatabase(t *testing.T) {
	store := setupTestStore(t)
	if err := store.SetItem("k", "v"); err != nil {
		t.Fatal(err)
	}
	path := store.GetConfigPath()
	store.Close()

	reopened := NewStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetItem("k")
	if err != nil || got != "v" {
		t.Errorf("GetItem() = %q, %v; want v, nil", got, err)
	}
}

func TestLoadMissingDatabase(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.db"))
	if err := store.Load(); err == nil {
		t.Error("Load() on a missing database should fail")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := setupTestStore(t)

	count, err := store.Migrate(func(string) {})
	if err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Migrate() after Init applied %d migrations, want 0", count)
	}

	current, latest, err := store.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion() failed: %v", err)
	}
	if current != latest {
		t.Errorf("SchemaVersion() = %d, %d; want equal", current, latest)
	}
	if err := store.Ping(); err != nil {
		t.Errorf("Ping() failed: %v", err)
	}
}

func TestMigrateBeforeLoad(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if _, err := store.Migrate(nil); err == nil {
		t.Error("Migrate() on an unopened store should fail")
	}
}
