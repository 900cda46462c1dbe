package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func setupJSONStore(t *testing.T) *JSONStore {
	t.Helper()
	store := NewJSONStore(filepath.Join(t.TempDir(), "nested", "cmucal.json"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	return store
}

func TestJSONStoreRoundTrip(t *testing.T) {
	store := setupJSONStore(t)

	if err := store.SetItem("cmucal.visibility.v1", `{"12":[1,2]}`); err != nil {
		t.Fatalf("SetItem() failed: %v", err)
	}

	reloaded := NewJSONStore(store.GetConfigPath())
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	got, err := reloaded.GetItem("cmucal.visibility.v1")
	if err != nil {
		t.Fatalf("GetItem() failed: %v", err)
	}
	if got != `{"12":[1,2]}` {
		t.Errorf("GetItem() = %q, want %q", got, `{"12":[1,2]}`)
	}
}

func TestJSONStoreMissingKey(t *testing.T) {
	store := setupJSONStore(t)

	_, err := store.GetItem("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetItem(missing) error = %v, want ErrNotFound", err)
	}
}

func TestJSONStoreRemoveAndKeys(t *testing.T) {
	store := setupJSONStore(t)

	for _, k := range []string{"b", "a", "c"} {
		if err := store.SetItem(k, "v"); err != nil {
			t.Fatalf("SetItem(%s) failed: %v", k, err)
		}
	}
	if err := store.RemoveItem("b"); err != nil {
		t.Fatalf("RemoveItem() failed: %v", err)
	}
	if err := store.RemoveItem("never-set"); err != nil {
		t.Fatalf("RemoveItem() of absent key failed: %v", err)
	}

	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("Keys() failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "c" {
		t.Errorf("Keys() = %v, want [a c]", keys)
	}
}

func TestJSONStoreInitTwice(t *testing.T) {
	store := setupJSONStore(t)
	if err := NewJSONStore(store.GetConfigPath()).Init(); err == nil {
		t.Error("Init() on an existing file should fail")
	}
}

func TestJSONStoreLoadErrors(t *testing.T) {
	t.Run("not initialized", func(t *testing.T) {
		store := NewJSONStore(filepath.Join(t.TempDir(), "absent.json"))
		if err := store.Load(); err == nil {
			t.Error("Load() on a missing file should fail")
		}
	})

	t.Run("corrupt document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corrupt.json")
		if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
			t.Fatal(err)
		}
		if err := NewJSONStore(path).Load(); err == nil {
			t.Error("Load() on a corrupt file should fail")
		}
	})

	t.Run("not loaded", func(t *testing.T) {
		store := NewJSONStore(filepath.Join(t.TempDir(), "x.json"))
		if _, err := store.GetItem("k"); err == nil {
			t.Error("GetItem() before Load() should fail")
		}
	})
}

func TestMemoryStore(t *testing.T) {
	var p Provider = NewMemoryStore()
	if _, err := p.GetItem("k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetItem() error = %v, want ErrNotFound", err)
	}
	if err := p.SetItem("k", "v"); err != nil {
		t.Fatal(err)
	}
	if v, _ := p.GetItem("k"); v != "v" {
		t.Errorf("GetItem() = %q, want v", v)
	}
	if err := p.RemoveItem("k"); err != nil {
		t.Fatal(err)
	}
	keys, _ := p.Keys()
	if len(keys) != 0 {
		t.Errorf("Keys() = %v, want empty", keys)
	}
}
