package visibility

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/storage"
)

type failingKV struct {
	*storage.MemoryStore
	failSet bool
	failGet bool
}

func (f *failingKV) GetItem(key string) (string, error) {
	if f.failGet {
		return "", errors.New("disk on fire")
	}
	return f.MemoryStore.GetItem(key)
}

func (f *failingKV) SetItem(key, value string) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.MemoryStore.SetItem(key, value)
}

func TestStore_GetNeverPopulated(t *testing.T) {
	s := Open(storage.NewMemoryStore())
	assert.Empty(t, s.Get("42"))
	assert.False(t, s.Has("42"))
}

func TestStore_Isolation(t *testing.T) {
	s := Open(storage.NewMemoryStore())
	require.NoError(t, s.Set("B", func(Set) Set { return NewSet(7, 8) }))
	before := s.Get("B")

	require.NoError(t, s.Set("A", func(cur Set) Set {
		cur[1] = struct{}{}
		return cur
	}))
	require.NoError(t, s.Toggle("A", 7))
	require.NoError(t, s.Remove("A"))

	assert.True(t, before.Equal(s.Get("B")))
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := Open(storage.NewMemoryStore())
	require.NoError(t, s.Set("A", func(Set) Set { return NewSet(1) }))

	got := s.Get("A")
	got[2] = struct{}{}
	assert.False(t, s.Get("A").Contains(2))
}

func TestStore_PopulateDefault(t *testing.T) {
	s := Open(storage.NewMemoryStore())

	created, err := s.PopulateDefault("S", NewSet(1, 2, 3))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, []int64{1, 2, 3}, s.Get("S").Sorted())

	require.NoError(t, s.Toggle("S", 2))
	created, err = s.PopulateDefault("S", NewSet(1, 2, 3, 4))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, []int64{1, 3}, s.Get("S").Sorted())
}

func TestStore_Toggle(t *testing.T) {
	s := Open(storage.NewMemoryStore())
	require.NoError(t, s.Toggle("S", 5))
	assert.True(t, s.Get("S").Contains(5))
	require.NoError(t, s.Toggle("S", 5))
	assert.False(t, s.Get("S").Contains(5))
	assert.True(t, s.Has("S"))
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	kv := storage.NewMemoryStore()
	s := Open(kv)
	_, err := s.PopulateDefault("1", NewSet(10, 11))
	require.NoError(t, err)
	require.NoError(t, s.Toggle(constants.DefaultScheduleKey, 3))

	raw, err := kv.GetItem(constants.VisibilityStorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":[10,11],"default":[3]}`, raw)

	reopened := Open(kv)
	assert.Equal(t, []string{"1", "default"}, reopened.Keys())
	assert.True(t, NewSet(10, 11).Equal(reopened.Get("1")))
}

func TestStore_CorruptStorageIsEmpty(t *testing.T) {
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.SetItem(constants.VisibilityStorageKey, "{not json"))

	s := Open(kv)
	assert.Empty(t, s.Keys())

	require.NoError(t, s.Toggle("1", 9))
	raw, err := kv.GetItem(constants.VisibilityStorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":[9]}`, raw)
}

func TestStore_UnreadableStorageIsEmpty(t *testing.T) {
	s := Open(&failingKV{MemoryStore: storage.NewMemoryStore(), failGet: true})
	assert.Empty(t, s.Keys())
}

func TestStore_PersistFailureKeepsMemoryState(t *testing.T) {
	s := Open(&failingKV{MemoryStore: storage.NewMemoryStore(), failSet: true})
	err := s.Toggle("1", 4)
	assert.Error(t, err)
	assert.True(t, s.Get("1").Contains(4))
}

func TestStore_ActivePointer(t *testing.T) {
	s := Open(storage.NewMemoryStore())
	assert.Equal(t, constants.DefaultScheduleKey, s.Active())

	s.SetActive("1")
	require.NoError(t, s.ToggleActive(10))
	s.SetActive("2")
	require.NoError(t, s.ToggleActive(20))

	assert.True(t, s.Visible().Equal(NewSet(20)))
	s.SetActive("1")
	assert.True(t, s.Visible().Equal(NewSet(10)))

	s.SetActive("")
	assert.Equal(t, constants.DefaultScheduleKey, s.Active())
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		state State
	}{
		{"empty", State{}},
		{"single", State{"1": NewSet(3, 1, 2)}},
		{"empty set", State{"default": NewSet()}},
		{"many", State{"1": NewSet(1), "2": NewSet(2, 20), "cleared": NewSet()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.state)
			require.NoError(t, err)
			got, err := Decode(data)
			require.NoError(t, err)
			require.Len(t, got, len(tt.state))
			for k, v := range tt.state {
				assert.True(t, v.Equal(got[k]), "key %s", k)
			}

			again, err := Encode(got)
			require.NoError(t, err)
			assert.Equal(t, data, again)
		})
	}
}

func TestDecode_Corrupt(t *testing.T) {
	_, err := Decode(`["not","a","record"]`)
	assert.Error(t, err)
}
