package backup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/cmucal/internal/storage"
)

func clock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestCreateAndRestore(t *testing.T) {
	src := storage.NewMemoryStore()
	require.NoError(t, src.SetItem("cmucal.visibility.v1", `{"7":[10]}`))
	require.NoError(t, src.SetItem("cmucal.ics.feed", `{"body":"x"}`))

	m := NewManager(t.TempDir())
	m.now = clock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	info, err := m.Create(src)
	require.NoError(t, err)
	assert.FileExists(t, info.Path)

	snap, err := Read(info.Path)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, ":memory:", snap.Source)
	assert.Len(t, snap.Items, 2)

	dst := storage.NewMemoryStore()
	require.NoError(t, dst.SetItem("stale", "1"))
	n, err := m.Restore(dst, info.Path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	keys, err := dst.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"cmucal.ics.feed", "cmucal.visibility.v1"}, keys)
	v, err := dst.GetItem("cmucal.visibility.v1")
	require.NoError(t, err)
	assert.Equal(t, `{"7":[10]}`, v)
}

func TestListNewestFirstAndPrune(t *testing.T) {
	src := storage.NewMemoryStore()
	m := NewManager(t.TempDir())
	m.keep = 2
	m.now = clock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	for i := 0; i < 3; i++ {
		_, err := m.Create(src)
		require.NoError(t, err)
	}

	infos, err := m.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.True(t, infos[0].CreatedAt.After(infos[1].CreatedAt))
	assert.Equal(t, 3, infos[0].CreatedAt.Minute())
}

func TestListMissingDir(t *testing.T) {
	m := NewManager(t.TempDir() + "/nope")
	infos, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestRestoreMissingFile(t *testing.T) {
	m := NewManager(t.TempDir())
	_, err := m.Restore(storage.NewMemoryStore(), "/does/not/exist.json")
	assert.Error(t, err)
}

func TestCreateSameSecond(t *testing.T) {
	src := storage.NewMemoryStore()
	m := NewManager(t.TempDir())
	fixed := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	m.WithClock(func() time.Time { return fixed })

	a, err := m.Create(src)
	require.NoError(t, err)
	b, err := m.Create(src)
	require.NoError(t, err)

	assert.NotEqual(t, a.Path, b.Path)
	assert.Equal(t, time.Second, b.CreatedAt.Sub(a.CreatedAt))
	infos, err := m.List()
	require.NoError(t, err)
	assert.Len(t, infos, 2)
}
