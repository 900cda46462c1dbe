package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/models"
	"github.com/julianstephens/cmucal/internal/notifier"
	"github.com/julianstephens/cmucal/internal/storage"
	"github.com/julianstephens/cmucal/internal/visibility"
)

type fakeBackend struct {
	mu          sync.Mutex
	schedules   map[string]models.ScheduleData
	defaultID   string
	delays      map[string]time.Duration
	ignoreCtx   bool
	fetchErr    error
	mutationErr error
	fetches     []string
	removedCats []int64
	addedOrgs   []int64
	removedOrgs []int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		defaultID: "1",
		schedules: map[string]models.ScheduleData{
			"1": {ScheduleID: "1", Courses: []models.Organization{org(1, "15-213", 10, 11)}},
			"2": {ScheduleID: "2", Clubs: []models.Organization{org(2, "ScottyLabs", 20)}},
		},
		delays: map[string]time.Duration{},
	}
}

func org(id int64, name string, categoryIDs ...int64) models.Organization {
	o := models.Organization{OrgID: id, Name: name, Events: map[string][]models.Occurrence{}}
	for _, c := range categoryIDs {
		o.Categories = append(o.Categories, models.Category{ID: c, Name: name + "-cat"})
	}
	return o
}

func (f *fakeBackend) GetSchedule(ctx context.Context, userID string, scheduleID mo.Option[string]) (models.ScheduleData, error) {
	id := scheduleID.OrElse(f.defaultID)
	f.mu.Lock()
	f.fetches = append(f.fetches, scheduleID.OrElse(""))
	delay := f.delays[id]
	fetchErr := f.fetchErr
	data, ok := f.schedules[id]
	f.mu.Unlock()

	if delay > 0 {
		if f.ignoreCtx {
			time.Sleep(delay)
		} else {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return models.ScheduleData{}, ctx.Err()
			}
		}
	}
	if fetchErr != nil {
		return models.ScheduleData{}, fetchErr
	}
	if !ok {
		return models.ScheduleData{}, errors.New("schedule not found")
	}
	return data, nil
}

func (f *fakeBackend) RemoveCategoryFromSchedule(ctx context.Context, categoryID int64, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutationErr != nil {
		return f.mutationErr
	}
	f.removedCats = append(f.removedCats, categoryID)
	return nil
}

func (f *fakeBackend) AddOrgToSchedule(ctx context.Context, scheduleID string, orgID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutationErr != nil {
		return f.mutationErr
	}
	f.addedOrgs = append(f.addedOrgs, orgID)
	return nil
}

func (f *fakeBackend) RemoveOrgFromSchedule(ctx context.Context, scheduleID string, orgID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutationErr != nil {
		return f.mutationErr
	}
	f.removedOrgs = append(f.removedOrgs, orgID)
	return nil
}

func (f *fakeBackend) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetches)
}

func newController(t *testing.T, backend *fakeBackend) (*Controller, *visibility.Store, *notifier.Recorder) {
	t.Helper()
	vis := visibility.Open(storage.NewMemoryStore())
	rec := &notifier.Recorder{}
	c := NewController(backend, "user_1", vis, rec)
	t.Cleanup(c.Close)
	return c, vis, rec
}

func TestController_StartLoadsDefaultSchedule(t *testing.T) {
	backend := newFakeBackend()
	c, vis, _ := newController(t, backend)

	var phases []Phase
	c.Subscribe(func(s State) { phases = append(phases, s.Phase) })

	assert.Equal(t, Idle, c.State().Phase)
	require.NoError(t, c.Start(context.Background()))

	assert.Equal(t, []Phase{Loading, Ready}, phases)
	assert.Equal(t, "1", c.ScheduleID())
	assert.Equal(t, "ready(1)", c.State().String())
	require.Len(t, c.Courses(), 1)
	assert.Equal(t, "1", vis.Active())
	assert.Equal(t, []int64{10, 11}, c.VisibleCategories().Sorted())
}

func TestController_AdoptsPersistedVisibility(t *testing.T) {
	backend := newFakeBackend()
	c, vis, _ := newController(t, backend)
	require.NoError(t, vis.Set("1", func(visibility.Set) visibility.Set { return visibility.NewSet(11) }))

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, []int64{11}, c.VisibleCategories().Sorted())
}

func TestController_SwitchIsSilentAfterFirstLoad(t *testing.T) {
	backend := newFakeBackend()
	backend.delays["2"] = 50 * time.Millisecond
	c, _, _ := newController(t, backend)
	require.NoError(t, c.Start(context.Background()))

	var (
		mu      sync.Mutex
		loading []State
	)
	c.Subscribe(func(s State) {
		if s.Phase == Loading {
			mu.Lock()
			loading = append(loading, s)
			mu.Unlock()
		}
	})

	done := make(chan error, 1)
	go func() { done <- c.Switch(context.Background(), "2") }()

	require.Eventually(t, func() bool { return c.State().Phase == Loading }, time.Second, time.Millisecond)
	assert.Len(t, c.Courses(), 1, "current data stays visible while loading")

	require.NoError(t, <-done)
	mu.Lock()
	require.Len(t, loading, 1)
	assert.True(t, loading[0].Silent)
	mu.Unlock()
	assert.Empty(t, c.Courses())
	require.Len(t, c.Clubs(), 1)
	assert.Equal(t, []int64{20}, c.VisibleCategories().Sorted())
}

func TestController_SwitchSameScheduleIsNoop(t *testing.T) {
	backend := newFakeBackend()
	c, _, _ := newController(t, backend)
	require.NoError(t, c.Switch(context.Background(), "1"))
	require.NoError(t, c.Switch(context.Background(), "1"))
	assert.Equal(t, 1, backend.fetchCount())
}

func TestController_SwitchMidFlight(t *testing.T) {
	for _, ignoreCtx := range []bool{false, true} {
		name := "cancelled"
		if ignoreCtx {
			name = "late arrival"
		}
		t.Run(name, func(t *testing.T) {
			backend := newFakeBackend()
			backend.ignoreCtx = ignoreCtx
			backend.delays["1"] = 200 * time.Millisecond
			backend.delays["2"] = 50 * time.Millisecond
			c, _, _ := newController(t, backend)

			first := make(chan error, 1)
			go func() { first <- c.Switch(context.Background(), "1") }()
			require.Eventually(t, func() bool { return backend.fetchCount() == 1 }, time.Second, time.Millisecond)

			require.NoError(t, c.Switch(context.Background(), "2"))

			select {
			case err := <-first:
				assert.ErrorIs(t, err, ErrSuperseded)
			case <-time.After(time.Second):
				t.Fatal("first switch never returned")
			}
			time.Sleep(250 * time.Millisecond)

			assert.Equal(t, "2", c.ScheduleID())
			assert.Empty(t, c.Courses())
			require.Len(t, c.Clubs(), 1)
			assert.Equal(t, "ScottyLabs", c.Clubs()[0].Name)
			assert.Equal(t, Ready, c.State().Phase)
		})
	}
}

func TestController_ClearedSentinel(t *testing.T) {
	backend := newFakeBackend()
	c, vis, _ := newController(t, backend)
	require.NoError(t, c.Start(context.Background()))
	fetches := backend.fetchCount()

	require.NoError(t, c.Switch(context.Background(), constants.ClearedScheduleID))
	assert.Equal(t, fetches, backend.fetchCount())
	assert.Equal(t, Ready, c.State().Phase)
	assert.Equal(t, constants.ClearedScheduleID, c.ScheduleID())
	assert.Empty(t, c.Courses())
	assert.Empty(t, c.Clubs())
	assert.Empty(t, c.VisibleCategories())
	assert.Equal(t, []int64{10, 11}, vis.Get("1").Sorted(), "other schedules are untouched")

	assert.ErrorIs(t, c.AddOrganization(context.Background(), 3), ErrNoSchedule)
	assert.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, fetches, backend.fetchCount())
}

func TestController_FetchErrorKeepsLastGoodData(t *testing.T) {
	backend := newFakeBackend()
	c, _, _ := newController(t, backend)
	require.NoError(t, c.Start(context.Background()))

	backend.fetchErr = errors.New("backend down")
	err := c.Switch(context.Background(), "2")
	require.Error(t, err)

	st := c.State()
	assert.Equal(t, Error, st.Phase)
	assert.Equal(t, mo.Some("2"), st.ScheduleID)
	assert.EqualError(t, st.Err, "backend down")
	assert.Equal(t, "1", c.ScheduleID())
	require.Len(t, c.Courses(), 1)

	backend.fetchErr = nil
	require.NoError(t, c.Switch(context.Background(), "2"))
	assert.Equal(t, "2", c.ScheduleID())
}

func TestController_CanonicalIDFromServer(t *testing.T) {
	backend := newFakeBackend()
	backend.defaultID = "2"
	c, vis, _ := newController(t, backend)
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, "2", c.ScheduleID())
	assert.True(t, vis.Has("2"))
}

func TestController_RefreshDefaultWithoutServerID(t *testing.T) {
	backend := newFakeBackend()
	backend.defaultID = "anon"
	backend.schedules["anon"] = models.ScheduleData{Courses: []models.Organization{org(3, "21-127", 30)}}
	c, vis, _ := newController(t, backend)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	assert.Equal(t, constants.DefaultScheduleKey, c.ScheduleID())
	assert.True(t, vis.Has(constants.DefaultScheduleKey))

	require.NoError(t, c.Refresh(ctx))
	assert.Equal(t, Ready, c.State().Phase)
	assert.Equal(t, constants.DefaultScheduleKey, c.ScheduleID())
	require.Len(t, c.Courses(), 1)

	require.NoError(t, c.Switch(ctx, "2"))
	require.NoError(t, c.Switch(ctx, constants.DefaultScheduleKey))
	assert.Equal(t, constants.DefaultScheduleKey, c.ScheduleID())

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, []string{"", "", "2", ""}, backend.fetches)
}

func TestController_Mutations(t *testing.T) {
	backend := newFakeBackend()
	c, _, rec := newController(t, backend)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	require.NoError(t, c.RemoveCategory(ctx, 10))
	require.NoError(t, c.AddOrganization(ctx, 9))
	require.NoError(t, c.RemoveOrganization(ctx, 1))
	assert.Equal(t, []int64{10}, backend.removedCats)
	assert.Equal(t, []int64{9}, backend.addedOrgs)
	assert.Equal(t, []int64{1}, backend.removedOrgs)
	assert.Empty(t, rec.Notices())
	assert.Equal(t, 4, backend.fetchCount())
}

func TestController_RemoveOrganizationRollback(t *testing.T) {
	backend := newFakeBackend()
	c, _, rec := newController(t, backend)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	backend.mutationErr = errors.New("forbidden")
	err := c.RemoveOrganization(ctx, 1)
	require.Error(t, err)
	require.Len(t, c.Courses(), 1)
	require.Len(t, rec.Notices(), 1)
	assert.Equal(t, notifier.LevelError, rec.Notices()[0].Level)
}

func TestController_CategoryVisibility(t *testing.T) {
	backend := newFakeBackend()
	c, vis, _ := newController(t, backend)
	require.NoError(t, c.Start(context.Background()))

	require.NoError(t, c.ToggleCategory(10))
	assert.Equal(t, []int64{11}, c.VisibleCategories().Sorted())
	require.NoError(t, c.SetVisibleCategories(func(visibility.Set) visibility.Set { return visibility.NewSet() }))
	assert.Empty(t, vis.Get("1"))
	require.NoError(t, c.ShowAll())
	assert.Equal(t, []int64{10, 11}, c.VisibleCategories().Sorted())
}
