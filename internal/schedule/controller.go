// Package schedule owns the organizations of the active schedule and keeps
// visibility state in step as the user switches between schedules.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/samber/mo"

	"github.com/julianstephens/cmucal/internal/constants"
	apperrors "github.com/julianstephens/cmucal/internal/errors"
	"github.com/julianstephens/cmucal/internal/logger"
	"github.com/julianstephens/cmucal/internal/models"
	"github.com/julianstephens/cmucal/internal/notifier"
	"github.com/julianstephens/cmucal/internal/visibility"
)

var (
	ErrSuperseded = apperrors.ErrSuperseded
	ErrNoSchedule = apperrors.ErrNoScheduleSelected
)

// Backend is the subset of the CMUCal API the controller drives.
type Backend interface {
	GetSchedule(ctx context.Context, userID string, scheduleID mo.Option[string]) (models.ScheduleData, error)
	RemoveCategoryFromSchedule(ctx context.Context, categoryID int64, userID string) error
	AddOrgToSchedule(ctx context.Context, scheduleID string, orgID int64) error
	RemoveOrgFromSchedule(ctx context.Context, scheduleID string, orgID int64) error
}

// Controller serializes schedule selection. Only the most recently requested
// schedule is ever committed; earlier in-flight fetches are cancelled and
// their results discarded.
type Controller struct {
	backend    Backend
	userID     string
	visibility *visibility.Store
	notifier   notifier.Notifier

	mu          sync.Mutex
	state       State
	courses     []models.Organization
	clubs       []models.Organization
	scheduleID  string
	loaded      bool
	token       uint64
	cancel      context.CancelFunc
	subscribers []func(State)
}

func NewController(backend Backend, userID string, vis *visibility.Store, n notifier.Notifier) *Controller {
	if n == nil {
		n = notifier.Func(func(notifier.Notice) {})
	}
	return &Controller{
		backend:    backend,
		userID:     userID,
		visibility: vis,
		notifier:   n,
		state:      State{Phase: Idle},
	}
}

// Subscribe registers fn to receive every state transition. fn runs on the
// goroutine that caused the transition, without the controller lock held.
func (c *Controller) Subscribe(fn func(State)) {
	c.mu.Lock()
	c.subscribers = append(c.subscribers, fn)
	c.mu.Unlock()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start loads the user's default schedule.
func (c *Controller) Start(ctx context.Context) error {
	return c.request(ctx, mo.None[string](), false)
}

// Switch selects scheduleID and blocks until it is loaded, superseded or
// failed. The cleared sentinel selects no schedule without a fetch.
func (c *Controller) Switch(ctx context.Context, scheduleID string) error {
	if scheduleID == constants.ClearedScheduleID {
		c.clear()
		return nil
	}
	if scheduleID == "" || scheduleID == constants.DefaultScheduleKey {
		return c.request(ctx, mo.None[string](), !c.isFirstLoad())
	}

	c.mu.Lock()
	current := c.state
	silent := c.loaded
	c.mu.Unlock()
	if current.Phase == Ready && current.ScheduleID.OrElse("") == scheduleID {
		return nil
	}
	return c.request(ctx, mo.Some(scheduleID), silent)
}

// Refresh refetches the current schedule silently. A default schedule
// without a server id is refetched as the default again.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	id := c.scheduleID
	c.mu.Unlock()
	if id == constants.ClearedScheduleID {
		return nil
	}
	if id == "" || id == constants.DefaultScheduleKey {
		return c.request(ctx, mo.None[string](), !c.isFirstLoad())
	}
	return c.request(ctx, mo.Some(id), true)
}

func (c *Controller) isFirstLoad() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.loaded
}

func (c *Controller) clear() {
	c.mu.Lock()
	c.token++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.courses = nil
	c.clubs = nil
	c.scheduleID = constants.ClearedScheduleID
	c.visibility.SetActive(constants.ClearedScheduleID)
	st := c.setStateLocked(State{Phase: Ready, ScheduleID: mo.Some(constants.ClearedScheduleID)})
	c.mu.Unlock()
	c.publish(st)
}

func (c *Controller) request(ctx context.Context, id mo.Option[string], silent bool) error {
	c.mu.Lock()
	c.token++
	token := c.token
	if c.cancel != nil {
		c.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	if !silent {
		c.courses = nil
		c.clubs = nil
	}
	loading := c.setStateLocked(State{Phase: Loading, ScheduleID: id, Silent: silent})
	c.mu.Unlock()
	c.publish(loading)

	logger.Debug("Fetching schedule", "schedule", id.OrElse("<default>"), "silent", silent, "token", token)
	data, err := c.backend.GetSchedule(reqCtx, c.userID, id)

	c.mu.Lock()
	if token != c.token {
		c.mu.Unlock()
		cancel()
		logger.Debug("Discarding superseded schedule fetch", "schedule", id.OrElse("<default>"), "token", token)
		return ErrSuperseded
	}
	c.cancel = nil
	cancel()

	if err != nil {
		st := c.setStateLocked(State{Phase: Error, ScheduleID: id, Silent: silent, Err: err})
		c.mu.Unlock()
		c.publish(st)
		logger.Error("Failed to fetch schedule", "schedule", id.OrElse("<default>"), "error", err)
		return fmt.Errorf("failed to fetch schedule: %w", err)
	}

	canonical := id.OrElse(data.ScheduleID)
	if canonical == "" {
		canonical = constants.DefaultScheduleKey
	}
	for _, org := range slices.Concat(data.Courses, data.Clubs) {
		if verr := org.Validate(); verr != nil {
			logger.Warn("Schedule contains inconsistent organization", "schedule", canonical, "error", verr)
		}
	}
	c.courses = data.Courses
	c.clubs = data.Clubs
	c.scheduleID = canonical
	c.loaded = true

	c.visibility.SetActive(canonical)
	if !c.visibility.Has(canonical) {
		if _, perr := c.visibility.PopulateDefault(canonical, visibility.NewSet(data.AllCategoryIDs()...)); perr != nil {
			logger.Warn("Failed to persist default visibility", "schedule", canonical, "error", perr)
		}
	}

	st := c.setStateLocked(State{Phase: Ready, ScheduleID: mo.Some(canonical), Silent: silent})
	c.mu.Unlock()
	c.publish(st)
	logger.Info("Schedule loaded", "schedule", canonical, "courses", len(data.Courses), "clubs", len(data.Clubs))
	return nil
}

func (c *Controller) setStateLocked(st State) State {
	c.state = st
	return st
}

func (c *Controller) publish(st State) {
	c.mu.Lock()
	subs := slices.Clone(c.subscribers)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}

// selected returns the id of a real schedule or ErrNoSchedule.
func (c *Controller) selected() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scheduleID == "" || c.scheduleID == constants.ClearedScheduleID || c.scheduleID == constants.DefaultScheduleKey {
		return "", ErrNoSchedule
	}
	return c.scheduleID, nil
}

func (c *Controller) afterMutation(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		logger.Warn("Refresh after schedule change failed", "error", err)
	}
}

// RemoveCategory drops a category from the user's schedule and refetches.
func (c *Controller) RemoveCategory(ctx context.Context, categoryID int64) error {
	if _, err := c.selected(); err != nil {
		return err
	}
	err := c.backend.RemoveCategoryFromSchedule(ctx, categoryID, c.userID)
	if err != nil {
		logger.Error("Failed to remove category", "category", categoryID, "error", err)
		c.notifier.Notify(notifier.Errorf("Remove category failed", "could not remove category %d: %v", categoryID, err))
	}
	c.afterMutation(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove category: %w", err)
	}
	return nil
}

// AddOrganization adds orgID to the current schedule and refetches.
func (c *Controller) AddOrganization(ctx context.Context, orgID int64) error {
	id, err := c.selected()
	if err != nil {
		return err
	}
	err = c.backend.AddOrgToSchedule(ctx, id, orgID)
	if err != nil {
		logger.Error("Failed to add organization", "schedule", id, "org", orgID, "error", err)
		c.notifier.Notify(notifier.Errorf("Add organization failed", "could not add organization %d: %v", orgID, err))
	}
	c.afterMutation(ctx)
	if err != nil {
		return fmt.Errorf("failed to add organization: %w", err)
	}
	return nil
}

// RemoveOrganization hides orgID immediately, then removes it upstream. A
// failed removal restores the previous lists.
func (c *Controller) RemoveOrganization(ctx context.Context, orgID int64) error {
	id, err := c.selected()
	if err != nil {
		return err
	}

	c.mu.Lock()
	prevCourses, prevClubs := c.courses, c.clubs
	c.courses = withoutOrg(c.courses, orgID)
	c.clubs = withoutOrg(c.clubs, orgID)
	token := c.token
	c.mu.Unlock()

	err = c.backend.RemoveOrgFromSchedule(ctx, id, orgID)
	if err != nil {
		c.mu.Lock()
		if c.token == token {
			c.courses, c.clubs = prevCourses, prevClubs
		}
		c.mu.Unlock()
		logger.Error("Failed to remove organization", "schedule", id, "org", orgID, "error", err)
		c.notifier.Notify(notifier.Errorf("Remove organization failed", "could not remove organization %d: %v", orgID, err))
	}
	c.afterMutation(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove organization: %w", err)
	}
	return nil
}

func withoutOrg(orgs []models.Organization, orgID int64) []models.Organization {
	out := make([]models.Organization, 0, len(orgs))
	for _, o := range orgs {
		if o.OrgID != orgID {
			out = append(out, o)
		}
	}
	return out
}

// Courses returns the courses of the loaded schedule. Callers must not mutate the result.
func (c *Controller) Courses() []models.Organization {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.courses
}

// Clubs returns the clubs of the loaded schedule. Callers must not mutate the result.
func (c *Controller) Clubs() []models.Organization {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clubs
}

// ScheduleID returns the canonical id of the loaded schedule, "" before the
// first load.
func (c *Controller) ScheduleID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scheduleID
}

// VisibleCategories returns the visible set of the loaded schedule.
func (c *Controller) VisibleCategories() visibility.Set {
	return c.visibility.Visible()
}

func (c *Controller) ToggleCategory(categoryID int64) error {
	return c.visibility.ToggleActive(categoryID)
}

func (c *Controller) SetVisibleCategories(update func(visibility.Set) visibility.Set) error {
	return c.visibility.Set(c.visibility.Active(), update)
}

// ShowAll makes every category of the loaded schedule visible.
func (c *Controller) ShowAll() error {
	c.mu.Lock()
	data := models.ScheduleData{Courses: c.courses, Clubs: c.clubs}
	c.mu.Unlock()
	all := visibility.NewSet(data.AllCategoryIDs()...)
	return c.SetVisibleCategories(func(visibility.Set) visibility.Set { return all })
}

// Close cancels any in-flight fetch.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
