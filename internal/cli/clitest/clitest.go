// Package clitest provides an in-memory backend and command context for
// command tests.
package clitest

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samber/mo"

	"github.com/julianstephens/cmucal/internal/api"
	"github.com/julianstephens/cmucal/internal/cli"
	"github.com/julianstephens/cmucal/internal/config"
	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/models"
	"github.com/julianstephens/cmucal/internal/notifier"
	"github.com/julianstephens/cmucal/internal/storage"
)

// Now is the fixed clock of contexts built by NewContext.
var Now = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

// Backend is a fake CMUCal API holding one schedule per id.
type Backend struct {
	mu sync.Mutex

	Schedules  map[string]models.ScheduleData
	Summaries  []models.ScheduleSummary
	Saved      []int64
	Authorized bool
	Calendars  []models.Calendar
	GCal       []models.GCalEvent
	Clubs      []models.ClubOrganization
	Courses    []models.CourseOption
	Tags       []models.Tag
	Explore    []models.Occurrence
	Orgs       map[int64]models.Organization
	Events     map[int64]models.Occurrence
	EventTags  map[int64][]models.Tag
	Admins     map[int64][]models.OrgAdmin

	CreatedEvents []models.EventPayload
	ICalLinks     []models.ICalLinkPayload
	ManageErr     error

	SaveErr      error
	Unauthorized bool
	Removed      []int64
	Created      []string
}

// NewBackend returns a backend with schedule "7" holding one course and one
// club, and an authorized Google account.
func NewBackend() *Backend {
	course := models.Organization{
		OrgID: 1,
		Name:  "15-213",
		Type:  constants.OrgTypeCourse,
		Categories: []models.Category{
			{ID: 10, Name: "Lectures"},
			{ID: 11, Name: "Office Hours"},
		},
		Events: map[string][]models.Occurrence{
			"Lectures":     {{ID: 100, Title: "Lecture", Start: "2024-01-02T10:00:00Z", End: "2024-01-02T11:20:00Z"}},
			"Office Hours": {{ID: 101, EventID: 55, Title: "OH", Start: "2024-01-03T15:00:00Z", End: "2024-01-03T16:00:00Z"}},
		},
	}
	club := models.Organization{
		OrgID:      2,
		Name:       "ScottyLabs",
		Type:       constants.OrgTypeClub,
		Categories: []models.Category{{ID: 20, Name: "Meetings"}},
		Events: map[string][]models.Occurrence{
			"Meetings": {{ID: 200, Title: "General Body", Start: "2024-01-04T18:00:00Z", End: "2024-01-04T19:00:00Z"}},
		},
	}
	return &Backend{
		Schedules: map[string]models.ScheduleData{
			"7": {ScheduleID: "7", Courses: []models.Organization{course}, Clubs: []models.Organization{club}},
		},
		Summaries:  []models.ScheduleSummary{{ID: 7, Name: "Spring"}},
		Authorized: true,
		Calendars:  []models.Calendar{{ID: "primary", Summary: "Me", Primary: true}},
		GCal: []models.GCalEvent{
			{Title: "Dentist", Start: "2024-01-02T14:00:00Z", End: "2024-01-02T15:00:00Z", CalendarID: "primary"},
		},
		Clubs:   []models.ClubOrganization{{ID: 2, Name: "ScottyLabs"}, {ID: 3, Name: "KGB"}},
		Courses: []models.CourseOption{{ID: "1", Number: "15-213", Title: "Intro to Computer Systems", Label: "15-213 Intro to Computer Systems"}},
		Tags:    []models.Tag{{ID: 1, Name: "career"}, {ID: 2, Name: "social"}},
		Orgs: map[int64]models.Organization{
			3: {OrgID: 3, Name: "KGB", Type: constants.OrgTypeClub, Categories: []models.Category{{ID: 30, Name: "Events"}}},
		},
	}
}

var _ cli.Backend = (*Backend)(nil)

func (b *Backend) GetSchedule(ctx context.Context, userID string, scheduleID mo.Option[string]) (models.ScheduleData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := scheduleID.Get()
	if !ok {
		id = "7"
	}
	data, found := b.Schedules[id]
	if !found {
		return models.ScheduleData{}, &api.StatusError{Method: "GET", Path: "/schedules/" + id, Code: 404, Body: "schedule not found"}
	}
	return data, nil
}

func (b *Backend) RemoveCategoryFromSchedule(ctx context.Context, categoryID int64, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Removed = append(b.Removed, categoryID)
	return nil
}

func (b *Backend) AddOrgToSchedule(ctx context.Context, scheduleID string, orgID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	org, ok := b.Orgs[orgID]
	if !ok {
		return fmt.Errorf("organization %d not found", orgID)
	}
	data := b.Schedules[scheduleID]
	if org.Type == constants.OrgTypeClub {
		data.Clubs = append(data.Clubs, org)
	} else {
		data.Courses = append(data.Courses, org)
	}
	b.Schedules[scheduleID] = data
	return nil
}

func (b *Backend) RemoveOrgFromSchedule(ctx context.Context, scheduleID string, orgID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	data := b.Schedules[scheduleID]
	keep := func(orgs []models.Organization) []models.Organization {
		return slices.DeleteFunc(slices.Clone(orgs), func(o models.Organization) bool { return o.OrgID == orgID })
	}
	data.Courses = keep(data.Courses)
	data.Clubs = keep(data.Clubs)
	b.Schedules[scheduleID] = data
	return nil
}

func (b *Backend) SavedEventIDs(ctx context.Context, userID string) ([]int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.Saved), nil
}

func (b *Backend) AddEventToUser(ctx context.Context, userID string, eventID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SaveErr != nil {
		return b.SaveErr
	}
	b.Saved = append(b.Saved, eventID)
	return nil
}

func (b *Backend) RemoveEventFromUser(ctx context.Context, userID string, eventID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SaveErr != nil {
		return b.SaveErr
	}
	b.Saved = slices.DeleteFunc(b.Saved, func(id int64) bool { return id == eventID })
	return nil
}

func (b *Backend) CheckAuthStatus(ctx context.Context) (models.AuthStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return models.AuthStatus{Authorized: b.Authorized}, nil
}

func (b *Backend) ListCalendars(ctx context.Context) ([]models.Calendar, error) {
	return b.Calendars, nil
}

func (b *Backend) FetchBulkEventsFromCalendars(ctx context.Context, calendarIDs []string) ([]models.GCalEvent, error) {
	var out []models.GCalEvent
	for _, ev := range b.GCal {
		if slices.Contains(calendarIDs, ev.CalendarID) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (b *Backend) ListSchedules(ctx context.Context) ([]models.ScheduleSummary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.Summaries), nil
}

func (b *Backend) CreateSchedule(ctx context.Context, name string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := int64(100 + len(b.Created))
	b.Created = append(b.Created, name)
	b.Summaries = append(b.Summaries, models.ScheduleSummary{ID: id, Name: name})
	b.Schedules[fmt.Sprint(id)] = models.ScheduleData{ScheduleID: fmt.Sprint(id)}
	return id, nil
}

func (b *Backend) GetClubOrganizations(ctx context.Context) ([]models.ClubOrganization, error) {
	return b.Clubs, nil
}

func (b *Backend) GetCourseOrgs(ctx context.Context) ([]models.CourseOption, error) {
	return b.Courses, nil
}

func (b *Backend) FetchAllTags(ctx context.Context) ([]models.Tag, error) {
	return b.Tags, nil
}

func (b *Backend) ExploreOccurrences(ctx context.Context, q api.OccurrenceQuery) ([]models.Occurrence, error) {
	var matched []models.Occurrence
	for _, o := range b.Explore {
		if q.Term == "" || strings.Contains(strings.ToLower(o.Title), strings.ToLower(q.Term)) {
			matched = append(matched, o)
		}
	}
	if q.Offset >= len(matched) {
		return nil, nil
	}
	return matched[q.Offset:min(q.Offset+q.Limit, len(matched))], nil
}

// GetOrganizationData looks in Orgs, then in every schedule.
func (b *Backend) GetOrganizationData(ctx context.Context, userID string, orgID int64) (models.Organization, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if org, ok := b.Orgs[orgID]; ok {
		return org, nil
	}
	for _, data := range b.Schedules {
		for _, org := range slices.Concat(data.Courses, data.Clubs) {
			if org.OrgID == orgID {
				return org, nil
			}
		}
	}
	return models.Organization{}, &api.StatusError{Method: "GET", Path: fmt.Sprintf("/organizations/%d", orgID), Code: 404, Body: "organization not found"}
}

func (b *Backend) GetEvent(ctx context.Context, eventID int64) (models.Occurrence, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ev, ok := b.Events[eventID]; ok {
		return ev, nil
	}
	return models.Occurrence{}, &api.StatusError{Method: "GET", Path: fmt.Sprintf("/events/%d", eventID), Code: 404, Body: "event not found"}
}

func (b *Backend) FetchTagsForEvent(ctx context.Context, eventID int64) ([]models.Tag, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.EventTags[eventID]), nil
}

func (b *Backend) CreateEvent(ctx context.Context, in models.EventPayload) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ManageErr != nil {
		return b.ManageErr
	}
	b.CreatedEvents = append(b.CreatedEvents, in)
	return nil
}

func (b *Backend) ReadICalLink(ctx context.Context, in models.ICalLinkPayload) (models.ICalLinkResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ManageErr != nil {
		return models.ICalLinkResult{}, b.ManageErr
	}
	b.ICalLinks = append(b.ICalLinks, in)
	return models.ICalLinkResult{Message: "Events created", CalendarSourceID: int64(len(b.ICalLinks))}, nil
}

func (b *Backend) GetAdminsInOrg(ctx context.Context, orgID int64) ([]models.OrgAdmin, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ManageErr != nil {
		return nil, b.ManageErr
	}
	return slices.Clone(b.Admins[orgID]), nil
}

func (b *Backend) Unauthorize(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Authorized = false
	b.Unauthorized = true
	return nil
}

// NewContext returns a command context backed by b, an in-memory store and a
// config file in a temp dir. Output is captured in the returned buffer.
func NewContext(t *testing.T, b *Backend) (*cli.Context, *bytes.Buffer, *notifier.Recorder) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.HorizonDays = 7
	cfg.UserID = "user_test"

	out := &bytes.Buffer{}
	rec := &notifier.Recorder{}
	ctx := &cli.Context{
		Base:       context.Background(),
		Config:     cfg,
		ConfigPath: filepath.Join(t.TempDir(), "config.yaml"),
		Store:      storage.NewMemoryStore(),
		UserID:     cfg.UserID,
		Notifier:   rec,
		Out:        out,
		Now:        func() time.Time { return Now },
	}
	if b != nil {
		ctx.Backend = b
	}
	t.Cleanup(ctx.Close)
	return ctx, out, rec
}
