package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/models"
)

type recorded struct {
	method string
	path   string
	query  string
	header string
	body   string
}

func newServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			header: r.Header.Get(constants.UserIDHeader),
			body:   string(body),
		})
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", "user_1"), &calls
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestGetSchedule(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, models.ScheduleData{
			ScheduleID: "4",
			Courses: []models.Organization{{
				OrgID:      1,
				Name:       "15-213",
				Categories: []models.Category{{ID: 10, Name: "Lectures"}},
				Events: map[string][]models.Occurrence{
					"Lectures": {{ID: 100, Title: "Lecture", Start: "2024-01-02T10:00:00Z"}},
				},
			}},
		})
	})

	data, err := c.GetSchedule(context.Background(), "user_1", mo.None[string]())
	require.NoError(t, err)
	assert.Equal(t, "4", data.ScheduleID)
	require.Len(t, data.Courses, 1)
	assert.Equal(t, "Lecture", data.Courses[0].Events["Lectures"][0].Title)

	_, err = c.GetSchedule(context.Background(), "user_1", mo.Some("7"))
	require.NoError(t, err)

	require.Len(t, *calls, 2)
	assert.Equal(t, "/api/schedules", (*calls)[0].path)
	assert.Equal(t, "user_id=user_1", (*calls)[0].query)
	assert.Equal(t, "schedule_id=7&user_id=user_1", (*calls)[1].query)
	assert.Equal(t, "user_1", (*calls)[0].header)
}

func TestGetSchedule_NumericScheduleID(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"courses":[],"clubs":[],"schedule_id":4}`)
	})

	data, err := c.GetSchedule(context.Background(), "user_1", mo.None[string]())
	require.NoError(t, err)
	assert.Equal(t, "4", data.ScheduleID)
	assert.Empty(t, data.Courses)
}

func TestScheduleMutations(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	require.NoError(t, c.AddOrgToSchedule(ctx, "3", 9))
	require.NoError(t, c.RemoveOrgFromSchedule(ctx, "3", 9))
	require.NoError(t, c.RemoveCategoryFromSchedule(ctx, 12, "user_1"))
	assert.Error(t, c.AddOrgToSchedule(ctx, "cleared", 9))

	require.Len(t, *calls, 3)
	assert.Equal(t, "/api/users/add_org_to_schedule", (*calls)[0].path)
	assert.JSONEq(t, `{"schedule_id":3,"org_id":9}`, (*calls)[0].body)
	assert.Equal(t, "/api/users/remove_org_from_schedule", (*calls)[1].path)
	assert.Equal(t, http.MethodDelete, (*calls)[2].method)
	assert.Equal(t, "/api/schedules/categories/12", (*calls)[2].path)
}

func TestSavedEvents(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/users/user_saved_events" {
			writeJSON(w, []int64{1, 2})
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	ctx := context.Background()

	ids, err := c.SavedEventIDs(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	require.NoError(t, c.AddEventToUser(ctx, "user_1", 5))
	require.NoError(t, c.RemoveEventFromUser(ctx, "user_1", 5))
	assert.JSONEq(t, `{"user_id":"user_1","event_id":5}`, (*calls)[1].body)
	assert.Equal(t, "/api/users/remove_event", (*calls)[2].path)
}

func TestEventDetailEndpoints(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/organizations/3":
			writeJSON(w, models.Organization{OrgID: 3, Name: "KGB", Categories: []models.Category{{ID: 30, Name: "Events"}}})
		case "/api/events/55":
			writeJSON(w, models.Occurrence{ID: 55, Title: "OH", Start: "2024-01-03T15:00:00Z"})
		case "/api/tags/55":
			writeJSON(w, []models.Tag{{ID: 1, Name: "career"}})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	org, err := c.GetOrganizationData(ctx, "user_1", 3)
	require.NoError(t, err)
	assert.Equal(t, "KGB", org.Name)
	require.Len(t, org.Categories, 1)

	ev, err := c.GetEvent(ctx, 55)
	require.NoError(t, err)
	assert.Equal(t, "OH", ev.Title)

	tags, err := c.FetchTagsForEvent(ctx, 55)
	require.NoError(t, err)
	assert.Equal(t, []models.Tag{{ID: 1, Name: "career"}}, tags)

	require.Len(t, *calls, 3)
	assert.Equal(t, "user_id=user_1", (*calls)[0].query)
	assert.Equal(t, "user_id=user_1", (*calls)[1].query)
	assert.Equal(t, "/api/tags/55", (*calls)[2].path)
}

func TestManagerEndpoints(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/events/create_event/form":
			w.WriteHeader(http.StatusCreated)
		case "/api/events/create_event/gcal":
			w.WriteHeader(http.StatusCreated)
			writeJSON(w, models.ICalLinkResult{Message: "created 12 events", CalendarSourceID: 4})
		case "/api/organizations/get_admins_in_org":
			writeJSON(w, []models.OrgAdmin{{AndrewID: "scotty", Role: "admin"}})
		}
	})
	ctx := context.Background()

	require.NoError(t, c.CreateEvent(ctx, models.EventPayload{
		Title: "Info Session", Start: "2024-02-01T18:00:00Z", End: "2024-02-01T19:00:00Z",
		Location: "GHC 4401", EventType: "CAREER", CategoryID: 30, OrgID: "3",
	}))
	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte((*calls)[0].body), &sent))
	assert.Equal(t, "user_1", sent["clerk_id"])
	assert.Equal(t, "CAREER", sent["event_type"])
	assert.Equal(t, float64(30), sent["category_id"])

	res, err := c.ReadICalLink(ctx, models.ICalLinkPayload{Link: "https://calendar.google.com/calendar/ical/x/public/basic.ics", OrgID: "3", CategoryID: "30"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.CalendarSourceID)
	assert.JSONEq(t, `{"gcal_link":"https://calendar.google.com/calendar/ical/x/public/basic.ics","org_id":"3","category_id":"30","clerk_id":"user_1"}`, (*calls)[1].body)

	admins, err := c.GetAdminsInOrg(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []models.OrgAdmin{{AndrewID: "scotty", Role: "admin"}}, admins)
	assert.Equal(t, "org_id=3", (*calls)[2].query)
	assert.Equal(t, "user_1", (*calls)[2].header)
}

func TestStatusErrorMessageBody(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, map[string]string{"message": "link is not public"})
	})
	_, err := c.ReadICalLink(context.Background(), models.ICalLinkPayload{Link: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "link is not public")
}

func TestStatusError(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/google/calendar/status":
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]string{"error": "not signed in"})
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	})

	_, err := c.CheckAuthStatus(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Contains(t, err.Error(), "not signed in")

	_, err = c.FetchAllTags(context.Background())
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestGoogleEndpoints(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/google/calendar/list":
			writeJSON(w, []models.Calendar{{ID: "primary", Summary: "Me", Primary: true}})
		case "/api/google/calendar/events/bulk":
			writeJSON(w, []models.GCalEvent{{Title: "Standup", Start: "2024-01-01T10:00:00Z", CalendarID: "primary"}})
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
	ctx := context.Background()

	cals, err := c.ListCalendars(ctx)
	require.NoError(t, err)
	require.Len(t, cals, 1)
	assert.True(t, cals[0].Primary)

	evs, err := c.FetchBulkEventsFromCalendars(ctx, []string{"primary"})
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.JSONEq(t, `{"calendarIds":["primary"]}`, (*calls)[1].body)

	require.NoError(t, c.Unauthorize(ctx))
	assert.Equal(t, http.MethodDelete, (*calls)[2].method)
}

func TestExploreOccurrencesQuery(t *testing.T) {
	c, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []models.Occurrence{{ID: 1, Title: "Hackathon"}})
	})
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	got, err := c.ExploreOccurrences(context.Background(), OccurrenceQuery{
		Term: "hack", TagIDs: []int64{1, 2}, Date: &date, Limit: 30, Offset: 60,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "/api/events/occurrences", (*calls)[0].path)
	assert.Equal(t, "date=2024-03-01&limit=30&offset=60&tags=1%2C2&term=hack", (*calls)[0].query)
}

func TestContextCancellation(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.GetSchedule(ctx, "user_1", mo.None[string]())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
