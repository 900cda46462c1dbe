package api

import (
	"context"
	"net/http"

	"github.com/julianstephens/cmucal/internal/models"
)

func (c *Client) CheckAuthStatus(ctx context.Context) (models.AuthStatus, error) {
	var out models.AuthStatus
	if err := c.do(ctx, http.MethodGet, "/google/calendar/status", nil, nil, &out); err != nil {
		return models.AuthStatus{}, err
	}
	return out, nil
}

func (c *Client) ListCalendars(ctx context.Context) ([]models.Calendar, error) {
	var out []models.Calendar
	if err := c.do(ctx, http.MethodGet, "/google/calendar/list", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchBulkEventsFromCalendars(ctx context.Context, calendarIDs []string) ([]models.GCalEvent, error) {
	in := struct {
		CalendarIDs []string `json:"calendarIds"`
	}{CalendarIDs: calendarIDs}
	var out []models.GCalEvent
	if err := c.do(ctx, http.MethodPost, "/google/calendar/events/bulk", nil, in, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Unauthorize(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/google/unauthorize", nil, nil, nil)
}
