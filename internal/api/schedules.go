package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/samber/mo"

	"github.com/julianstephens/cmucal/internal/models"
)

// GetSchedule returns the organizations of scheduleID, or of the user's
// default schedule when it is absent.
func (c *Client) GetSchedule(ctx context.Context, userID string, scheduleID mo.Option[string]) (models.ScheduleData, error) {
	q := url.Values{}
	q.Set("user_id", userID)
	if id, ok := scheduleID.Get(); ok {
		q.Set("schedule_id", id)
	}
	var data models.ScheduleData
	if err := c.do(ctx, http.MethodGet, "/schedules", q, nil, &data); err != nil {
		return models.ScheduleData{}, err
	}
	return data, nil
}

func (c *Client) ListSchedules(ctx context.Context) ([]models.ScheduleSummary, error) {
	q := url.Values{}
	q.Set("user_id", c.userID)
	var out []models.ScheduleSummary
	if err := c.do(ctx, http.MethodGet, "/users/schedules", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateSchedule(ctx context.Context, name string) (int64, error) {
	in := map[string]string{"user_id": c.userID, "name": name}
	var out struct {
		ScheduleID int64 `json:"schedule_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/users/create_schedule", nil, in, &out); err != nil {
		return 0, err
	}
	return out.ScheduleID, nil
}

func (c *Client) RemoveCategoryFromSchedule(ctx context.Context, categoryID int64, userID string) error {
	q := url.Values{}
	q.Set("user_id", userID)
	return c.do(ctx, http.MethodDelete, "/schedules/categories/"+strconv.FormatInt(categoryID, 10), q, nil, nil)
}

type scheduleOrg struct {
	ScheduleID int64 `json:"schedule_id"`
	OrgID      int64 `json:"org_id"`
}

func (c *Client) AddOrgToSchedule(ctx context.Context, scheduleID string, orgID int64) error {
	in, err := newScheduleOrg(scheduleID, orgID)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/users/add_org_to_schedule", nil, in, nil)
}

func (c *Client) RemoveOrgFromSchedule(ctx context.Context, scheduleID string, orgID int64) error {
	in, err := newScheduleOrg(scheduleID, orgID)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/users/remove_org_from_schedule", nil, in, nil)
}

func newScheduleOrg(scheduleID string, orgID int64) (scheduleOrg, error) {
	id, err := strconv.ParseInt(scheduleID, 10, 64)
	if err != nil {
		return scheduleOrg{}, fmt.Errorf("invalid schedule id %q", scheduleID)
	}
	return scheduleOrg{ScheduleID: id, OrgID: orgID}, nil
}
