package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/models"
)

func (c *Client) SavedEventIDs(ctx context.Context, userID string) ([]int64, error) {
	q := url.Values{}
	q.Set("user_id", userID)
	var out []int64
	if err := c.do(ctx, http.MethodGet, "/users/user_saved_events", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type userEvent struct {
	UserID  string `json:"user_id"`
	EventID int64  `json:"event_id"`
}

func (c *Client) AddEventToUser(ctx context.Context, userID string, eventID int64) error {
	return c.do(ctx, http.MethodPost, "/users/add_event", nil, userEvent{UserID: userID, EventID: eventID}, nil)
}

func (c *Client) RemoveEventFromUser(ctx context.Context, userID string, eventID int64) error {
	return c.do(ctx, http.MethodPost, "/users/remove_event", nil, userEvent{UserID: userID, EventID: eventID}, nil)
}

func (c *Client) GetEvent(ctx context.Context, eventID int64) (models.Occurrence, error) {
	q := url.Values{}
	q.Set("user_id", c.userID)
	var out models.Occurrence
	if err := c.do(ctx, http.MethodGet, "/events/"+strconv.FormatInt(eventID, 10), q, nil, &out); err != nil {
		return models.Occurrence{}, err
	}
	return out, nil
}

func (c *Client) FetchAllTags(ctx context.Context) ([]models.Tag, error) {
	var out []models.Tag
	if err := c.do(ctx, http.MethodGet, "/tags", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchTagsForEvent(ctx context.Context, eventID int64) ([]models.Tag, error) {
	var out []models.Tag
	if err := c.do(ctx, http.MethodGet, "/tags/"+strconv.FormatInt(eventID, 10), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OccurrenceQuery filters the explore listing.
type OccurrenceQuery struct {
	Term   string
	TagIDs []int64
	Date   *time.Time
	Limit  int
	Offset int
}

func (q OccurrenceQuery) values() url.Values {
	v := url.Values{}
	v.Set("term", q.Term)
	tags := make([]string, 0, len(q.TagIDs))
	for _, id := range q.TagIDs {
		tags = append(tags, strconv.FormatInt(id, 10))
	}
	v.Set("tags", strings.Join(tags, ","))
	if q.Date != nil {
		v.Set("date", q.Date.Format(constants.DateFormat))
	}
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("offset", strconv.Itoa(q.Offset))
	return v
}

func (c *Client) ExploreOccurrences(ctx context.Context, q OccurrenceQuery) ([]models.Occurrence, error) {
	var out []models.Occurrence
	if err := c.do(ctx, http.MethodGet, "/events/occurrences", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
