package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/julianstephens/cmucal/internal/models"
)

// CreateEvent submits the event creation form. The backend checks that the
// caller manages the target organization.
func (c *Client) CreateEvent(ctx context.Context, in models.EventPayload) error {
	if in.ClerkID == "" {
		in.ClerkID = c.userID
	}
	return c.do(ctx, http.MethodPost, "/events/create_event/form", nil, in, nil)
}

// ReadICalLink asks the backend to import a public Google Calendar feed into
// a category.
func (c *Client) ReadICalLink(ctx context.Context, in models.ICalLinkPayload) (models.ICalLinkResult, error) {
	if in.ClerkID == "" {
		in.ClerkID = c.userID
	}
	var out models.ICalLinkResult
	if err := c.do(ctx, http.MethodPost, "/events/create_event/gcal", nil, in, &out); err != nil {
		return models.ICalLinkResult{}, err
	}
	return out, nil
}

func (c *Client) GetAdminsInOrg(ctx context.Context, orgID int64) ([]models.OrgAdmin, error) {
	q := url.Values{}
	q.Set("org_id", strconv.FormatInt(orgID, 10))
	var out []models.OrgAdmin
	if err := c.do(ctx, http.MethodGet, "/organizations/get_admins_in_org", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
