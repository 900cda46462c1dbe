package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/julianstephens/cmucal/internal/models"
)

func (c *Client) GetOrganizationData(ctx context.Context, userID string, orgID int64) (models.Organization, error) {
	q := url.Values{}
	q.Set("user_id", userID)
	var org models.Organization
	if err := c.do(ctx, http.MethodGet, "/organizations/"+strconv.FormatInt(orgID, 10), q, nil, &org); err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

func (c *Client) GetClubOrganizations(ctx context.Context) ([]models.ClubOrganization, error) {
	var out []models.ClubOrganization
	if err := c.do(ctx, http.MethodGet, "/organizations/get_club_orgs", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCourseOrgs(ctx context.Context) ([]models.CourseOption, error) {
	var out []models.CourseOption
	if err := c.do(ctx, http.MethodGet, "/organizations/get_course_orgs", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
