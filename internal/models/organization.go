package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Category is a named grouping of occurrences within an Organization and the
// unit of show/hide toggling.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Organization is a course or club that owns categories and their occurrences.
type Organization struct {
	OrgID       int64                   `json:"org_id"`
	Name        string                  `json:"name"`
	Type        string                  `json:"type"`
	Description string                  `json:"description,omitempty"`
	Categories  []Category              `json:"categories"`
	Events      map[string][]Occurrence `json:"events"` // category name -> occurrences
}

// Validate checks that every occurrence group belongs to a declared category.
func (o Organization) Validate() error {
	names := make(map[string]struct{}, len(o.Categories))
	for _, c := range o.Categories {
		names[c.Name] = struct{}{}
	}
	for name := range o.Events {
		if _, ok := names[name]; !ok {
			return fmt.Errorf("organization %d: events reference unknown category %q", o.OrgID, name)
		}
	}
	return nil
}

// CategoryIDs returns the ids of all categories of the organization.
func (o Organization) CategoryIDs() []int64 {
	ids := make([]int64, 0, len(o.Categories))
	for _, c := range o.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// Category returns the category with id.
func (o Organization) Category(id int64) (Category, bool) {
	for _, c := range o.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// ScheduleData is the payload of a schedule fetch.
type ScheduleData struct {
	Courses    []Organization `json:"courses"`
	Clubs      []Organization `json:"clubs"`
	ScheduleID string         `json:"schedule_id"`
}

// UnmarshalJSON accepts schedule_id as a JSON number or a string.
func (d *ScheduleData) UnmarshalJSON(b []byte) error {
	type plain ScheduleData
	aux := struct {
		*plain
		ScheduleID json.RawMessage `json:"schedule_id"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	raw := bytes.TrimSpace(aux.ScheduleID)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		d.ScheduleID = ""
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &d.ScheduleID); err != nil {
			return fmt.Errorf("invalid schedule_id: %w", err)
		}
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("invalid schedule_id: %w", err)
		}
		d.ScheduleID = n.String()
	}
	return nil
}

// AllCategoryIDs returns the category ids of every course and club.
func (d ScheduleData) AllCategoryIDs() []int64 {
	var ids []int64
	for _, o := range d.Courses {
		ids = append(ids, o.CategoryIDs()...)
	}
	for _, o := range d.Clubs {
		ids = append(ids, o.CategoryIDs()...)
	}
	return ids
}

// ClubOrganization is an entry of the club directory.
type ClubOrganization struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CourseOption is an entry of the course directory.
type CourseOption struct {
	ID     string `json:"id"`
	Number string `json:"number"`
	Title  string `json:"title"`
	Label  string `json:"label"`
}

// Tag labels backend events.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ScheduleSummary is an entry of the user's schedule list.
type ScheduleSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
