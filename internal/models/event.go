package models

import (
	"strconv"
	"time"
)

// ExtendedProps carries the non-display attributes of a calendar event.
type ExtendedProps struct {
	Location       string `json:"location,omitempty"`
	Description    string `json:"description,omitempty"`
	SourceURL      string `json:"source_url,omitempty"`
	EventID        int64  `json:"event_id,omitempty"`    // canonical backend event id
	CategoryID     int64  `json:"category_id,omitempty"` // owning category, 0 for imported events
	OrgID          int64  `json:"org_id,omitempty"`
	OrgName        string `json:"org,omitempty"`
	IsSaved        bool   `json:"is_saved,omitempty"`
	CategoryHidden bool   `json:"category_hidden,omitempty"` // shown only because it is saved
	CalSource      string `json:"cal_source,omitempty"`      // cmucal, gcal or ics
	CalendarID     string `json:"calendar_id,omitempty"`
	GCalEventID    string `json:"gcal_event_id,omitempty"`
}

// Event is the display record handed to renderers. It is rebuilt from its
// upstream sources on every pass and never persisted.
type Event struct {
	ID              string        `json:"id"` // display key
	Title           string        `json:"title"`
	Start           string        `json:"start"`
	End             string        `json:"end"`
	AllDay          bool          `json:"allDay"`
	BackgroundColor string        `json:"backgroundColor,omitempty"`
	BorderColor     string        `json:"borderColor,omitempty"`
	ClassNames      []string      `json:"classNames,omitempty"`
	ExtendedProps   ExtendedProps `json:"extendedProps"`
}

// StartTime parses Start. All-day events carry bare dates.
func (e Event) StartTime() (time.Time, error) {
	return ParseEventTime(e.Start)
}

// EndTime parses End.
func (e Event) EndTime() (time.Time, error) {
	return ParseEventTime(e.End)
}

// ParseEventTime accepts the timestamp shapes the backend and Google emit.
func ParseEventTime(s string) (time.Time, error) {
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Occurrence is one concrete time-bounded instance of a backend event.
type Occurrence struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start_datetime"`
	End         string `json:"end_datetime"`
	Location    string `json:"location"`
	AllDay      bool   `json:"is_all_day"`
	SourceURL   string `json:"source_url,omitempty"`
	Recurrence  string `json:"recurrence,omitempty"`
	EventID     int64  `json:"event_id,omitempty"`
	OrgID       int64  `json:"org_id,omitempty"`
	CategoryID  int64  `json:"category_id,omitempty"`
	OrgName     string `json:"org,omitempty"`
}

// CanonicalEventID returns the backend identity of the parent event: the
// parent id for recurring occurrences, the occurrence id otherwise.
func (o Occurrence) CanonicalEventID() int64 {
	if o.EventID != 0 {
		return o.EventID
	}
	return o.ID
}

// DisplayID is the calendar display key of the occurrence.
func (o Occurrence) DisplayID() string {
	return strconv.FormatInt(o.ID, 10)
}
