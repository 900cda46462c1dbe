package models

// EventPayload creates a one-off event in an organization category.
type EventPayload struct {
	Title                string   `json:"title"`
	Description          string   `json:"description,omitempty"`
	Start                string   `json:"start_datetime,omitempty"`
	End                  string   `json:"end_datetime,omitempty"`
	AllDay               bool     `json:"is_all_day"`
	Location             string   `json:"location"`
	SourceURL            string   `json:"source_url,omitempty"`
	EventType            string   `json:"event_type"`
	CategoryID           int64    `json:"category_id"`
	OrgID                string   `json:"org_id"`
	ClerkID              string   `json:"clerk_id"`
	Tags                 []string `json:"event_tags,omitempty"`
	Host                 string   `json:"host,omitempty"`
	Link                 string   `json:"link,omitempty"`
	RegistrationRequired bool     `json:"registration_required,omitempty"`
	Recurrence           string   `json:"recurrence,omitempty"`
}

// ICalLinkPayload imports every event of a public Google Calendar feed into
// an organization category.
type ICalLinkPayload struct {
	Link       string `json:"gcal_link"`
	OrgID      string `json:"org_id"`
	CategoryID string `json:"category_id"`
	ClerkID    string `json:"clerk_id"`
}

// ICalLinkResult is the backend reply to an iCal link upload.
type ICalLinkResult struct {
	Message          string `json:"message"`
	CalendarSourceID int64  `json:"calendar_source_id"`
}

// OrgAdmin is a member with a management role in an organization.
type OrgAdmin struct {
	AndrewID string `json:"andrew_id"`
	Role     string `json:"role"`
}
