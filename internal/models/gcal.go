package models

// GCalEvent is the raw shape returned by the Google Calendar bulk import.
// It lacks a stable numeric id.
type GCalEvent struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end"`
	AllDay      bool   `json:"allDay,omitempty"`
	CalendarID  string `json:"calendarId"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
	GCalEventID string `json:"gcalEventId,omitempty"`
}

// Calendar is an entry of the user's Google calendar list.
type Calendar struct {
	ID              string `json:"id"`
	Summary         string `json:"summary"`
	Description     string `json:"description,omitempty"`
	TimeZone        string `json:"timeZone"`
	Primary         bool   `json:"primary,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	Selected        bool   `json:"selected,omitempty"`
	AccessRole      string `json:"accessRole,omitempty"`
}

// AuthStatus reports whether the backend holds Google credentials for the user.
type AuthStatus struct {
	Authorized bool `json:"authorized"`
}
