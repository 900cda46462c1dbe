package constants

import "time"

const (
	AppName            = "cmucal"
	DefaultKeyringUser = "database-connection"
	UserIDKeyringUser  = "clerk-user-id"
	DefaultConfigDir   = "~/.config/cmucal"
	DefaultConfigPath  = "~/.config/cmucal/config.yaml"
	DefaultStoragePath = "~/.config/cmucal/cmucal.db"
	// KeyringStorage as the storage target reads the connection string from
	// the OS keyring.
	KeyringStorage = "keyring"
	BackupDirName  = "backups"
	// AutoBackupInterval is the minimum age of the newest snapshot before
	// the TUI takes another one on startup.
	AutoBackupInterval = 24 * time.Hour
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// VisibilityStorageKey is the single durable-storage key holding the
	// serialized per-schedule visibility map.
	VisibilityStorageKey = "cmucal.visibility.v1"

	// DefaultScheduleKey is the visibility key used while no schedule is selected.
	DefaultScheduleKey = "default"

	// ClearedScheduleID is the reserved schedule id meaning "no schedule selected".
	ClearedScheduleID = "cleared"

	// Organization types
	OrgTypeCourse   = "COURSE"
	OrgTypeAcademic = "ACADEMIC"
	OrgTypeClub     = "CLUB"

	// Display colors
	CourseColor = "#f87171"
	ClubColor   = "#4ade80"

	// Calendar sources
	CalSourceCMUCal = "cmucal"
	CalSourceGCal   = "gcal"
	CalSourceICS    = "ics"

	// Class names attached to display events
	ClassCMUCalEvent = "cmucal-event"
	ClassGCalEvent   = "gcal-event"
	ClassICSEvent    = "ics-event"
	ClassCourseEvent = "temp-course-event"
	ClassClubEvent   = "temp-club-event"

	UntitledEvent = "Untitled Event"

	// Event types accepted by the event creation form
	EventTypeAcademic = "ACADEMIC"
	EventTypeCareer   = "CAREER"
	EventTypeClub     = "CLUB"

	// Recurrence kinds of created events
	RecurrenceOneTime = "ONETIME"

	// GoogleICalPrefix and GooglePublicICalSuffix bound the public Google
	// Calendar links accepted for category uploads.
	GoogleICalPrefix       = "https://calendar.google.com/calendar/ical/"
	GooglePublicICalSuffix = "public/basic.ics"

	// Explore paging
	ExplorePageSize = 30

	// HTTP
	UserIDHeader       = "Clerk-User-Id"
	DefaultAPIBaseURL  = "http://localhost:5001/api"
	DefaultHTTPTimeout = 15 // seconds

	// Notice webhooks
	WebhookSecretHeader    = "X-Cmucal-Secret"
	NotificationDurationMs = 5000
)
