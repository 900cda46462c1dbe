// Package session assembles the reconciliation engine for one signed-in
// user: schedule selection, visibility, the saved-event ledger, optimistic
// overrides and the imported calendars.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/julianstephens/cmucal/internal/calendar"
	"github.com/julianstephens/cmucal/internal/constants"
	apperrors "github.com/julianstephens/cmucal/internal/errors"
	"github.com/julianstephens/cmucal/internal/ics"
	"github.com/julianstephens/cmucal/internal/ledger"
	"github.com/julianstephens/cmucal/internal/logger"
	"github.com/julianstephens/cmucal/internal/models"
	"github.com/julianstephens/cmucal/internal/notifier"
	"github.com/julianstephens/cmucal/internal/schedule"
	"github.com/julianstephens/cmucal/internal/storage"
	"github.com/julianstephens/cmucal/internal/utils"
	"github.com/julianstephens/cmucal/internal/visibility"
)

// Google is the slice of the backend that proxies Google Calendar.
type Google interface {
	CheckAuthStatus(ctx context.Context) (models.AuthStatus, error)
	ListCalendars(ctx context.Context) ([]models.Calendar, error)
	FetchBulkEventsFromCalendars(ctx context.Context, calendarIDs []string) ([]models.GCalEvent, error)
}

// Backend is everything the session needs from the CMUCal API.
type Backend interface {
	schedule.Backend
	ledger.Backend
	Google
}

// Importer produces imported events for a time window.
type Importer interface {
	Import(ctx context.Context, w ics.Window) ([]models.Event, error)
}

type Options struct {
	Backend  Backend
	UserID   string
	Store    storage.KeyValue
	Notifier notifier.Notifier
	// ICS is optional.
	ICS Importer

	GoogleCalendarIDs []string
	CMUCalCalendarIDs []string

	Location    *time.Location
	HorizonDays int
	// Now defaults to time.Now.
	Now func() time.Time
}

// Session is the single context object handed to the CLI and the TUI.
type Session struct {
	Schedule   *schedule.Controller
	Visibility *visibility.Store
	Ledger     *ledger.Ledger
	Overrides  *calendar.Overrides

	backend Backend
	ics     Importer
	opts    Options

	mu       sync.RWMutex
	imported map[string][]models.Event
}

func New(opts Options) (*Session, error) {
	if opts.Backend == nil {
		return nil, errors.New("session: backend is required")
	}
	if opts.UserID == "" {
		return nil, apperrors.ErrNotAuthenticated
	}
	if opts.Store == nil {
		opts.Store = storage.NewMemoryStore()
	}
	if opts.Notifier == nil {
		opts.Notifier = notifier.NewConsole()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = constants.DefaultHorizonDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	vis := visibility.Open(opts.Store)
	return &Session{
		Schedule:   schedule.NewController(opts.Backend, opts.UserID, vis, opts.Notifier),
		Visibility: vis,
		Ledger:     ledger.New(opts.Backend, opts.UserID, opts.Notifier),
		Overrides:  calendar.NewOverrides(),
		backend:    opts.Backend,
		ics:        opts.ICS,
		opts:       opts,
		imported:   make(map[string][]models.Event),
	}, nil
}

// ErrImports marks a Load whose schedule and saved set loaded but at least
// one imported calendar did not.
var ErrImports = errors.New("some imported calendars failed to load")

// Load selects scheduleID (the default schedule when empty) and fetches the
// saved set. Schedule and ledger failures are returned as is. With
// withImports set every imported source is fetched too; their failures are
// wrapped in ErrImports and leave the rest of the session usable.
func (s *Session) Load(ctx context.Context, scheduleID string, withImports bool) error {
	var err error
	if scheduleID == "" {
		err = s.Schedule.Start(ctx)
	} else {
		err = s.Schedule.Switch(ctx, scheduleID)
	}
	if err != nil {
		return err
	}
	if err := s.Ledger.Sync(ctx); err != nil {
		return err
	}
	if !withImports {
		return nil
	}
	if err := s.SyncImports(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrImports, err)
	}
	return nil
}

// SyncImports refreshes Google and ICS sources. An unconnected Google
// account is not an error.
func (s *Session) SyncImports(ctx context.Context) error {
	var errs []error
	if _, err := s.SyncGoogle(ctx); err != nil && !errors.Is(err, apperrors.ErrGoogleNotConnected) {
		errs = append(errs, err)
	}
	if _, err := s.SyncICS(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SyncGoogle replaces the Google layer of the imported events. With no
// configured calendar ids every calendar in the user's list is imported.
func (s *Session) SyncGoogle(ctx context.Context) (int, error) {
	status, err := s.backend.CheckAuthStatus(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to check google status: %w", err)
	}
	if !status.Authorized {
		s.setImported(constants.CalSourceGCal, nil)
		return 0, apperrors.ErrGoogleNotConnected
	}

	ids := s.opts.GoogleCalendarIDs
	if len(ids) == 0 {
		cals, err := s.backend.ListCalendars(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to list google calendars: %w", err)
		}
		for _, c := range cals {
			ids = append(ids, c.ID)
		}
	}
	if len(ids) == 0 {
		s.setImported(constants.CalSourceGCal, nil)
		return 0, nil
	}

	raw, err := s.backend.FetchBulkEventsFromCalendars(ctx, ids)
	if err != nil {
		logger.Error("Failed to import google events", "calendars", len(ids), "error", err)
		return 0, fmt.Errorf("failed to import google events: %w", err)
	}
	events := calendar.FormatGCalEvents(raw, s.opts.CMUCalCalendarIDs)
	s.setImported(constants.CalSourceGCal, events)
	logger.Debug("Google events imported", "calendars", len(ids), "events", len(events))
	return len(events), nil
}

// SyncICS replaces the ICS layer. Feeds that fail keep nothing; the rest
// are applied.
func (s *Session) SyncICS(ctx context.Context) (int, error) {
	if s.ics == nil {
		return 0, nil
	}
	from, to := s.Window()
	events, err := s.ics.Import(ctx, ics.Window{From: from, To: to, Loc: s.opts.Location})
	s.setImported(constants.CalSourceICS, events)
	return len(events), err
}

// Window is the agenda horizon starting today.
func (s *Session) Window() (time.Time, time.Time) {
	return utils.Horizon(s.opts.Now(), s.opts.HorizonDays, s.opts.Location)
}

func (s *Session) Location() *time.Location { return s.opts.Location }

func (s *Session) setImported(source string, events []models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imported[source] = slices.Clone(events)
}

// Imported returns the imported layer: Google first, then ICS.
func (s *Session) Imported() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Event
	out = append(out, s.imported[constants.CalSourceGCal]...)
	out = append(out, s.imported[constants.CalSourceICS]...)
	return out
}

// OrganizationEvents projects the active schedule through visibility and
// the ledger.
func (s *Session) OrganizationEvents() []models.Event {
	return calendar.OrganizationEvents(s.Schedule.Courses(), s.Schedule.Clubs(), s.Schedule.VisibleCategories(), s.Ledger)
}

// CalendarEvents is the reconciled display list.
func (s *Session) CalendarEvents() []models.Event {
	return calendar.Merge(s.Imported(), s.OrganizationEvents(), s.Overrides)
}

// Agenda groups the reconciled events inside the horizon by day.
func (s *Session) Agenda() []calendar.Day {
	from, to := s.Window()
	return calendar.Agenda(s.CalendarEvents(), from, to, s.opts.Location)
}

// occurrences returns every display event of eventID in the active
// schedule regardless of visibility.
func (s *Session) occurrences(eventID int64) []models.Event {
	all := visibility.NewSet()
	for _, org := range slices.Concat(s.Schedule.Courses(), s.Schedule.Clubs()) {
		for _, id := range org.CategoryIDs() {
			all[id] = struct{}{}
		}
	}
	var out []models.Event
	for _, ev := range calendar.OrganizationEvents(s.Schedule.Courses(), s.Schedule.Clubs(), all, s.Ledger) {
		if ev.ExtendedProps.EventID == eventID {
			out = append(out, ev)
		}
	}
	return out
}

// ToggleSaved saves or unsaves eventID. Displayed occurrences are overridden
// immediately; the overrides settle with the ledger mutation.
func (s *Session) ToggleSaved(ctx context.Context, eventID int64) (ledger.Mutation, error) {
	for _, m := range s.Ledger.Pending() {
		if m.EventID == eventID {
			return ledger.Mutation{}, fmt.Errorf("event %d has a pending change", eventID)
		}
	}

	occs := s.occurrences(eventID)
	title := ""
	if len(occs) > 0 {
		title = occs[0].Title
	}

	saving := !s.Ledger.IsSaved(eventID)
	visible := s.Schedule.VisibleCategories()
	var keys []string
	for _, ev := range occs {
		shown := visible.Contains(ev.ExtendedProps.CategoryID)
		if !saving && !shown {
			continue
		}
		ev.ExtendedProps.IsSaved = saving
		ev.ExtendedProps.CategoryHidden = saving && !shown
		keys = append(keys, s.Overrides.Put(ev).Key)
	}

	m, err := s.Ledger.Toggle(ctx, eventID, title)
	for _, key := range keys {
		if err != nil {
			s.Overrides.Revert(key)
		} else {
			s.Overrides.Confirm(key)
		}
	}
	return m, err
}

func (s *Session) Close() {
	s.Schedule.Close()
}
