package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/cmucal/internal/api"
	"github.com/julianstephens/cmucal/internal/backup"
	"github.com/julianstephens/cmucal/internal/config"
	"github.com/julianstephens/cmucal/internal/constants"
	apperrors "github.com/julianstephens/cmucal/internal/errors"
	"github.com/julianstephens/cmucal/internal/ics"
	"github.com/julianstephens/cmucal/internal/keyring"
	"github.com/julianstephens/cmucal/internal/logger"
	"github.com/julianstephens/cmucal/internal/models"
	"github.com/julianstephens/cmucal/internal/notifier"
	"github.com/julianstephens/cmucal/internal/session"
	"github.com/julianstephens/cmucal/internal/storage"
)

// Backend is the full CMUCal API surface used by the commands.
type Backend interface {
	session.Backend
	ListSchedules(ctx context.Context) ([]models.ScheduleSummary, error)
	CreateSchedule(ctx context.Context, name string) (int64, error)
	GetClubOrganizations(ctx context.Context) ([]models.ClubOrganization, error)
	GetCourseOrgs(ctx context.Context) ([]models.CourseOption, error)
	FetchAllTags(ctx context.Context) ([]models.Tag, error)
	ExploreOccurrences(ctx context.Context, q api.OccurrenceQuery) ([]models.Occurrence, error)
	Unauthorize(ctx context.Context) error

	GetOrganizationData(ctx context.Context, userID string, orgID int64) (models.Organization, error)
	GetEvent(ctx context.Context, eventID int64) (models.Occurrence, error)
	FetchTagsForEvent(ctx context.Context, eventID int64) ([]models.Tag, error)

	CreateEvent(ctx context.Context, in models.EventPayload) error
	ReadICalLink(ctx context.Context, in models.ICalLinkPayload) (models.ICalLinkResult, error)
	GetAdminsInOrg(ctx context.Context, orgID int64) ([]models.OrgAdmin, error)
}

var _ Backend = (*api.Client)(nil)

type Context struct {
	Base       context.Context
	Config     *config.Config
	ConfigPath string
	Store      storage.Provider
	Backend    Backend
	UserID     string
	Notifier   notifier.Notifier
	Out        io.Writer
	// Now defaults to time.Now.
	Now func() time.Time

	session *session.Session
}

// ResolveUserID picks the Clerk user id: environment, then OS keyring,
// then the config file.
func ResolveUserID(cfg *config.Config) string {
	if v := os.Getenv(constants.EnvUserID); v != "" {
		return v
	}
	if v, err := keyring.GetUserID(); err == nil && v != "" {
		return v
	}
	return cfg.UserID
}

// ResolveStorage picks the storage target: environment, then the OS keyring
// when the config names it, then the config file.
func ResolveStorage(cfg *config.Config) (string, error) {
	if v := os.Getenv(constants.EnvDBConnection); v != "" {
		return v, nil
	}
	if cfg.Storage != constants.KeyringStorage {
		return cfg.Storage, nil
	}
	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", errors.New("storage is set to keyring but no connection string is stored. Use 'cmucal keyring set'")
		}
		return "", err
	}
	return connStr, nil
}

// NewNotifier prints notices to stderr and, when configured, forwards them
// to the notification webhook.
func NewNotifier(cfg *config.Config) notifier.Notifier {
	var n notifier.Multi
	n = append(n, notifier.NewConsole())
	if cfg.Notify.WebhookURL != "" {
		n = append(n, notifier.NewWebhook(cfg.Notify.WebhookURL, cfg.Notify.WebhookSecret))
	}
	return n
}

func (c *Context) Ctx() context.Context {
	if c.Base == nil {
		return context.Background()
	}
	return c.Base
}

func (c *Context) Printf(format string, args ...any) {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, format, args...)
}

func (c *Context) Println(args ...any) {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintln(out, args...)
}

// Session builds the session once. It does not fetch anything.
func (c *Context) Session() (*session.Session, error) {
	if c.session != nil {
		return c.session, nil
	}
	if c.UserID == "" {
		return nil, apperrors.ErrNotAuthenticated
	}
	if c.Backend == nil {
		return nil, errors.New("no backend configured")
	}
	loc, err := c.Config.Location()
	if err != nil {
		return nil, err
	}

	var importer session.Importer
	if len(c.Config.ICS) > 0 {
		importer = ics.NewImporter(ics.NewFetcher(nil, c.Store), c.Config.ICS)
	}

	s, err := session.New(session.Options{
		Backend:           c.Backend,
		UserID:            c.UserID,
		Store:             c.Store,
		Notifier:          c.Notifier,
		ICS:               importer,
		GoogleCalendarIDs: c.Config.Google.CalendarIDs,
		CMUCalCalendarIDs: c.Config.Google.CMUCalCalendarIDs,
		Location:          loc,
		HorizonDays:       c.Config.HorizonDays,
		Now:               c.Now,
	})
	if err != nil {
		return nil, err
	}
	c.session = s
	return s, nil
}

// LoadSession builds the session and loads the remembered schedule and the
// saved set. Imported calendars are loaded only when withImports is set;
// their failures are reported but not fatal.
func (c *Context) LoadSession(withImports bool) (*session.Session, error) {
	s, err := c.Session()
	if err != nil {
		return nil, err
	}
	if err := s.Load(c.Ctx(), c.Config.Schedule, withImports); err != nil {
		if !errors.Is(err, session.ErrImports) {
			return nil, err
		}
		logger.Warn("Some imported calendars failed to load", "error", err)
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	return s, nil
}

// RememberSchedule persists the selected schedule id in the config file.
func (c *Context) RememberSchedule(id string) error {
	c.Config.Schedule = id
	return c.SaveConfig()
}

func (c *Context) SaveConfig() error {
	if c.ConfigPath == "" {
		return nil
	}
	return config.Save(c.ConfigPath, c.Config)
}

// BackupDir is the snapshot directory next to the config file.
func (c *Context) BackupDir() string {
	dir := config.ExpandHome(constants.DefaultConfigDir)
	if c.ConfigPath != "" {
		dir = filepath.Dir(config.ExpandHome(c.ConfigPath))
	}
	return filepath.Join(dir, constants.BackupDirName)
}

// PerformAutomaticBackup snapshots the store when the newest snapshot is
// older than a day. Failures are logged only.
func (c *Context) PerformAutomaticBackup() {
	mgr := backup.NewManager(c.BackupDir()).WithClock(c.Now)
	infos, err := mgr.List()
	if err != nil {
		logger.Warn("Failed to list backups", "error", err)
		return
	}
	if len(infos) > 0 && c.now().Sub(infos[0].CreatedAt) < constants.AutoBackupInterval {
		return
	}
	info, err := mgr.Create(c.Store)
	if err != nil {
		logger.Warn("Automatic backup failed", "error", err)
		return
	}
	logger.Debug("Automatic backup created", "path", info.Path)
}

func (c *Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Context) Close() {
	if c.session != nil {
		c.session.Close()
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			logger.Warn("Failed to close storage", "error", err)
		}
	}
}

// FormatEventTime renders the start-end range of a display event in loc.
func FormatEventTime(ev models.Event, loc *time.Location) string {
	if ev.AllDay {
		return "all day"
	}
	start, err := ev.StartTime()
	if err != nil {
		return ev.Start
	}
	end, err := ev.EndTime()
	if err != nil {
		return start.In(loc).Format(constants.TimeFormat)
	}
	return start.In(loc).Format(constants.TimeFormat) + "-" + end.In(loc).Format(constants.TimeFormat)
}

// ParseIDs parses a comma separated list of numeric ids.
func ParseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id: %s", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
