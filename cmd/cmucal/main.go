package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/cmucal/internal/api"
	"github.com/julianstephens/cmucal/internal/cli"
	"github.com/julianstephens/cmucal/internal/cli/backups"
	"github.com/julianstephens/cmucal/internal/cli/events"
	"github.com/julianstephens/cmucal/internal/cli/imports"
	"github.com/julianstephens/cmucal/internal/cli/schedules"
	"github.com/julianstephens/cmucal/internal/cli/settings"
	"github.com/julianstephens/cmucal/internal/cli/system"
	"github.com/julianstephens/cmucal/internal/config"
	"github.com/julianstephens/cmucal/internal/constants"
	apperrors "github.com/julianstephens/cmucal/internal/errors"
	"github.com/julianstephens/cmucal/internal/logger"
	"github.com/julianstephens/cmucal/internal/storage"
	"github.com/julianstephens/cmucal/internal/storage/backend"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path." type:"string" default:"${config_path}" env:"${config_env}"`
	Verbose bool   `short:"v" help:"Log at debug level and mirror the log to stderr."`

	Tui     system.TuiCmd     `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Agenda  events.AgendaCmd  `cmd:"" help:"Show the reconciled agenda."`
	Explore events.ExploreCmd `cmd:"" help:"Search upcoming CMUCal events."`
	Tags    events.TagsCmd    `cmd:"" help:"List event tags."`
	Save    events.SaveCmd    `cmd:"" help:"Save or unsave an event."`
	Saved   events.SavedCmd   `cmd:"" help:"List saved events."`

	Event struct {
		Show   events.EventShowCmd   `cmd:"" help:"Show an event with its tags."`
		Create events.EventCreateCmd `cmd:"" help:"Create an event in an organization you manage."`
	} `cmd:"" help:"Inspect and create CMUCal events."`

	Schedule struct {
		Show   schedules.ScheduleShowCmd   `cmd:"" help:"Show the selected schedule." default:"1"`
		List   schedules.ScheduleListCmd   `cmd:"" help:"List your schedules."`
		Select schedules.ScheduleSelectCmd `cmd:"" help:"Select a schedule."`
		Clear  schedules.ScheduleClearCmd  `cmd:"" help:"Clear the schedule selection."`
		Create schedules.ScheduleCreateCmd `cmd:"" help:"Create a schedule."`
	} `cmd:"" help:"Manage schedules."`
	Category struct {
		List    schedules.CategoryListCmd    `cmd:"" help:"List categories and their visibility." default:"1"`
		Toggle  schedules.CategoryToggleCmd  `cmd:"" help:"Show or hide categories."`
		ShowAll schedules.CategoryShowAllCmd `cmd:"" name:"show-all" help:"Show every category."`
		Remove  schedules.CategoryRemoveCmd  `cmd:"" help:"Remove a category from your schedule."`
	} `cmd:"" help:"Manage category visibility."`
	Org struct {
		List      schedules.OrgListCmd      `cmd:"" help:"List organizations on the schedule." default:"1"`
		Directory schedules.OrgDirectoryCmd `cmd:"" help:"Browse the course and club directory."`
		Add       schedules.OrgAddCmd       `cmd:"" help:"Add an organization to the schedule."`
		Remove    schedules.OrgRemoveCmd    `cmd:"" help:"Remove an organization from the schedule."`
		Show      schedules.OrgShowCmd      `cmd:"" help:"Show an organization's categories and events."`
		Admins    schedules.OrgAdminsCmd    `cmd:"" help:"List the managers of an organization."`
		ICalLink  schedules.OrgICalLinkCmd  `cmd:"" name:"ical-link" help:"Import a public Google Calendar into a category you manage."`
	} `cmd:"" help:"Manage schedule organizations."`

	GCal struct {
		Status     imports.GCalStatusCmd     `cmd:"" help:"Show Google Calendar connection status." default:"1"`
		Calendars  imports.GCalCalendarsCmd  `cmd:"" help:"List Google calendars."`
		Sync       imports.GCalSyncCmd       `cmd:"" help:"Import Google Calendar events."`
		Disconnect imports.GCalDisconnectCmd `cmd:"" help:"Disconnect Google Calendar."`
	} `cmd:"" name:"gcal" help:"Manage the Google Calendar import."`
	ICS struct {
		List   imports.ICSListCmd   `cmd:"" help:"List ICS feeds." default:"1"`
		Add    imports.ICSAddCmd    `cmd:"" help:"Subscribe to an ICS feed."`
		Remove imports.ICSRemoveCmd `cmd:"" help:"Unsubscribe from an ICS feed."`
		Import imports.ICSImportCmd `cmd:"" help:"Import events from ICS feeds or a file."`
	} `cmd:"" name:"ics" help:"Manage ICS feed imports."`

	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
	Backup   struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage local state backups."`

	Init    system.InitCmd    `cmd:"" help:"Initialize cmucal storage."`
	Login   system.LoginCmd   `cmd:"" help:"Sign in with your CMUCal user id."`
	Logout  system.LogoutCmd  `cmd:"" help:"Sign out."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Watch   system.WatchCmd   `cmd:"" help:"Refresh on a schedule and report failures."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store the database connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Delete the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Show keyring status." default:"1"`
	} `cmd:"" help:"Manage credentials in the OS keyring."`
	Debug  system.DebugCmd  `cmd:"" help:"Debug commands for troubleshooting."`
	Notify system.NotifyCmd `cmd:"" hidden:"" help:"Send a test notice."`
}

// commands that open storage themselves or never touch it
var skipLoad = map[string]bool{
	"init":    true,
	"doctor":  true,
	"keyring": true,
	"login":   true,
	"logout":  true,
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("CMUCal calendar companion: schedules, saved events and imported calendars"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":     constants.Version,
			"config_path": constants.DefaultConfigPath,
			"config_env":  constants.EnvConfigPath,
		},
	)
	command := strings.Fields(kctx.Command())[0]

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fail(fmt.Errorf("failed to load config: %w", err))
	}
	cfg.ApplyEnv()

	configDir := filepath.Dir(config.ExpandHome(CLI.Config))
	if err := logger.Init(logger.Config{
		Debug:     CLI.Verbose || cfg.Debug,
		ConfigDir: configDir,
		Quiet:     command == "tui",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	logger.Debug("Starting", "command", kctx.Command(), "config", CLI.Config)

	store, err := openStore(cfg, command)
	if err != nil {
		fail(err)
	}
	if !skipLoad[command] {
		if err := store.Load(); err != nil {
			fail(err)
		}
	}

	base, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userID := cli.ResolveUserID(cfg)
	appCtx := &cli.Context{
		Base:       base,
		Config:     cfg,
		ConfigPath: CLI.Config,
		Store:      store,
		Backend:    api.New(cfg.APIBaseURL, userID),
		UserID:     userID,
		Notifier:   cli.NewNotifier(cfg),
	}

	err = kctx.Run(appCtx)
	appCtx.Close()
	if err != nil {
		logger.Error("Command failed", "command", kctx.Command(), "error", err)
		fail(err)
	}
}

// openStore resolves the storage target. Commands that never touch storage
// fall back to an in-memory store when the target cannot be resolved.
func openStore(cfg *config.Config, command string) (storage.Provider, error) {
	target, err := cli.ResolveStorage(cfg)
	if err != nil {
		if command == "keyring" || command == "login" || command == "logout" {
			logger.Warn("Storage target unavailable", "error", err)
			return storage.NewMemoryStore(), nil
		}
		return nil, err
	}
	return backend.Open(config.ExpandHome(target))
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", apperrors.Friendly(err))
	os.Exit(1)
}
