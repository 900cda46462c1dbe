package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/cmucal/internal/backup"
	"github.com/julianstephens/cmucal/internal/cli"
	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/keyring"
	"github.com/julianstephens/cmucal/internal/storage"
	"github.com/julianstephens/cmucal/internal/visibility"
)

type DoctorCmd struct {
	Offline bool `help:"Skip the checks that call the CMUCal API."`
}

type checkResult int

const (
	checkOK checkResult = iota
	checkFail
	checkWarn
	checkSkip
)

type doctor struct {
	ctx      *cli.Context
	hasError bool
}

func (d *doctor) report(name string, err error, onErr checkResult) {
	switch {
	case err == nil:
		d.ctx.Printf("✓ %s: OK\n", name)
	case onErr == checkWarn:
		d.ctx.Printf("⚠ %s: WARNING\n", name)
		d.ctx.Printf("   %v\n", err)
	default:
		d.ctx.Printf("❌ %s: FAIL\n", name)
		d.ctx.Printf("   Error: %v\n", err)
		d.hasError = true
	}
}

func (d *doctor) skip(name, reason string) {
	d.ctx.Printf("⊘ %s: SKIPPED (%s)\n", name, reason)
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	d := &doctor{ctx: ctx}

	d.report("Config valid", ctx.Config.Validate(), checkFail)

	dbErr := checkDBReachable(ctx)
	d.report("Storage reachable", dbErr, checkFail)

	if m, ok := ctx.Store.(storage.Migrator); ok && dbErr == nil {
		current, latest, err := m.SchemaVersion()
		if err == nil && current > latest {
			err = fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
		}
		d.report("Schema version", err, checkFail)
		if err == nil && current < latest {
			err = fmt.Errorf("migrations incomplete: current version %d, latest version %d. Run 'cmucal migrate'", current, latest)
		}
		d.report("Migrations complete", err, checkFail)
	} else if dbErr != nil {
		d.skip("Schema version", "storage not reachable")
		d.skip("Migrations complete", "storage not reachable")
	}

	if dbErr == nil {
		d.report("Visibility data", checkVisibility(ctx.Store), checkFail)
	} else {
		d.skip("Visibility data", "storage not reachable")
	}

	d.report("Backups present", checkBackupsPresent(ctx), checkWarn)
	d.report("Keyring available", checkKeyring(), checkWarn)

	if ctx.UserID == "" {
		d.report("Signed in", errors.New("no user id configured. Run 'cmucal login'"), checkFail)
	} else {
		d.report("Signed in", nil, checkFail)
	}

	switch {
	case cmd.Offline:
		d.skip("CMUCal API", "offline")
	case ctx.UserID == "" || ctx.Backend == nil:
		d.skip("CMUCal API", "not signed in")
	default:
		status, err := ctx.Backend.CheckAuthStatus(ctx.Ctx())
		d.report("CMUCal API", err, checkFail)
		if err == nil && !status.Authorized {
			d.report("Google Calendar", errors.New("not connected. Connect it from the CMUCal web app"), checkWarn)
		} else if err == nil {
			d.report("Google Calendar", nil, checkWarn)
		}
	}

	d.report("Clock/timezone", checkClockTimezone(ctx), checkFail)

	ctx.Println()
	if d.hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load storage: %w", err)
	}
	if m, ok := ctx.Store.(storage.Migrator); ok {
		if err := m.Ping(); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkVisibility(kv storage.KeyValue) error {
	raw, err := kv.GetItem(constants.VisibilityStorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := visibility.Decode(raw); err != nil {
		return fmt.Errorf("stored visibility map is corrupt: %w", err)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	backups, err := backup.NewManager(ctx.BackupDir()).List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'cmucal backup create'")
	}
	return nil
}

func checkKeyring() error {
	if !keyring.IsAvailable() {
		return errors.New("OS keyring is not available; secrets fall back to the config file")
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	if _, err := ctx.Config.Location(); err != nil {
		return err
	}
	now := time.Now()
	if ctx.Now != nil {
		now = ctx.Now()
	}
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}
