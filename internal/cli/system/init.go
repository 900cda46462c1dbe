package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/cmucal/internal/cli"
	"github.com/julianstephens/cmucal/internal/config"
	"github.com/julianstephens/cmucal/internal/logger"
	"github.com/julianstephens/cmucal/internal/storage"
	"github.com/julianstephens/cmucal/internal/storage/backend"
)

type InitCmd struct {
	Force    bool   `help:"Force reset by deleting the existing database before initialization."`
	Source   string `help:"Storage target (file path or PostgreSQL URL) to copy existing data from."`
	APIURL   string `name:"api-url" help:"CMUCal API base URL."`
	UserID   string `name:"user-id" help:"Clerk user id to sign in with."`
	Timezone string `help:"IANA timezone used to display events."`
	NoPrompt bool   `help:"Do not prompt for missing values."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if !c.NoPrompt && c.APIURL == "" && c.UserID == "" && c.Timezone == "" {
		if err := c.prompt(ctx.Config); err != nil {
			return err
		}
	}
	if c.APIURL != "" {
		ctx.Config.APIBaseURL = strings.TrimRight(c.APIURL, "/")
	}
	if c.Timezone != "" {
		ctx.Config.Timezone = c.Timezone
	}
	ctx.Config.Normalize()
	if err := ctx.Config.Validate(); err != nil {
		return err
	}

	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized cmucal storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		ctx.Printf("Copying data from: %s\n", c.Source)
		n, err := copyStore(ctx.Store, c.Source)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		ctx.Printf("  Copied %d item(s)\n", n)
	}

	if c.UserID != "" {
		where, err := storeUserID(ctx, c.UserID)
		if err != nil {
			return err
		}
		ctx.Printf("✓ Signed in as %s (stored in %s)\n", c.UserID, where)
	}

	if err := ctx.SaveConfig(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	if ctx.ConfigPath != "" {
		ctx.Printf("Config written to: %s\n", config.ExpandHome(ctx.ConfigPath))
	}
	return nil
}

func (c *InitCmd) prompt(cfg *config.Config) error {
	c.APIURL = cfg.APIBaseURL
	c.Timezone = cfg.Timezone
	c.UserID = cfg.UserID

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("CMUCal API URL").
				Value(&c.APIURL).
				Validate(func(s string) error {
					if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
						return errors.New("must be an http(s) URL")
					}
					return nil
				}),
			huh.NewInput().
				Title("Clerk user id").
				Description("Shown on your CMUCal profile page. Leave empty to sign in later.").
				Value(&c.UserID),
			huh.NewInput().
				Title("Timezone").
				Description("IANA name such as America/New_York. Leave empty for the system zone.").
				Value(&c.Timezone),
		),
	)
	return form.Run()
}

// reset removes a file-backed database so Init starts from an empty schema.
func (c *InitCmd) reset(ctx *cli.Context) error {
	dbPath := ctx.Store.GetConfigPath()
	if backend.Detect(dbPath) == backend.KindPostgres || backend.Detect(dbPath) == backend.KindMemory {
		return fmt.Errorf("--force only supports file storage")
	}
	if c.Source != "" {
		absDB, err := filepath.Abs(dbPath)
		if err == nil {
			dbPath = absDB
		}
		absSource, err := filepath.Abs(config.ExpandHome(c.Source))
		if err == nil && absSource == dbPath {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
	}

	if _, err := os.Stat(dbPath); err == nil {
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing database: %w", err)
		}
		if err := os.Remove(dbPath); err != nil {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
		ctx.Printf("Deleted existing database at: %s\n", dbPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	return nil
}

// copyStore copies every key of the source target into dst.
func copyStore(dst storage.Provider, source string) (int, error) {
	src, err := backend.Open(config.ExpandHome(source))
	if err != nil {
		return 0, err
	}
	if err := src.Load(); err != nil {
		return 0, fmt.Errorf("failed to load source storage: %w", err)
	}
	defer src.Close()

	keys, err := src.Keys()
	if err != nil {
		return 0, fmt.Errorf("failed to list source keys: %w", err)
	}
	for _, k := range keys {
		v, err := src.GetItem(k)
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", k, err)
		}
		if err := dst.SetItem(k, v); err != nil {
			return 0, fmt.Errorf("failed to write %s: %w", k, err)
		}
	}
	logger.Info("Storage copied", "source", source, "keys", len(keys))
	return len(keys), nil
}
