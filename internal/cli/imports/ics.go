package imports

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/julianstephens/cmucal/internal/calendar"
	"github.com/julianstephens/cmucal/internal/cli"
	"github.com/julianstephens/cmucal/internal/config"
	"github.com/julianstephens/cmucal/internal/ics"
	"github.com/julianstephens/cmucal/internal/logger"
	"github.com/julianstephens/cmucal/internal/models"
	"github.com/julianstephens/cmucal/internal/storage"
	"github.com/julianstephens/cmucal/internal/utils"
)

type ICSListCmd struct{}

func (c *ICSListCmd) Run(ctx *cli.Context) error {
	if len(ctx.Config.ICS) == 0 {
		ctx.Println("No ICS feeds configured. Add one with 'cmucal ics add <url>'.")
		return nil
	}
	for _, f := range ctx.Config.ICS {
		ctx.Printf("%-12s %-24s %s\n", f.ID, f.Name, f.URL)
	}
	return nil
}

type ICSAddCmd struct {
	URL  string `arg:"" help:"Feed URL (http, https or webcal)."`
	Name string `help:"Display name used as the organization of imported events."`
	ID   string `help:"Feed id. Generated when omitted."`
}

func (c *ICSAddCmd) Run(ctx *cli.Context) error {
	url := strings.TrimSpace(c.URL)
	if strings.HasPrefix(url, "webcal://") {
		url = "https://" + strings.TrimPrefix(url, "webcal://")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("feed url must start with http://, https:// or webcal://")
	}

	feed := config.ICSConfig{ID: c.ID, Name: c.Name, URL: url}
	if feed.ID == "" {
		feed.ID = nextFeedID(ctx.Config.ICS)
	}
	if feed.Name == "" {
		feed.Name = feed.ID
	}

	ctx.Config.ICS = append(ctx.Config.ICS, feed)
	if err := ctx.Config.Validate(); err != nil {
		ctx.Config.ICS = ctx.Config.ICS[:len(ctx.Config.ICS)-1]
		return err
	}
	if err := ctx.SaveConfig(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	ctx.Printf("✓ Added ICS feed %s\n", feed.ID)
	return nil
}

func nextFeedID(feeds []config.ICSConfig) string {
	for i := len(feeds) + 1; ; i++ {
		id := fmt.Sprintf("ics-%d", i)
		if !slices.ContainsFunc(feeds, func(f config.ICSConfig) bool { return f.ID == id }) {
			return id
		}
	}
}

type ICSRemoveCmd struct {
	ID string `arg:"" help:"Feed id to remove."`
}

func (c *ICSRemoveCmd) Run(ctx *cli.Context) error {
	idx := slices.IndexFunc(ctx.Config.ICS, func(f config.ICSConfig) bool { return f.ID == c.ID })
	if idx < 0 {
		return fmt.Errorf("no ICS feed with id %q", c.ID)
	}
	ctx.Config.ICS = slices.Delete(ctx.Config.ICS, idx, idx+1)
	if err := ctx.SaveConfig(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	if err := ctx.Store.RemoveItem(ics.CacheKey(c.ID)); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.Warn("failed to drop ICS cache", "id", c.ID, "error", err)
	}
	ctx.Printf("✓ Removed ICS feed %s\n", c.ID)
	return nil
}

// ICSImportCmd fetches feeds and prints the events they contribute to the
// agenda window.
type ICSImportCmd struct {
	IDs  []string `arg:"" optional:"" help:"Feed ids to import. Defaults to every configured feed."`
	File string   `type:"existingfile" help:"Read a local .ics file instead of the configured feeds."`
	Days int      `help:"Number of days to expand. Defaults to the configured horizon."`
}

func (c *ICSImportCmd) Run(ctx *cli.Context) error {
	loc, err := ctx.Config.Location()
	if err != nil {
		return err
	}
	days := ctx.Config.HorizonDays
	if c.Days > 0 {
		days = c.Days
	}
	now := time.Now
	if ctx.Now != nil {
		now = ctx.Now
	}
	from, to := utils.Horizon(now(), days, loc)
	w := ics.Window{From: from, To: to, Loc: loc}

	var events []models.Event
	var importErr error
	if c.File != "" {
		events, err = importFile(c.File, w)
		if err != nil {
			return err
		}
	} else {
		feeds, err := c.selectFeeds(ctx.Config.ICS)
		if err != nil {
			return err
		}
		imp := ics.NewImporter(ics.NewFetcher(nil, ctx.Store), feeds)
		events, importErr = imp.Import(ctx.Ctx(), w)
		if importErr != nil && len(events) == 0 {
			return importErr
		}
	}

	agenda := calendar.Agenda(events, from, to, loc)
	if len(agenda) == 0 {
		ctx.Println("No events in range.")
	}
	for _, day := range agenda {
		ctx.Println(day.Date)
		for _, ev := range day.Events {
			ctx.Printf("  %-11s  %s  · %s\n", cli.FormatEventTime(ev, loc), ev.Title, ev.ExtendedProps.OrgName)
		}
	}
	ctx.Printf("\n✓ %d event(s) imported\n", len(events))
	return importErr
}

func (c *ICSImportCmd) selectFeeds(all []config.ICSConfig) ([]config.ICSConfig, error) {
	if len(all) == 0 {
		return nil, errors.New("no ICS feeds configured")
	}
	if len(c.IDs) == 0 {
		return all, nil
	}
	var out []config.ICSConfig
	for _, id := range c.IDs {
		idx := slices.IndexFunc(all, func(f config.ICSConfig) bool { return f.ID == id })
		if idx < 0 {
			return nil, fmt.Errorf("no ICS feed with id %q", id)
		}
		out = append(out, all[idx])
	}
	return out, nil
}

func importFile(path string, w ics.Window) ([]models.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := ics.Parse(f, w.Loc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	src := ics.Source{ID: "file", Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}
	return ics.Expand(src, entries, w)
}
