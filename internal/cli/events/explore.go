package events

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/cmucal/internal/cli"
	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/explore"
	"github.com/julianstephens/cmucal/internal/ledger"
	"github.com/julianstephens/cmucal/internal/logger"
	"github.com/julianstephens/cmucal/internal/models"
	"github.com/julianstephens/cmucal/internal/utils"
)

type ExploreCmd struct {
	Term  string   `arg:"" optional:"" help:"Search term."`
	Tags  []string `help:"Tag names or ids to filter by."`
	Date  string   `help:"Only events on this date (YYYY-MM-DD)."`
	Pages int      `help:"Number of pages to fetch." default:"1"`
	All   bool     `help:"Fetch every page."`
}

func (c *ExploreCmd) Run(ctx *cli.Context) error {
	if ctx.Backend == nil {
		return fmt.Errorf("no backend configured")
	}
	f := explore.Filter{Term: c.Term}

	if c.Date != "" {
		loc, err := ctx.Config.Location()
		if err != nil {
			return err
		}
		d, err := utils.ParseDateInLocation(c.Date, loc)
		if err != nil {
			return err
		}
		f.Date = &d
	}
	if len(c.Tags) > 0 {
		ids, err := resolveTags(ctx, c.Tags)
		if err != nil {
			return err
		}
		f.TagIDs = ids
	}

	p := explore.NewPager(ctx.Backend)
	results, err := p.Reset(ctx.Ctx(), f)
	if err != nil {
		return fmt.Errorf("failed to search events: %w", err)
	}
	for page := 1; p.HasMore() && (c.All || page < c.Pages); page++ {
		if results, err = p.More(ctx.Ctx()); err != nil {
			return fmt.Errorf("failed to load more events: %w", err)
		}
	}

	if len(results) == 0 {
		ctx.Println("No events found.")
		return nil
	}
	saved := ledger.New(ctx.Backend, ctx.UserID, ctx.Notifier)
	if err := saved.Sync(ctx.Ctx()); err != nil {
		logger.Warn("Explore results shown without saved markers", "error", err)
	}
	for _, occ := range results {
		ctx.Println(formatOccurrence(occ, saved.IsSaved(occ.CanonicalEventID())))
	}
	if p.HasMore() {
		ctx.Printf("\n%d events shown. Use --pages or --all to load more.\n", len(results))
	}
	return nil
}

func resolveTags(ctx *cli.Context, names []string) ([]int64, error) {
	tags, err := ctx.Backend.FetchAllTags(ctx.Ctx())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tags: %w", err)
	}
	byName := make(map[string]int64, len(tags))
	for _, t := range tags {
		byName[strings.ToLower(t.Name)] = t.ID
	}

	ids := make([]int64, 0, len(names))
	for _, n := range names {
		if id, err := strconv.ParseInt(n, 10, 64); err == nil {
			ids = append(ids, id)
			continue
		}
		id, ok := byName[strings.ToLower(n)]
		if !ok {
			return nil, fmt.Errorf("unknown tag: %s", n)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatOccurrence(occ models.Occurrence, saved bool) string {
	when := occ.Start
	if t, err := models.ParseEventTime(occ.Start); err == nil {
		when = t.Format("2006-01-02 15:04")
		if occ.AllDay {
			when = t.Format(constants.DateFormat) + "      "
		}
	}
	line := fmt.Sprintf("%-8d %s  %s", occ.CanonicalEventID(), when, occ.Title)
	if occ.OrgName != "" {
		line += "  · " + occ.OrgName
	}
	if saved {
		line += " ★"
	}
	return line
}

type TagsCmd struct{}

func (c *TagsCmd) Run(ctx *cli.Context) error {
	if ctx.Backend == nil {
		return fmt.Errorf("no backend configured")
	}
	tags, err := ctx.Backend.FetchAllTags(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("failed to fetch tags: %w", err)
	}
	if len(tags) == 0 {
		ctx.Println("No tags found.")
		return nil
	}
	for _, t := range tags {
		ctx.Printf("%-6d %s\n", t.ID, t.Name)
	}
	return nil
}
