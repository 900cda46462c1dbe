package schedules

import (
	"fmt"
	"slices"
	"strings"

	"github.com/julianstephens/cmucal/internal/cli"
	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/logger"
	"github.com/julianstephens/cmucal/internal/models"
)

type OrgListCmd struct{}

func (c *OrgListCmd) Run(ctx *cli.Context) error {
	s, err := ctx.LoadSession(false)
	if err != nil {
		return err
	}
	orgs := slices.Concat(s.Schedule.Courses(), s.Schedule.Clubs())
	if len(orgs) == 0 {
		ctx.Println("No organizations in this schedule.")
		return nil
	}
	for _, org := range orgs {
		ctx.Printf("%-6d %-8s %s (%d categories)\n", org.OrgID, org.Type, org.Name, len(org.Categories))
	}
	return nil
}

// OrgDirectoryCmd searches the club and course directories.
type OrgDirectoryCmd struct {
	Query   string `arg:"" optional:"" help:"Case-insensitive name filter."`
	Clubs   bool   `help:"Only list clubs."`
	Courses bool   `help:"Only list courses."`
}

func (c *OrgDirectoryCmd) Run(ctx *cli.Context) error {
	if ctx.Backend == nil {
		return fmt.Errorf("no backend configured")
	}
	query := strings.ToLower(c.Query)
	both := !c.Clubs && !c.Courses

	if both || c.Courses {
		courses, err := ctx.Backend.GetCourseOrgs(ctx.Ctx())
		if err != nil {
			return fmt.Errorf("failed to list courses: %w", err)
		}
		ctx.Println("Courses:")
		for _, co := range courses {
			if query != "" && !strings.Contains(strings.ToLower(co.Label), query) {
				continue
			}
			ctx.Printf("  %-6s %s\n", co.ID, co.Label)
		}
	}

	if both || c.Clubs {
		clubs, err := ctx.Backend.GetClubOrganizations(ctx.Ctx())
		if err != nil {
			return fmt.Errorf("failed to list clubs: %w", err)
		}
		ctx.Println("Clubs:")
		for _, club := range clubs {
			if query != "" && !strings.Contains(strings.ToLower(club.Name), query) {
				continue
			}
			ctx.Printf("  %-6d %s\n", club.ID, club.Name)
		}
	}
	return nil
}

type OrgAddCmd struct {
	ID int64 `arg:"" help:"Organization id to add."`
}

func (c *OrgAddCmd) Run(ctx *cli.Context) error {
	s, err := ctx.LoadSession(false)
	if err != nil {
		return err
	}
	if err := s.Schedule.AddOrganization(ctx.Ctx(), c.ID); err != nil {
		return err
	}
	for _, org := range slices.Concat(s.Schedule.Courses(), s.Schedule.Clubs()) {
		if org.OrgID == c.ID {
			ctx.Printf("✓ Added %s\n", org.Name)
			return nil
		}
	}
	ctx.Printf("✓ Added organization %d\n", c.ID)
	return nil
}

type OrgRemoveCmd struct {
	ID int64 `arg:"" help:"Organization id to remove."`
}

func (c *OrgRemoveCmd) Run(ctx *cli.Context) error {
	s, err := ctx.LoadSession(false)
	if err != nil {
		return err
	}
	name := ""
	for _, org := range slices.Concat(s.Schedule.Courses(), s.Schedule.Clubs()) {
		if org.OrgID == c.ID {
			name = org.Name
		}
	}
	if name == "" {
		return fmt.Errorf("organization %d is not part of schedule %s", c.ID, s.Schedule.ScheduleID())
	}
	if err := s.Schedule.RemoveOrganization(ctx.Ctx(), c.ID); err != nil {
		return err
	}
	ctx.Printf("✓ Removed %s\n", name)
	return nil
}

// OrgShowCmd prints an organization's categories and their events.
type OrgShowCmd struct {
	ID     int64 `arg:"" help:"Organization id."`
	Events bool  `help:"List the events of each category."`
}

func (c *OrgShowCmd) Run(ctx *cli.Context) error {
	if ctx.Backend == nil {
		return fmt.Errorf("no backend configured")
	}
	org, err := ctx.Backend.GetOrganizationData(ctx.Ctx(), ctx.UserID, c.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch organization %d: %w", c.ID, err)
	}
	if err := org.Validate(); err != nil {
		logger.Warn("Organization contains inconsistent events", "org", c.ID, "error", err)
	}
	loc, err := ctx.Config.Location()
	if err != nil {
		return err
	}

	ctx.Printf("%s (%s, id %d)\n", org.Name, org.Type, org.OrgID)
	if org.Description != "" {
		ctx.Println(org.Description)
	}
	if len(org.Categories) == 0 {
		ctx.Println("No categories.")
		return nil
	}
	ctx.Println()
	for _, cat := range org.Categories {
		occs := org.Events[cat.Name]
		ctx.Printf("  %-6d %s (%d events)\n", cat.ID, cat.Name, len(occs))
		if !c.Events {
			continue
		}
		for _, occ := range occs {
			when := occ.Start
			if t, err := models.ParseEventTime(occ.Start); err == nil {
				when = t.In(loc).Format("2006-01-02 15:04")
			}
			ctx.Printf("         %-8d %s  %s\n", occ.CanonicalEventID(), when, occ.Title)
		}
	}
	return nil
}

// OrgAdminsCmd lists the managers of an organization.
type OrgAdminsCmd struct {
	ID int64 `arg:"" help:"Organization id."`
}

func (c *OrgAdminsCmd) Run(ctx *cli.Context) error {
	if ctx.Backend == nil {
		return fmt.Errorf("no backend configured")
	}
	admins, err := ctx.Backend.GetAdminsInOrg(ctx.Ctx(), c.ID)
	if err != nil {
		return fmt.Errorf("failed to list admins: %w", err)
	}
	if len(admins) == 0 {
		ctx.Println("No admins found.")
		return nil
	}
	for _, a := range admins {
		ctx.Printf("%-12s %s\n", a.AndrewID, a.Role)
	}
	return nil
}

// OrgICalLinkCmd imports a public Google Calendar into one of the
// organization's categories.
type OrgICalLinkCmd struct {
	Org      int64  `arg:"" help:"Organization id."`
	Category int64  `arg:"" help:"Category id within the organization."`
	Link     string `arg:"" help:"Public Google Calendar iCal address."`
}

func (c *OrgICalLinkCmd) Run(ctx *cli.Context) error {
	if ctx.Backend == nil {
		return fmt.Errorf("no backend configured")
	}
	link := strings.TrimSpace(c.Link)
	if !strings.HasPrefix(link, constants.GoogleICalPrefix) || !strings.Contains(link, constants.GooglePublicICalSuffix) {
		return fmt.Errorf("link must be a public Google Calendar iCal address (%s.../%s)", constants.GoogleICalPrefix, constants.GooglePublicICalSuffix)
	}

	org, err := ctx.Backend.GetOrganizationData(ctx.Ctx(), ctx.UserID, c.Org)
	if err != nil {
		return fmt.Errorf("failed to fetch organization %d: %w", c.Org, err)
	}
	category, ok := org.Category(c.Category)
	if !ok {
		return fmt.Errorf("category %d is not part of %s", c.Category, org.Name)
	}

	res, err := ctx.Backend.ReadICalLink(ctx.Ctx(), models.ICalLinkPayload{
		Link:       link,
		OrgID:      fmt.Sprint(c.Org),
		CategoryID: fmt.Sprint(c.Category),
		ClerkID:    ctx.UserID,
	})
	if err != nil {
		return fmt.Errorf("unable to upload: %w", err)
	}
	logger.Info("iCal link uploaded", "org", c.Org, "category", c.Category, "source", res.CalendarSourceID)
	msg := res.Message
	if msg == "" {
		msg = "Events created"
	}
	ctx.Printf("✓ %s for %s · %s (source %d)\n", msg, org.Name, category.Name, res.CalendarSourceID)
	return nil
}
