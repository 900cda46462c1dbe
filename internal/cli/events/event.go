package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/cmucal/internal/cli"
	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/ledger"
	"github.com/julianstephens/cmucal/internal/logger"
	"github.com/julianstephens/cmucal/internal/models"
	"github.com/julianstephens/cmucal/internal/utils"
)

// EventShowCmd prints one backend event with its tags.
type EventShowCmd struct {
	ID int64 `arg:"" help:"Event id."`
}

func (c *EventShowCmd) Run(ctx *cli.Context) error {
	if ctx.Backend == nil {
		return fmt.Errorf("no backend configured")
	}
	loc, err := ctx.Config.Location()
	if err != nil {
		return err
	}

	ev, err := ctx.Backend.GetEvent(ctx.Ctx(), c.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch event %d: %w", c.ID, err)
	}
	tags, err := ctx.Backend.FetchTagsForEvent(ctx.Ctx(), c.ID)
	if err != nil {
		logger.Warn("Failed to fetch event tags", "event", c.ID, "error", err)
	}
	saved := ledger.New(ctx.Backend, ctx.UserID, ctx.Notifier)
	if err := saved.Sync(ctx.Ctx()); err != nil {
		logger.Warn("Event shown without saved state", "error", err)
	}

	title := ev.Title
	if saved.IsSaved(ev.CanonicalEventID()) {
		title += " ★"
	}
	ctx.Println(title)
	ctx.Printf("  When:     %s\n", occurrenceWhen(ev, loc))
	if ev.Location != "" {
		ctx.Printf("  Where:    %s\n", ev.Location)
	}
	if ev.OrgName != "" {
		ctx.Printf("  Org:      %s\n", ev.OrgName)
	}
	if len(tags) > 0 {
		names := make([]string, 0, len(tags))
		for _, t := range tags {
			names = append(names, t.Name)
		}
		ctx.Printf("  Tags:     %s\n", strings.Join(names, ", "))
	}
	if ev.SourceURL != "" {
		ctx.Printf("  Link:     %s\n", ev.SourceURL)
	}
	if ev.Description != "" {
		ctx.Println()
		ctx.Println(ev.Description)
	}
	return nil
}

func occurrenceWhen(occ models.Occurrence, loc *time.Location) string {
	start, err := models.ParseEventTime(occ.Start)
	if err != nil {
		return occ.Start
	}
	start = start.In(loc)
	if occ.AllDay {
		return start.Format(constants.DateFormat) + " (all day)"
	}
	when := start.Format("2006-01-02 15:04")
	if end, err := models.ParseEventTime(occ.End); err == nil {
		when += "-" + end.In(loc).Format(constants.TimeFormat)
	}
	return when
}

// EventCreateCmd adds a one-off event to a category of an organization the
// user manages.
type EventCreateCmd struct {
	Org          int64    `required:"" help:"Organization id."`
	Category     int64    `required:"" help:"Category id within the organization."`
	Title        string   `required:"" help:"Event title."`
	Start        string   `required:"" help:"Start as 'YYYY-MM-DD HH:MM' in the configured timezone, or YYYY-MM-DD with --all-day."`
	End          string   `help:"End in the same format as --start. Defaults to one hour after the start, or the end of the day with --all-day."`
	AllDay       bool     `help:"Create an all-day event."`
	Location     string   `required:"" help:"Where the event takes place."`
	Description  string   `help:"Event description."`
	URL          string   `name:"url" help:"Source or registration link."`
	Type         string   `help:"Event type." enum:"ACADEMIC,CAREER,CLUB" default:"CLUB"`
	Tags         []string `help:"Tag names."`
	Host         string   `help:"Hosting group or person."`
	Registration bool     `help:"Registration is required."`
}

func (c *EventCreateCmd) Run(ctx *cli.Context) error {
	if ctx.Backend == nil {
		return fmt.Errorf("no backend configured")
	}
	loc, err := ctx.Config.Location()
	if err != nil {
		return err
	}
	start, end, err := c.window(loc)
	if err != nil {
		return err
	}

	org, err := ctx.Backend.GetOrganizationData(ctx.Ctx(), ctx.UserID, c.Org)
	if err != nil {
		return fmt.Errorf("failed to fetch organization %d: %w", c.Org, err)
	}
	category, ok := org.Category(c.Category)
	if !ok {
		return fmt.Errorf("category %d is not part of %s", c.Category, org.Name)
	}

	payload := models.EventPayload{
		Title:                strings.TrimSpace(c.Title),
		Description:          c.Description,
		Start:                start.Format(time.RFC3339),
		End:                  end.Format(time.RFC3339),
		AllDay:               c.AllDay,
		Location:             c.Location,
		SourceURL:            c.URL,
		EventType:            c.Type,
		CategoryID:           c.Category,
		OrgID:                fmt.Sprint(c.Org),
		ClerkID:              ctx.UserID,
		Tags:                 c.Tags,
		Host:                 c.Host,
		RegistrationRequired: c.Registration,
		Recurrence:           constants.RecurrenceOneTime,
	}
	if payload.Title == "" {
		return fmt.Errorf("title must not be empty")
	}
	if err := ctx.Backend.CreateEvent(ctx.Ctx(), payload); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	logger.Info("Event created", "org", c.Org, "category", c.Category, "title", payload.Title)
	ctx.Printf("✓ Created %q in %s · %s\n", payload.Title, org.Name, category.Name)
	return nil
}

func (c *EventCreateCmd) window(loc *time.Location) (time.Time, time.Time, error) {
	if c.AllDay {
		start, err := utils.ParseDateInLocation(c.Start, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end := start.AddDate(0, 0, 1)
		if c.End != "" {
			last, err := utils.ParseDateInLocation(c.End, loc)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			end = last.AddDate(0, 0, 1)
		}
		if !end.After(start) {
			return time.Time{}, time.Time{}, fmt.Errorf("end must not be before start")
		}
		return start, end, nil
	}

	start, err := utils.ParseDateTimeInLocation(c.Start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := start.Add(time.Hour)
	if c.End != "" {
		if end, err = utils.ParseDateTimeInLocation(c.End, loc); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end must be after start")
	}
	return start, end, nil
}
