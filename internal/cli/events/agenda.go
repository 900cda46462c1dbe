package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/cmucal/internal/calendar"
	"github.com/julianstephens/cmucal/internal/cli"
	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/models"
	"github.com/julianstephens/cmucal/internal/validation"
)

type AgendaCmd struct {
	Days      int    `help:"Number of days to show. Defaults to the configured horizon."`
	Source    string `help:"Only show events from one source." enum:"all,cmucal,gcal,ics" default:"all"`
	Saved     bool   `help:"Only show saved events."`
	JSON      bool   `name:"json" help:"Print the agenda as JSON."`
	Conflicts bool   `help:"Report overlapping and duplicated events after the agenda."`
}

func (c *AgendaCmd) Run(ctx *cli.Context) error {
	if c.Days < 0 {
		return fmt.Errorf("days must not be negative")
	}
	if c.Days > 0 {
		ctx.Config.HorizonDays = c.Days
	}
	s, err := ctx.LoadSession(true)
	if err != nil {
		return err
	}

	days := filterDays(s.Agenda(), c.keep)
	if c.JSON {
		data, err := json.MarshalIndent(days, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal agenda: %w", err)
		}
		ctx.Println(string(data))
		return nil
	}

	if len(days) == 0 {
		ctx.Println("No upcoming events.")
		return nil
	}
	loc := s.Location()
	for i, day := range days {
		if i > 0 {
			ctx.Println()
		}
		ctx.Println(dayHeading(day.Date, loc))
		for _, ev := range day.Events {
			ctx.Println(formatEvent(ev, loc))
		}
	}

	if c.Conflicts {
		var events []models.Event
		for _, day := range days {
			events = append(events, day.Events...)
		}
		result := validation.New().ValidateEvents(events, loc)
		ctx.Println()
		ctx.Printf("%s", result.FormatReport())
	}
	return nil
}

func (c *AgendaCmd) keep(ev models.Event) bool {
	if c.Saved && !ev.ExtendedProps.IsSaved {
		return false
	}
	if c.Source != "" && c.Source != "all" && ev.ExtendedProps.CalSource != c.Source {
		return false
	}
	return true
}

func filterDays(days []calendar.Day, keep func(models.Event) bool) []calendar.Day {
	out := make([]calendar.Day, 0, len(days))
	for _, day := range days {
		var events []models.Event
		for _, ev := range day.Events {
			if keep(ev) {
				events = append(events, ev)
			}
		}
		if len(events) > 0 {
			out = append(out, calendar.Day{Date: day.Date, Events: events})
		}
	}
	return out
}

func dayHeading(date string, loc *time.Location) string {
	t, err := time.ParseInLocation(constants.DateFormat, date, loc)
	if err != nil {
		return date
	}
	return t.Format("Mon 2006-01-02")
}

func formatEvent(ev models.Event, loc *time.Location) string {
	line := fmt.Sprintf("  %-11s  %s", cli.FormatEventTime(ev, loc), ev.Title)
	props := ev.ExtendedProps
	if props.OrgName != "" {
		line += "  · " + props.OrgName
	}
	if props.CalSource != "" && props.CalSource != constants.CalSourceCMUCal {
		line += " [" + props.CalSource + "]"
	}
	if props.IsSaved {
		line += " ★"
	}
	if props.CategoryHidden {
		line += " (hidden category)"
	}
	return line
}
