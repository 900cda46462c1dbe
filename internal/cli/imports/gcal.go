package imports

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/cmucal/internal/cli"
	apperrors "github.com/julianstephens/cmucal/internal/errors"
)

type GCalStatusCmd struct{}

func (c *GCalStatusCmd) Run(ctx *cli.Context) error {
	if ctx.Backend == nil {
		return fmt.Errorf("no backend configured")
	}
	status, err := ctx.Backend.CheckAuthStatus(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("failed to check google status: %w", err)
	}
	if !status.Authorized {
		ctx.Println("⊘ Google Calendar is not connected. Connect it from the CMUCal web app.")
		return nil
	}
	ctx.Println("✓ Google Calendar is connected")
	if len(ctx.Config.Google.CalendarIDs) == 0 {
		ctx.Println("  Importing: all calendars")
	} else {
		ctx.Printf("  Importing: %d calendar(s)\n", len(ctx.Config.Google.CalendarIDs))
	}
	return nil
}

type GCalCalendarsCmd struct{}

func (c *GCalCalendarsCmd) Run(ctx *cli.Context) error {
	if ctx.Backend == nil {
		return fmt.Errorf("no backend configured")
	}
	status, err := ctx.Backend.CheckAuthStatus(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("failed to check google status: %w", err)
	}
	if !status.Authorized {
		return apperrors.ErrGoogleNotConnected
	}

	cals, err := ctx.Backend.ListCalendars(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("failed to list google calendars: %w", err)
	}
	if len(cals) == 0 {
		ctx.Println("No calendars found.")
		return nil
	}

	configured := ctx.Config.Google.CalendarIDs
	for _, cal := range cals {
		mark := " "
		if len(configured) == 0 || slices.Contains(configured, cal.ID) {
			mark = "x"
		}
		name := cal.Summary
		if cal.Primary {
			name += " (primary)"
		}
		if slices.Contains(ctx.Config.Google.CMUCalCalendarIDs, cal.ID) {
			name += " [cmucal]"
		}
		ctx.Printf("[%s] %-40s %s\n", mark, cal.ID, name)
	}
	return nil
}

type GCalSyncCmd struct{}

func (c *GCalSyncCmd) Run(ctx *cli.Context) error {
	s, err := ctx.Session()
	if err != nil {
		return err
	}
	n, err := s.SyncGoogle(ctx.Ctx())
	if err != nil {
		return err
	}
	ctx.Printf("✓ Imported %d Google Calendar event(s)\n", n)
	return nil
}

type GCalDisconnectCmd struct {
	Yes bool `short:"y" help:"Skip the confirmation prompt."`
}

func (c *GCalDisconnectCmd) Run(ctx *cli.Context) error {
	if ctx.Backend == nil {
		return fmt.Errorf("no backend configured")
	}
	if !c.Yes {
		confirmed := false
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Disconnect Google Calendar?").
					Description("CMUCal will stop importing your Google events until you reconnect from the web app.").
					Affirmative("Disconnect").
					Negative("Cancel").
					Value(&confirmed),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}
		if !confirmed {
			ctx.Println("Disconnect cancelled.")
			return nil
		}
	}

	if err := ctx.Backend.Unauthorize(ctx.Ctx()); err != nil {
		return fmt.Errorf("failed to disconnect google calendar: %w", err)
	}
	ctx.Println("✓ Google Calendar disconnected")
	return nil
}
