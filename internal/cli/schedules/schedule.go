package schedules

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/cmucal/internal/cli"
	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/models"
	"github.com/julianstephens/cmucal/internal/visibility"
)

type ScheduleShowCmd struct{}

func (c *ScheduleShowCmd) Run(ctx *cli.Context) error {
	s, err := ctx.LoadSession(false)
	if err != nil {
		return err
	}

	id := s.Schedule.ScheduleID()
	if id == constants.ClearedScheduleID {
		ctx.Println("No schedule selected. Use 'cmucal schedule select' to pick one.")
		return nil
	}
	ctx.Printf("Schedule %s\n", id)

	visible := s.Schedule.VisibleCategories()
	printOrgs(ctx, "Courses", s.Schedule.Courses(), visible)
	printOrgs(ctx, "Clubs", s.Schedule.Clubs(), visible)
	return nil
}

func printOrgs(ctx *cli.Context, heading string, orgs []models.Organization, visible visibility.Set) {
	ctx.Printf("\n%s:\n", heading)
	if len(orgs) == 0 {
		ctx.Println("  (none)")
		return
	}
	for _, org := range orgs {
		ctx.Printf("  %s [%d]\n", org.Name, org.OrgID)
		for _, cat := range org.Categories {
			mark := " "
			if visible.Contains(cat.ID) {
				mark = "x"
			}
			ctx.Printf("    [%s] %-24s %d events  (id %d)\n", mark, cat.Name, len(org.Events[cat.Name]), cat.ID)
		}
	}
}

type ScheduleListCmd struct{}

func (c *ScheduleListCmd) Run(ctx *cli.Context) error {
	if ctx.Backend == nil {
		return fmt.Errorf("no backend configured")
	}
	list, err := ctx.Backend.ListSchedules(ctx.Ctx())
	if err != nil {
		return fmt.Errorf("failed to list schedules: %w", err)
	}
	if len(list) == 0 {
		ctx.Println("No schedules found.")
		return nil
	}

	ctx.Printf("%-3s %-8s %s\n", "", "ID", "NAME")
	for _, sched := range list {
		mark := ""
		if strconv.FormatInt(sched.ID, 10) == ctx.Config.Schedule {
			mark = "*"
		}
		ctx.Printf("%-3s %-8d %s\n", mark, sched.ID, sched.Name)
	}
	return nil
}

type ScheduleSelectCmd struct {
	ID string `arg:"" optional:"" help:"Schedule id. Prompts when omitted."`
}

func (c *ScheduleSelectCmd) Run(ctx *cli.Context) error {
	id := c.ID
	if id == "" {
		picked, err := pickSchedule(ctx)
		if err != nil {
			return err
		}
		id = picked
	}

	s, err := ctx.Session()
	if err != nil {
		return err
	}
	if err := s.Schedule.Switch(ctx.Ctx(), id); err != nil {
		return fmt.Errorf("failed to select schedule %s: %w", id, err)
	}
	if err := ctx.RememberSchedule(s.Schedule.ScheduleID()); err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}

	ctx.Printf("✓ Selected schedule %s (%d courses, %d clubs)\n", s.Schedule.ScheduleID(), len(s.Schedule.Courses()), len(s.Schedule.Clubs()))
	return nil
}

func pickSchedule(ctx *cli.Context) (string, error) {
	list, err := ctx.Backend.ListSchedules(ctx.Ctx())
	if err != nil {
		return "", fmt.Errorf("failed to list schedules: %w", err)
	}
	if len(list) == 0 {
		return "", fmt.Errorf("no schedules found; create one with 'cmucal schedule create <name>'")
	}

	opts := make([]huh.Option[string], 0, len(list))
	for _, sched := range list {
		id := strconv.FormatInt(sched.ID, 10)
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s (%s)", sched.Name, id), id))
	}

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select a schedule").
				Options(opts...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return choice, nil
}

type ScheduleClearCmd struct{}

func (c *ScheduleClearCmd) Run(ctx *cli.Context) error {
	if err := ctx.RememberSchedule(constants.ClearedScheduleID); err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}
	ctx.Println("✓ Schedule cleared. Only imported calendars will be shown.")
	return nil
}

type ScheduleCreateCmd struct {
	Name   string `arg:"" help:"Name of the new schedule."`
	Select bool   `help:"Select the schedule after creating it."`
}

func (c *ScheduleCreateCmd) Run(ctx *cli.Context) error {
	if ctx.Backend == nil {
		return fmt.Errorf("no backend configured")
	}
	id, err := ctx.Backend.CreateSchedule(ctx.Ctx(), c.Name)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	ctx.Printf("✓ Created schedule %q (id %d)\n", c.Name, id)

	if c.Select {
		return (&ScheduleSelectCmd{ID: strconv.FormatInt(id, 10)}).Run(ctx)
	}
	return nil
}
