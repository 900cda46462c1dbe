package schedules

import (
	"fmt"
	"slices"

	"github.com/julianstephens/cmucal/internal/cli"
	"github.com/julianstephens/cmucal/internal/models"
	"github.com/julianstephens/cmucal/internal/session"
)

type CategoryListCmd struct {
	Hidden bool `help:"Only list hidden categories."`
}

func (c *CategoryListCmd) Run(ctx *cli.Context) error {
	s, err := ctx.LoadSession(false)
	if err != nil {
		return err
	}

	visible := s.Schedule.VisibleCategories()
	count := 0
	for _, org := range slices.Concat(s.Schedule.Courses(), s.Schedule.Clubs()) {
		for _, cat := range org.Categories {
			shown := visible.Contains(cat.ID)
			if c.Hidden && shown {
				continue
			}
			mark := " "
			if shown {
				mark = "x"
			}
			ctx.Printf("[%s] %-6d %-24s %s\n", mark, cat.ID, cat.Name, org.Name)
			count++
		}
	}
	if count == 0 {
		ctx.Println("No categories found.")
	}
	return nil
}

type CategoryToggleCmd struct {
	IDs []int64 `arg:"" help:"Category ids to show or hide."`
}

func (c *CategoryToggleCmd) Run(ctx *cli.Context) error {
	s, err := ctx.LoadSession(false)
	if err != nil {
		return err
	}

	known := categoryIndex(s)
	for _, id := range c.IDs {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("category %d is not part of schedule %s", id, s.Schedule.ScheduleID())
		}
	}

	for _, id := range c.IDs {
		if err := s.Schedule.ToggleCategory(id); err != nil {
			return fmt.Errorf("failed to toggle category %d: %w", id, err)
		}
		state := "hidden"
		if s.Schedule.VisibleCategories().Contains(id) {
			state = "shown"
		}
		ctx.Printf("✓ %s: %s\n", known[id].Name, state)
	}
	return nil
}

type CategoryShowAllCmd struct{}

func (c *CategoryShowAllCmd) Run(ctx *cli.Context) error {
	s, err := ctx.LoadSession(false)
	if err != nil {
		return err
	}
	if err := s.Schedule.ShowAll(); err != nil {
		return fmt.Errorf("failed to show all categories: %w", err)
	}
	ctx.Printf("✓ All %d categories are visible\n", len(s.Schedule.VisibleCategories()))
	return nil
}

type CategoryRemoveCmd struct {
	ID int64 `arg:"" help:"Category id to remove from the schedule."`
}

func (c *CategoryRemoveCmd) Run(ctx *cli.Context) error {
	s, err := ctx.LoadSession(false)
	if err != nil {
		return err
	}
	cat, ok := categoryIndex(s)[c.ID]
	if !ok {
		return fmt.Errorf("category %d is not part of schedule %s", c.ID, s.Schedule.ScheduleID())
	}
	if err := s.Schedule.RemoveCategory(ctx.Ctx(), c.ID); err != nil {
		return err
	}
	ctx.Printf("✓ Removed category %s\n", cat.Name)
	return nil
}

func categoryIndex(s *session.Session) map[int64]models.Category {
	out := make(map[int64]models.Category)
	for _, org := range slices.Concat(s.Schedule.Courses(), s.Schedule.Clubs()) {
		for _, cat := range org.Categories {
			out[cat.ID] = cat
		}
	}
	return out
}
