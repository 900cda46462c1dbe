package events

import (
	"fmt"
	"slices"

	"github.com/julianstephens/cmucal/internal/cli"
	"github.com/julianstephens/cmucal/internal/ledger"
	"github.com/julianstephens/cmucal/internal/logger"
	"github.com/julianstephens/cmucal/internal/session"
)

// SaveCmd toggles the saved state of a backend event.
type SaveCmd struct {
	EventID int64 `arg:"" help:"Event id to save or unsave."`
}

func (c *SaveCmd) Run(ctx *cli.Context) error {
	s, err := ctx.LoadSession(false)
	if err != nil {
		return err
	}

	m, err := s.ToggleSaved(ctx.Ctx(), c.EventID)
	if err != nil {
		return err
	}

	name := m.Title
	if name == "" {
		name = fmt.Sprintf("event %d", c.EventID)
	}
	if m.Kind == ledger.KindAdd {
		ctx.Printf("★ Saved %s\n", name)
	} else {
		ctx.Printf("✓ Removed %s from saved events\n", name)
	}
	return nil
}

type SavedCmd struct{}

func (c *SavedCmd) Run(ctx *cli.Context) error {
	s, err := ctx.LoadSession(false)
	if err != nil {
		return err
	}

	ids := s.Ledger.IDs()
	if len(ids) == 0 {
		ctx.Println("No saved events.")
		return nil
	}
	titles := savedTitles(s)
	for _, id := range ids {
		title, ok := titles[id]
		if !ok {
			title = lookupTitle(ctx, id)
		}
		ctx.Printf("%-8d %s\n", id, title)
	}
	return nil
}

// lookupTitle fetches an event saved from outside the active schedule.
func lookupTitle(ctx *cli.Context, id int64) string {
	ev, err := ctx.Backend.GetEvent(ctx.Ctx(), id)
	if err != nil {
		logger.Debug("Saved event lookup failed", "event", id, "error", err)
		return "(unavailable)"
	}
	title := ev.Title
	if ev.OrgName != "" {
		title += "  · " + ev.OrgName
	}
	return title + "  (not in this schedule)"
}

func savedTitles(s *session.Session) map[int64]string {
	out := make(map[int64]string)
	for _, org := range slices.Concat(s.Schedule.Courses(), s.Schedule.Clubs()) {
		for _, occs := range org.Events {
			for _, occ := range occs {
				if _, ok := out[occ.CanonicalEventID()]; !ok {
					out[occ.CanonicalEventID()] = occ.Title
				}
			}
		}
	}
	return out
}
