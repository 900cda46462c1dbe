package system

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/cmucal/internal/cli"
	"github.com/julianstephens/cmucal/internal/logger"
	"github.com/julianstephens/cmucal/internal/notifier"
	"github.com/julianstephens/cmucal/internal/session"
)

// WatchCmd keeps the local state fresh on the configured refresh schedule.
type WatchCmd struct {
	Cron string `help:"Cron expression overriding the configured refresh schedule."`
	Once bool   `help:"Refresh once and exit."`
}

func (c *WatchCmd) Run(ctx *cli.Context) error {
	s, err := ctx.LoadSession(false)
	if err != nil {
		return err
	}

	if c.Once {
		return refresh(ctx, s)
	}

	spec := ctx.Config.RefreshCron
	if c.Cron != "" {
		spec = c.Cron
	}
	loc, err := ctx.Config.Location()
	if err != nil {
		return err
	}

	sched := cron.New(cron.WithLocation(loc))
	var mu sync.Mutex
	id, err := sched.AddFunc(spec, func() {
		// overlapping ticks skip rather than queue
		if !mu.TryLock() {
			logger.Warn("Previous refresh still running, skipping tick")
			return
		}
		defer mu.Unlock()
		_ = refresh(ctx, s)
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}

	if err := refresh(ctx, s); err != nil {
		logger.Warn("Initial refresh failed", "error", err)
	}

	sched.Start()
	ctx.Printf("Watching for changes (%s). Next refresh at %s. Press Ctrl+C to stop.\n",
		spec, sched.Entry(id).Next.Format("15:04:05"))

	<-ctx.Ctx().Done()
	<-sched.Stop().Done()
	ctx.Println("Stopped.")
	return nil
}

// refresh refetches the schedule, the saved set and the imported calendars.
// Failures raise a notice.
func refresh(ctx *cli.Context, s *session.Session) error {
	base := ctx.Ctx()
	var errs []error
	if err := s.Schedule.Refresh(base); err != nil && !errors.Is(err, context.Canceled) {
		errs = append(errs, fmt.Errorf("schedule: %w", err))
	}
	if err := s.Ledger.Sync(base); err != nil {
		errs = append(errs, fmt.Errorf("saved events: %w", err))
	}
	if err := s.SyncImports(base); err != nil {
		errs = append(errs, fmt.Errorf("imports: %w", err))
	}

	err := errors.Join(errs...)
	if err != nil {
		logger.Error("Refresh failed", "error", err)
		if ctx.Notifier != nil {
			ctx.Notifier.Notify(notifier.Errorf("Refresh failed", "%v", err))
		}
		return err
	}

	st := s.Schedule.State()
	logger.Info("Refreshed", "schedule", st.ScheduleID.OrElse(""), "saved", len(s.Ledger.IDs()), "imported", len(s.Imported()))
	ctx.Printf("✓ Refreshed: %d saved, %d imported event(s)\n", len(s.Ledger.IDs()), len(s.Imported()))
	return nil
}
