package system

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/cmucal/internal/cli"
	"github.com/julianstephens/cmucal/internal/notifier"
	"github.com/julianstephens/cmucal/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	if ctx.Backend == nil {
		return errors.New("no backend configured")
	}

	// the banner replaces console notices, which would draw over the
	// alternate screen; a full buffer drops notices instead of blocking
	notices := make(chan notifier.Notice, 16)
	n := notifier.Multi{notifier.Func(func(notice notifier.Notice) {
		select {
		case notices <- notice:
		default:
		}
	})}
	if ctx.Config.Notify.WebhookURL != "" {
		n = append(n, notifier.NewWebhook(ctx.Config.Notify.WebhookURL, ctx.Config.Notify.WebhookSecret))
	}
	ctx.Notifier = n

	s, err := ctx.LoadSession(true)
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	m := tui.NewModel(tui.Deps{
		Ctx:      ctx.Ctx(),
		Session:  s,
		Backend:  ctx.Backend,
		Remember: ctx.RememberSchedule,
		Notices:  notices,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx.Ctx()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui exited: %w", err)
	}
	return nil
}
