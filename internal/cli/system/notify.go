package system

import (
	"errors"
	"fmt"

	"github.com/julianstephens/cmucal/internal/cli"
	"github.com/julianstephens/cmucal/internal/notifier"
)

// NotifyCmd sends a test notice through the configured channels.
type NotifyCmd struct {
	Message string `arg:"" optional:"" default:"Notifications are working." help:"Notice text."`
	Error   bool   `help:"Send the notice at error level."`
	DryRun  bool   `help:"Print the notice instead of sending it."`
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	n := notifier.Info("cmucal", c.Message)
	if c.Error {
		n = notifier.Errorf("cmucal", "%s", c.Message)
	}

	if c.DryRun {
		ctx.Printf("[DryRun] %s %s: %s\n", n.Level, n.Title, n.Message)
		return nil
	}

	if ctx.Config.Notify.WebhookURL != "" {
		// the webhook is sent directly so delivery errors reach the user
		w := notifier.NewWebhook(ctx.Config.Notify.WebhookURL, ctx.Config.Notify.WebhookSecret)
		if err := w.Send(ctx.Ctx(), n); err != nil {
			return fmt.Errorf("webhook delivery failed: %w", err)
		}
		ctx.Println("✓ Notice delivered to webhook")
		return nil
	}

	if ctx.Notifier == nil {
		return errors.New("no notifier configured")
	}
	ctx.Notifier.Notify(n)
	return nil
}
