package settings

import (
	"fmt"
	"strings"

	"github.com/julianstephens/cmucal/internal/cli"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	APIURL          *string  `name:"api-url" help:"CMUCal backend base URL."`
	HorizonDays     *int     `help:"Number of days shown by the agenda."`
	Refresh         *string  `help:"Cron expression used by 'cmucal watch'."`
	Timezone        *string  `help:"IANA timezone used to display events."`
	Debug           *bool    `help:"Enable debug logging."`
	WebhookURL      *string  `name:"webhook-url" help:"Endpoint that receives notices as JSON."`
	WebhookSecret   *string  `name:"webhook-secret" help:"Shared secret sent with webhook notices."`
	GoogleCalendars []string `name:"google-calendars" help:"Google calendar ids to import. Pass \"\" to import all."`
	CMUCalCalendars []string `name:"cmucal-calendars" help:"Google calendar ids that hold CMUCal exports."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Config

	if c.List {
		ctx.Println("Current Settings:")
		ctx.Printf("  Config File:       %s\n", ctx.ConfigPath)
		ctx.Printf("  API URL:           %s\n", cfg.APIBaseURL)
		ctx.Printf("  Storage:           %s\n", ctx.Store.GetConfigPath())
		ctx.Printf("  Schedule:          %s\n", orNone(cfg.Schedule))
		ctx.Printf("  Horizon:           %d days\n", cfg.HorizonDays)
		ctx.Printf("  Refresh:           %s\n", cfg.RefreshCron)
		ctx.Printf("  Timezone:          %s\n", orNone(cfg.Timezone))
		ctx.Printf("  Debug:             %v\n", cfg.Debug)
		ctx.Println("\nImported Calendars:")
		ctx.Printf("  Google Calendars:  %s\n", orNone(strings.Join(cfg.Google.CalendarIDs, ", ")))
		ctx.Printf("  CMUCal Exports:    %s\n", orNone(strings.Join(cfg.Google.CMUCalCalendarIDs, ", ")))
		ctx.Printf("  ICS Feeds:         %d\n", len(cfg.ICS))
		ctx.Println("\nNotification Settings:")
		ctx.Printf("  Webhook URL:       %s\n", orNone(cfg.Notify.WebhookURL))
		ctx.Printf("  Webhook Secret:    %s\n", mask(cfg.Notify.WebhookSecret))
		return nil
	}

	updated := false
	if c.APIURL != nil {
		cfg.APIBaseURL = *c.APIURL
		updated = true
	}
	if c.HorizonDays != nil {
		if *c.HorizonDays <= 0 {
			return fmt.Errorf("horizon must be a positive number of days")
		}
		cfg.HorizonDays = *c.HorizonDays
		updated = true
	}
	if c.Refresh != nil {
		cfg.RefreshCron = *c.Refresh
		updated = true
	}
	if c.Timezone != nil {
		cfg.Timezone = *c.Timezone
		updated = true
	}
	if c.Debug != nil {
		cfg.Debug = *c.Debug
		updated = true
	}
	if c.WebhookURL != nil {
		cfg.Notify.WebhookURL = *c.WebhookURL
		updated = true
	}
	if c.WebhookSecret != nil {
		cfg.Notify.WebhookSecret = *c.WebhookSecret
		updated = true
	}
	if c.GoogleCalendars != nil {
		cfg.Google.CalendarIDs = nonEmpty(c.GoogleCalendars)
		updated = true
	}
	if c.CMUCalCalendars != nil {
		cfg.Google.CMUCalCalendarIDs = nonEmpty(c.CMUCalCalendars)
		updated = true
	}

	if !updated {
		ctx.Println("No changes specified. Use --list to view settings or flags to update them.")
		return nil
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := ctx.SaveConfig(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ctx.Println("Settings updated successfully.")
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func mask(s string) string {
	if s == "" {
		return "(none)"
	}
	return "****"
}

func nonEmpty(values []string) []string {
	out := []string{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
