package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/cmucal/internal/cli"
	"github.com/julianstephens/cmucal/internal/keyring"
	"github.com/julianstephens/cmucal/internal/logger"
)

// LoginCmd stores the Clerk user id every backend request is made as.
type LoginCmd struct {
	UserID    string `arg:"" optional:"" help:"Clerk user id. Prompted for when omitted."`
	NoKeyring bool   `help:"Store the user id in the config file instead of the OS keyring."`
}

func (c *LoginCmd) Run(ctx *cli.Context) error {
	id := strings.TrimSpace(c.UserID)
	if id == "" {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Clerk user id").
					Description("Shown on your CMUCal profile page.").
					Value(&id).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return errors.New("user id cannot be empty")
						}
						return nil
					}),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}
		id = strings.TrimSpace(id)
	}

	var where string
	if c.NoKeyring {
		ctx.Config.UserID = id
		where = "config file"
	} else {
		var err error
		if where, err = storeUserID(ctx, id); err != nil {
			return err
		}
	}
	if err := ctx.SaveConfig(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	ctx.UserID = id
	ctx.Printf("✓ Signed in as %s (stored in %s)\n", id, where)
	return nil
}

// storeUserID saves id in the OS keyring, falling back to the config file
// when no keyring is available. The caller saves the config.
func storeUserID(ctx *cli.Context, id string) (string, error) {
	if !keyring.IsAvailable() {
		logger.Warn("OS keyring unavailable, storing user id in config")
		ctx.Config.UserID = id
		return "config file", nil
	}
	if err := keyring.SetUserID(id); err != nil {
		return "", err
	}
	// the keyring copy takes precedence over the config file
	ctx.Config.UserID = ""
	return "OS keyring", nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteUserID(); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		logger.Warn("Failed to delete user id from keyring", "error", err)
	}
	ctx.Config.UserID = ""
	ctx.Config.Schedule = ""
	if err := ctx.SaveConfig(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	ctx.UserID = ""
	ctx.Println("✓ Signed out")
	return nil
}
