package system

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/cmucal/internal/cli"
	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/storage"
	"github.com/julianstephens/cmucal/internal/visibility"
)

type DebugCmd struct {
	DBPath         *DebugDBPathCmd         `cmd:"" help:"Show storage path."`
	DumpKeys       *DebugDumpKeysCmd       `cmd:"" help:"List every storage key."`
	DumpKey        *DebugDumpKeyCmd        `cmd:"" help:"Dump a raw storage value."`
	DumpVisibility *DebugDumpVisibilityCmd `cmd:"" help:"Dump the category visibility map as JSON."`
	DumpSchedule   *DebugDumpScheduleCmd   `cmd:"" help:"Dump the selected schedule as JSON."`
}

func printJSON(ctx *cli.Context, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(ctx, map[string]string{
		"path":    ctx.Store.GetConfigPath(),
		"config":  ctx.ConfigPath,
		"backups": ctx.BackupDir(),
	})
}

type DebugDumpKeysCmd struct{}

func (cmd *DebugDumpKeysCmd) Run(ctx *cli.Context) error {
	keys, err := ctx.Store.Keys()
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}
	if keys == nil {
		keys = []string{}
	}
	return printJSON(ctx, keys)
}

type DebugDumpKeyCmd struct {
	Key string `arg:"" help:"Storage key to dump."`
}

func (cmd *DebugDumpKeyCmd) Run(ctx *cli.Context) error {
	v, err := ctx.Store.GetItem(cmd.Key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("key not found: %s", cmd.Key)
		}
		return fmt.Errorf("failed to read key: %w", err)
	}
	if json.Valid([]byte(v)) {
		return printJSON(ctx, json.RawMessage(v))
	}
	ctx.Println(v)
	return nil
}

type DebugDumpVisibilityCmd struct{}

func (cmd *DebugDumpVisibilityCmd) Run(ctx *cli.Context) error {
	raw, err := ctx.Store.GetItem(constants.VisibilityStorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return printJSON(ctx, map[string][]int64{})
	}
	if err != nil {
		return fmt.Errorf("failed to read visibility: %w", err)
	}
	state, err := visibility.Decode(raw)
	if err != nil {
		return fmt.Errorf("stored visibility map is corrupt: %w", err)
	}
	out := make(map[string][]int64, len(state))
	for k, set := range state {
		out[k] = set.Sorted()
	}
	return printJSON(ctx, out)
}

type DebugDumpScheduleCmd struct{}

func (cmd *DebugDumpScheduleCmd) Run(ctx *cli.Context) error {
	s, err := ctx.LoadSession(false)
	if err != nil {
		return err
	}
	st := s.Schedule.State()
	return printJSON(ctx, map[string]any{
		"schedule_id": st.ScheduleID.OrElse(""),
		"phase":       st.Phase.String(),
		"courses":     s.Schedule.Courses(),
		"clubs":       s.Schedule.Clubs(),
		"visible":     s.Visibility.Visible().Sorted(),
		"saved":       s.Ledger.IDs(),
	})
}
