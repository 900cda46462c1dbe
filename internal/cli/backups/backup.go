package backups

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/cmucal/internal/backup"
	"github.com/julianstephens/cmucal/internal/cli"
)

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr := backup.NewManager(ctx.BackupDir()).WithClock(ctx.Now)
	info, err := mgr.Create(ctx.Store)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	ctx.Printf("✓ Backup created: %s\n", filepath.Base(info.Path))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr := backup.NewManager(ctx.BackupDir())
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		ctx.Println("No backups found.")
		ctx.Printf("Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	ctx.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), backup.DefaultKeep)
	for _, b := range backups {
		sizeKB := float64(b.Size) / 1024.0
		ctx.Printf("  %s  %s  (%.1f KB)\n", b.CreatedAt.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), sizeKB)
	}
	ctx.Printf("\nBackup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr := backup.NewManager(ctx.BackupDir()).WithClock(ctx.Now)

	backupPath, err := c.resolve(mgr.Dir())
	if err != nil {
		return err
	}

	if !c.Yes {
		confirmed := false
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Restore from "+filepath.Base(backupPath)+"?").
					Description("This replaces the local visibility state and feed caches. Stop any running cmucal TUI or watch first. A backup of the current state is taken before restoring.").
					Affirmative("Restore").
					Negative("Cancel").
					Value(&confirmed),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}
		if !confirmed {
			ctx.Println("Restore cancelled.")
			return nil
		}
	}

	if _, err := mgr.Create(ctx.Store); err != nil {
		return fmt.Errorf("failed to back up current state: %w", err)
	}
	n, err := mgr.Restore(ctx.Store, backupPath)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	ctx.Printf("✓ Restored %d item(s) from %s\n", n, filepath.Base(backupPath))
	ctx.Println("⚠️  Remember to restart any cmucal processes that were stopped for the restore.")
	return nil
}

// resolve accepts an absolute path, a path relative to the working directory,
// or a file name inside the backup directory.
func (c *BackupRestoreCmd) resolve(dir string) (string, error) {
	p := c.BackupFile
	if filepath.IsAbs(p) {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("backup file not found: %s", p)
		}
		return p, nil
	}
	if _, err := os.Stat(p); err == nil {
		return filepath.Abs(p)
	}
	candidate := filepath.Join(dir, p)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("backup file not found: tried current directory and %s", dir)
}
