package backups

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/cmucal/internal/backup"
	"github.com/julianstephens/cmucal/internal/cli/clitest"
	"github.com/julianstephens/cmucal/internal/constants"
)

func TestBackupCreateAndList(t *testing.T) {
	ctx, out, _ := clitest.NewContext(t, nil)

	require.NoError(t, (&BackupListCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "No backups found.")

	require.NoError(t, ctx.Store.SetItem(constants.VisibilityStorageKey, `{"7":[10]}`))
	require.NoError(t, (&BackupCreateCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "✓ Backup created: cmucal-20240101-080000.json")

	out.Reset()
	require.NoError(t, (&BackupListCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "Available backups (1 total")
	assert.Contains(t, out.String(), "2024-01-01 08:00:00  cmucal-20240101-080000.json")
}

func TestBackupRestore(t *testing.T) {
	ctx, out, _ := clitest.NewContext(t, nil)
	require.NoError(t, ctx.Store.SetItem(constants.VisibilityStorageKey, `{"7":[10]}`))
	require.NoError(t, (&BackupCreateCmd{}).Run(ctx))

	require.NoError(t, ctx.Store.SetItem(constants.VisibilityStorageKey, `{"7":[]}`))
	require.NoError(t, ctx.Store.SetItem("cmucal.ics.extra", "{}"))

	require.NoError(t, (&BackupRestoreCmd{BackupFile: "cmucal-20240101-080000.json", Yes: true}).Run(ctx))
	assert.Contains(t, out.String(), "✓ Restored 1 item(s)")

	v, err := ctx.Store.GetItem(constants.VisibilityStorageKey)
	require.NoError(t, err)
	assert.Equal(t, `{"7":[10]}`, v)
	keys, err := ctx.Store.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{constants.VisibilityStorageKey}, keys)

	infos, err := backup.NewManager(ctx.BackupDir()).List()
	require.NoError(t, err)
	require.Len(t, infos, 2, "pre-restore snapshot is kept")
	snap, err := backup.Read(infos[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "{}", snap.Items["cmucal.ics.extra"])
}

func TestBackupRestore_AbsolutePathAndMissing(t *testing.T) {
	ctx, _, _ := clitest.NewContext(t, nil)
	require.NoError(t, (&BackupCreateCmd{}).Run(ctx))
	abs := filepath.Join(ctx.BackupDir(), "cmucal-20240101-080000.json")

	require.NoError(t, (&BackupRestoreCmd{BackupFile: abs, Yes: true}).Run(ctx))

	err := (&BackupRestoreCmd{BackupFile: "nope.json", Yes: true}).Run(ctx)
	assert.ErrorContains(t, err, "backup file not found")
}
