package imports

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/cmucal/internal/cli/clitest"
	"github.com/julianstephens/cmucal/internal/config"
	apperrors "github.com/julianstephens/cmucal/internal/errors"
	"github.com/julianstephens/cmucal/internal/ics"
)

const readingGroup = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//cmucal//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:reading\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART:20240103T100000Z\r\n" +
	"DTEND:20240103T110000Z\r\n" +
	"SUMMARY:Reading Group\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:later\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART:20240301T100000Z\r\n" +
	"DTEND:20240301T110000Z\r\n" +
	"SUMMARY:Out Of Range\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestGCalStatusCmd(t *testing.T) {
	b := clitest.NewBackend()
	ctx, out, _ := clitest.NewContext(t, b)

	require.NoError(t, (&GCalStatusCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "✓ Google Calendar is connected")
	assert.Contains(t, out.String(), "Importing: all calendars")

	b.Authorized = false
	out.Reset()
	require.NoError(t, (&GCalStatusCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "⊘ Google Calendar is not connected")
}

func TestGCalCalendarsCmd(t *testing.T) {
	b := clitest.NewBackend()
	ctx, out, _ := clitest.NewContext(t, b)
	ctx.Config.Google.CMUCalCalendarIDs = []string{"primary"}

	require.NoError(t, (&GCalCalendarsCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "[x] primary")
	assert.Contains(t, out.String(), "Me (primary) [cmucal]")

	b.Authorized = false
	err := (&GCalCalendarsCmd{}).Run(ctx)
	assert.ErrorIs(t, err, apperrors.ErrGoogleNotConnected)
}

func TestGCalSyncCmd(t *testing.T) {
	ctx, out, _ := clitest.NewContext(t, clitest.NewBackend())

	require.NoError(t, (&GCalSyncCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "✓ Imported 1 Google Calendar event(s)")
}

func TestGCalDisconnectCmd(t *testing.T) {
	b := clitest.NewBackend()
	ctx, out, _ := clitest.NewContext(t, b)

	require.NoError(t, (&GCalDisconnectCmd{Yes: true}).Run(ctx))
	assert.True(t, b.Unauthorized)
	assert.False(t, b.Authorized)
	assert.Contains(t, out.String(), "✓ Google Calendar disconnected")
}

func TestICSAddListRemove(t *testing.T) {
	ctx, out, _ := clitest.NewContext(t, nil)

	require.NoError(t, (&ICSAddCmd{URL: "webcal://example.com/cal.ics", Name: "Seminars"}).Run(ctx))
	require.Len(t, ctx.Config.ICS, 1)
	assert.Equal(t, "ics-1", ctx.Config.ICS[0].ID)
	assert.Equal(t, "https://example.com/cal.ics", ctx.Config.ICS[0].URL)

	saved, err := config.Load(ctx.ConfigPath)
	require.NoError(t, err)
	require.Len(t, saved.ICS, 1)

	err = (&ICSAddCmd{URL: "https://example.com/other.ics", ID: "ics-1"}).Run(ctx)
	assert.ErrorContains(t, err, "duplicate")
	assert.Len(t, ctx.Config.ICS, 1)

	err = (&ICSAddCmd{URL: "ftp://example.com/cal.ics"}).Run(ctx)
	assert.Error(t, err)

	out.Reset()
	require.NoError(t, (&ICSListCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "ics-1")
	assert.Contains(t, out.String(), "Seminars")

	require.NoError(t, ctx.Store.SetItem(ics.CacheKey("ics-1"), "{}"))
	require.NoError(t, (&ICSRemoveCmd{ID: "ics-1"}).Run(ctx))
	assert.Empty(t, ctx.Config.ICS)
	keys, err := ctx.Store.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	assert.Error(t, (&ICSRemoveCmd{ID: "ics-1"}).Run(ctx))
}

func TestICSImportCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(readingGroup))
	}))
	t.Cleanup(srv.Close)

	ctx, out, _ := clitest.NewContext(t, nil)
	ctx.Config.ICS = []config.ICSConfig{{ID: "lab", Name: "Lab", URL: srv.URL}}

	require.NoError(t, (&ICSImportCmd{}).Run(ctx))
	assert.Contains(t, out.String(), "2024-01-03")
	assert.Contains(t, out.String(), "10:00-11:00  Reading Group  · Lab")
	assert.NotContains(t, out.String(), "Out Of Range")
	assert.Contains(t, out.String(), "✓ 1 event(s) imported")

	_, err := ctx.Store.GetItem(ics.CacheKey("lab"))
	assert.NoError(t, err, "feed body is cached")

	err = (&ICSImportCmd{IDs: []string{"missing"}}).Run(ctx)
	assert.ErrorContains(t, err, "no ICS feed")
}

func TestICSImportCmd_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reading.ics")
	require.NoError(t, os.WriteFile(path, []byte(readingGroup), 0o600))

	ctx, out, _ := clitest.NewContext(t, nil)

	require.NoError(t, (&ICSImportCmd{File: path, Days: 90}).Run(ctx))
	assert.Contains(t, out.String(), "Reading Group  · reading")
	assert.Contains(t, out.String(), "Out Of Range")
	assert.Contains(t, out.String(), "✓ 2 event(s) imported")
}

func TestICSImportCmd_NoFeeds(t *testing.T) {
	ctx, _, _ := clitest.NewContext(t, nil)
	assert.ErrorContains(t, (&ICSImportCmd{}).Run(ctx), "no ICS feeds configured")
}
