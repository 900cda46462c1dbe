package agenda

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/cmucal/internal/calendar"
	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/models"
)

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func testDays() []calendar.Day {
	return []calendar.Day{{
		Date: "2024-01-02",
		Events: []models.Event{
			{
				ID: "100", Title: "Lecture", Start: "2024-01-02T10:00:00Z", End: "2024-01-02T11:20:00Z",
				ExtendedProps: models.ExtendedProps{EventID: 100, OrgName: "15-213", CalSource: constants.CalSourceCMUCal, IsSaved: true},
			},
			{
				ID: "gcal-dentist", Title: "Dentist", Start: "2024-01-02T14:00:00Z", End: "2024-01-02T15:00:00Z",
				ExtendedProps: models.ExtendedProps{CalSource: constants.CalSourceGCal},
			},
		},
	}}
}

func TestSetDays(t *testing.T) {
	m := New(80, 20)
	m.SetDays(testDays(), time.UTC)

	items := m.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "★ Lecture", items[0].Title())
	assert.Equal(t, "Tue Jan 2  10:00-11:20 · 15-213", items[0].Description())
	assert.Equal(t, "  Dentist", items[1].Title())
	assert.Contains(t, items[1].Description(), "[gcal]")
	assert.False(t, items[1].Saveable())
}

func TestSaveKey(t *testing.T) {
	m := New(80, 20)
	m.SetDays(testDays(), time.UTC)

	_, cmd := m.Update(keyRune('s'))
	require.NotNil(t, cmd)
	assert.Equal(t, ToggleSaveMsg{EventID: 100}, cmd())

	m.Select(1)
	_, cmd = m.Update(keyRune('s'))
	assert.Nil(t, cmd, "imported events cannot be saved")
}

func TestEmptyView(t *testing.T) {
	m := New(80, 20)
	assert.Contains(t, m.View(), "No upcoming events.")
}
