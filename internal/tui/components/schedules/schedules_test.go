package schedules

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/cmucal/internal/models"
)

func TestSetActive(t *testing.T) {
	m := New(80, 20)
	m.SetActive("8")
	m.SetSchedules([]models.ScheduleSummary{{ID: 7, Name: "Spring"}, {ID: 8, Name: "Fall"}})

	items := m.Items()
	require.Len(t, items, 2)
	assert.False(t, items[0].Active)
	assert.True(t, items[1].Active)
	assert.Equal(t, "▸ Fall", items[1].Title())
	assert.Equal(t, "schedule 8 · selected", items[1].Description())
}

func TestSelectKey(t *testing.T) {
	m := New(80, 20)
	m.SetSchedules([]models.ScheduleSummary{{ID: 7, Name: "Spring"}, {ID: 8, Name: "Fall"}})
	m.SetActive("7")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "selecting the active schedule is a no-op")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, SelectScheduleMsg{ID: "8"}, cmd())
}
