package categories

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/cmucal/internal/models"
	"github.com/julianstephens/cmucal/internal/visibility"
)

func testOrgs() []models.Organization {
	return []models.Organization{
		{OrgID: 1, Name: "15-213", Type: "COURSE", Categories: []models.Category{{ID: 10, Name: "Lectures"}, {ID: 11, Name: "Office Hours"}}},
		{OrgID: 2, Name: "ScottyLabs", Type: "CLUB", Categories: []models.Category{{ID: 20, Name: "Meetings"}}},
	}
}

func TestSetOrganizations(t *testing.T) {
	m := New(80, 20)
	m.SetOrganizations(testOrgs(), visibility.NewSet(10, 20))

	items := m.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "● Lectures", items[0].Title())
	assert.Equal(t, "○ Office Hours", items[1].Title())
	assert.Equal(t, "ScottyLabs · CLUB", items[2].Description())
}

func TestToggleKeys(t *testing.T) {
	m := New(80, 20)
	m.SetOrganizations(testOrgs(), visibility.NewSet())

	m.Select(1)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.NotNil(t, cmd)
	assert.Equal(t, ToggleCategoryMsg{ID: 11}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	require.NotNil(t, cmd)
	assert.Equal(t, ShowAllMsg{}, cmd())
}

func TestEmptyView(t *testing.T) {
	m := New(80, 20)
	assert.Contains(t, m.View(), "no organizations")
}
