package schedules

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/cmucal/internal/models"
)

type SelectScheduleMsg struct {
	ID string
}

type Item struct {
	Schedule models.ScheduleSummary
	Active   bool
}

func (i Item) ID() string { return strconv.FormatInt(i.Schedule.ID, 10) }

func (i Item) Title() string {
	if i.Active {
		return "▸ " + i.Schedule.Name
	}
	return "  " + i.Schedule.Name
}

func (i Item) Description() string {
	if i.Active {
		return fmt.Sprintf("schedule %s · selected", i.ID())
	}
	return "schedule " + i.ID()
}

func (i Item) FilterValue() string { return i.Schedule.Name }

type KeyMap struct {
	Select key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "switch"),
		),
	}
}

type Model struct {
	list   list.Model
	keys   KeyMap
	active string
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.Title = "Schedules"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Select}
	}

	return Model{list: l, keys: keys}
}

func (m *Model) SetSchedules(summaries []models.ScheduleSummary) {
	items := make([]list.Item, len(summaries))
	for i, s := range summaries {
		items[i] = Item{Schedule: s}
	}
	m.list.SetItems(items)
	m.SetActive(m.active)
}

// SetActive marks the schedule with id as selected.
func (m *Model) SetActive(id string) {
	m.active = id
	items := m.list.Items()
	for idx, it := range items {
		i := it.(Item)
		i.Active = i.ID() == id
		items[idx] = i
	}
	m.list.SetItems(items)
}

func (m Model) Items() []Item {
	out := make([]Item, 0, len(m.list.Items()))
	for _, it := range m.list.Items() {
		out = append(out, it.(Item))
	}
	return out
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Filtering() {
			break
		}
		if key.Matches(msg, m.keys.Select) {
			if i, ok := m.list.SelectedItem().(Item); ok && !i.Active {
				id := i.ID()
				return m, func() tea.Msg { return SelectScheduleMsg{ID: id} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && !m.Filtering() {
		return "\n  No schedules yet.\n  Create one with 'cmucal schedule create'."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
