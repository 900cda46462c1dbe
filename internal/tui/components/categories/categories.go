package categories

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/cmucal/internal/models"
	"github.com/julianstephens/cmucal/internal/visibility"
)

type ToggleCategoryMsg struct {
	ID int64
}

type ShowAllMsg struct{}

type Item struct {
	Org      models.Organization
	Category models.Category
	Visible  bool
}

func (i Item) Title() string {
	if i.Visible {
		return "● " + i.Category.Name
	}
	return "○ " + i.Category.Name
}

func (i Item) Description() string {
	return i.Org.Name + " · " + i.Org.Type
}

func (i Item) FilterValue() string { return i.Org.Name + " " + i.Category.Name }

type KeyMap struct {
	Toggle  key.Binding
	ShowAll key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "show/hide"),
		),
		ShowAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "show all"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.Title = "Categories"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle, keys.ShowAll}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Toggle, keys.ShowAll}
	}

	return Model{list: l, keys: keys}
}

// SetOrganizations lists every category of orgs in order, marking the ones
// in visible.
func (m *Model) SetOrganizations(orgs []models.Organization, visible visibility.Set) {
	var items []list.Item
	for _, org := range orgs {
		for _, c := range org.Categories {
			items = append(items, Item{Org: org, Category: c, Visible: visible.Contains(c.ID)})
		}
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

func (m *Model) Select(index int) {
	m.list.Select(index)
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
		switch {
		case key.Matches(msg, m.keys.Toggle):
			if i, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg { return ToggleCategoryMsg{ID: i.Category.ID} }
			}
			return m, nil
		case key.Matches(msg, m.keys.ShowAll):
			return m, func() tea.Msg { return ShowAllMsg{} }
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && !m.Filtering() {
		return "\n  This schedule has no organizations.\n  Add one with 'cmucal org add'."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
