package agenda

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/cmucal/internal/calendar"
	"github.com/julianstephens/cmucal/internal/cli"
	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/models"
)

type ToggleSaveMsg struct {
	EventID int64
}

type Item struct {
	Event models.Event
	Day   string
	When  string
}

func (i Item) Title() string {
	if i.Event.ExtendedProps.IsSaved {
		return "★ " + i.Event.Title
	}
	return "  " + i.Event.Title
}

func (i Item) Description() string {
	desc := fmt.Sprintf("%s  %s", i.Day, i.When)
	props := i.Event.ExtendedProps
	if props.OrgName != "" {
		desc += " · " + props.OrgName
	}
	if props.CalSource != "" && props.CalSource != constants.CalSourceCMUCal {
		desc += " [" + props.CalSource + "]"
	}
	if props.CategoryHidden {
		desc += " (hidden category)"
	}
	return desc
}

func (i Item) FilterValue() string { return i.Event.Title + " " + i.Event.ExtendedProps.OrgName }

// Saveable reports whether the event is backed by a CMUCal event id.
func (i Item) Saveable() bool { return i.Event.ExtendedProps.EventID != 0 }

type KeyMap struct {
	Save key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save/unsave"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.Title = "Agenda"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Save}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Save}
	}

	return Model{list: l, keys: keys}
}

// SetDays replaces the listing, keeping the cursor in place.
func (m *Model) SetDays(days []calendar.Day, loc *time.Location) {
	var items []list.Item
	for _, day := range days {
		heading := day.Date
		if t, err := time.ParseInLocation(constants.DateFormat, day.Date, loc); err == nil {
			heading = t.Format("Mon Jan 2")
		}
		for _, ev := range day.Events {
			items = append(items, Item{Event: ev, Day: heading, When: cli.FormatEventTime(ev, loc)})
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
		if key.Matches(msg, m.keys.Save) {
			if i, ok := m.list.SelectedItem().(Item); ok && i.Saveable() {
				return m, func() tea.Msg { return ToggleSaveMsg{EventID: i.Event.ExtendedProps.EventID} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && !m.Filtering() {
		return "\n  No upcoming events.\n  Press 'r' to refresh."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
