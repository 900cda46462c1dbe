package explore

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/cmucal/internal/models"
)

type SearchMsg struct {
	Term string
}

type LoadMoreMsg struct{}

type ToggleSaveMsg struct {
	EventID int64
}

type Item struct {
	Occurrence models.Occurrence
	Saved      bool
	When       string
}

func (i Item) Title() string {
	if i.Saved {
		return "★ " + i.Occurrence.Title
	}
	return "  " + i.Occurrence.Title
}

func (i Item) Description() string {
	desc := i.When
	if i.Occurrence.Location != "" {
		desc += " · " + i.Occurrence.Location
	}
	if i.Occurrence.OrgName != "" {
		desc += " · " + i.Occurrence.OrgName
	}
	return desc
}

func (i Item) FilterValue() string { return i.Occurrence.Title }

type KeyMap struct {
	Search key.Binding
	More   key.Binding
	Save   key.Binding
	Submit key.Binding
	Cancel key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Search: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "search"),
		),
		More: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "load more"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save/unsave"),
		),
		Submit: key.NewBinding(key.WithKeys("enter")),
		Cancel: key.NewBinding(key.WithKeys("esc")),
	}
}

var termStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

type Model struct {
	list    list.Model
	input   textinput.Model
	keys    KeyMap
	term    string
	hasMore bool
	loading bool
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, max(height-2, 0))
	l.Title = "Explore"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Search, keys.More, keys.Save}
	}

	ti := textinput.New()
	ti.Placeholder = "search events"
	ti.Prompt = "Search: "
	ti.CharLimit = 100

	return Model{list: l, input: ti, keys: keys, loading: true}
}

// SetResults replaces the listing. saved reports whether an event id is in
// the saved set.
func (m *Model) SetResults(occs []models.Occurrence, hasMore bool, saved func(int64) bool, loc *time.Location) {
	items := make([]list.Item, len(occs))
	for i, o := range occs {
		items[i] = Item{Occurrence: o, Saved: saved(o.CanonicalEventID()), When: formatWhen(o, loc)}
	}
	m.list.SetItems(items)
	m.hasMore = hasMore
	m.loading = false
}

// RefreshSaved re-marks the listed occurrences.
func (m *Model) RefreshSaved(saved func(int64) bool) {
	items := m.list.Items()
	for idx, it := range items {
		i := it.(Item)
		i.Saved = saved(i.Occurrence.CanonicalEventID())
		items[idx] = i
	}
	m.list.SetItems(items)
}

func formatWhen(o models.Occurrence, loc *time.Location) string {
	t, err := models.ParseEventTime(o.Start)
	if err != nil {
		return o.Start
	}
	if o.AllDay {
		return t.Format("Mon Jan 2") + " all day"
	}
	return t.In(loc).Format("Mon Jan 2 15:04")
}

func (m Model) Items() []Item {
	out := make([]Item, 0, len(m.list.Items()))
	for _, it := range m.list.Items() {
		out = append(out, it.(Item))
	}
	return out
}

func (m Model) Term() string { return m.term }

func (m Model) HasMore() bool { return m.hasMore }

// Focused reports whether keystrokes go to the search input.
func (m Model) Focused() bool {
	return m.input.Focused() || m.list.FilterState() == list.Filtering
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.input.Focused() {
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch {
			case key.Matches(msg, m.keys.Submit):
				m.input.Blur()
				m.term = m.input.Value()
				m.loading = true
				term := m.term
				return m, func() tea.Msg { return SearchMsg{Term: term} }
			case key.Matches(msg, m.keys.Cancel):
				m.input.Blur()
				m.input.SetValue(m.term)
				return m, nil
			}
		}
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Search):
			cmd = m.input.Focus()
			return m, cmd
		case key.Matches(msg, m.keys.More):
			if !m.hasMore || m.loading {
				return m, nil
			}
			m.loading = true
			return m, func() tea.Msg { return LoadMoreMsg{} }
		case key.Matches(msg, m.keys.Save):
			if i, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg { return ToggleSaveMsg{EventID: i.Occurrence.CanonicalEventID()} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Failed clears the loading marker after a page request error.
func (m *Model) Failed() {
	m.loading = false
}

func (m Model) View() string {
	header := m.input.View()
	if !m.input.Focused() {
		if m.term == "" {
			header = termStyle.Render("All upcoming events · press 'f' to search")
		} else {
			header = termStyle.Render("Results for \"" + m.term + "\" · press 'f' to search")
		}
	}

	var body string
	switch {
	case m.loading && len(m.list.Items()) == 0:
		body = "\n  Loading..."
	case len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering:
		body = "\n  No events found."
	default:
		body = m.list.View()
		if m.hasMore {
			body += "\n" + termStyle.Render("  press 'm' for more")
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

func (m *Model) SetSize(width, height int) {
	m.input.Width = max(width-len(m.input.Prompt)-1, 0)
	m.list.SetSize(width, max(height-2, 0))
}
