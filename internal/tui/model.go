package tui

import (
	"context"
	"slices"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/cmucal/internal/explore"
	"github.com/julianstephens/cmucal/internal/models"
	"github.com/julianstephens/cmucal/internal/notifier"
	"github.com/julianstephens/cmucal/internal/session"
	"github.com/julianstephens/cmucal/internal/tui/components/agenda"
	"github.com/julianstephens/cmucal/internal/tui/components/categories"
	explorelist "github.com/julianstephens/cmucal/internal/tui/components/explore"
	"github.com/julianstephens/cmucal/internal/tui/components/schedules"
	"github.com/julianstephens/cmucal/internal/validation"
)

type Tab int

const (
	TabAgenda Tab = iota
	TabCategories
	TabSchedules
	TabExplore
)

var tabTitles = []string{"Agenda", "Categories", "Schedules", "Explore"}

// Backend is the slice of the API the TUI calls directly. Everything else
// goes through the session.
type Backend interface {
	explore.Source
	ListSchedules(ctx context.Context) ([]models.ScheduleSummary, error)
}

type Deps struct {
	Ctx     context.Context
	Session *session.Session
	Backend Backend
	// Remember persists the selected schedule. Optional.
	Remember func(scheduleID string) error
	// Notices feeds the banner. Optional.
	Notices <-chan notifier.Notice
}

type Model struct {
	deps  Deps
	pager *explore.Pager

	tab       Tab
	keys      KeyMap
	help      help.Model
	notice    *notifier.Notice
	status    string
	conflicts []validation.Conflict
	busy      bool
	quitting  bool
	width     int
	height    int

	agenda     agenda.Model
	categories categories.Model
	schedules  schedules.Model
	explore    explorelist.Model
}

func NewModel(d Deps) Model {
	if d.Ctx == nil {
		d.Ctx = context.Background()
	}
	m := Model{
		deps:       d,
		pager:      explore.NewPager(d.Backend),
		tab:        TabAgenda,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		agenda:     agenda.New(0, 0),
		categories: categories.New(0, 0),
		schedules:  schedules.New(0, 0),
		explore:    explorelist.New(0, 0),
	}
	m.reload()
	return m
}

// reload rebuilds every view from the session.
func (m *Model) reload() {
	s := m.deps.Session
	days := s.Agenda()
	m.agenda.SetDays(days, s.Location())
	var events []models.Event
	for _, day := range days {
		events = append(events, day.Events...)
	}
	m.conflicts = validation.New().ValidateEvents(events, s.Location()).Conflicts
	m.categories.SetOrganizations(slices.Concat(s.Schedule.Courses(), s.Schedule.Clubs()), s.Schedule.VisibleCategories())
	m.schedules.SetActive(s.Schedule.ScheduleID())
	m.explore.RefreshSaved(s.Ledger.IsSaved)
}

func (m Model) ActiveTab() Tab { return m.tab }

func (m Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Tab, m.keys.Refresh, m.keys.Help, m.keys.Quit}
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Refresh, m.keys.Dismiss, m.keys.Help, m.keys.Quit}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}

	var actions []key.Binding
	switch m.tab {
	case TabAgenda:
		actions = []key.Binding{agenda.DefaultKeyMap().Save}
	case TabCategories:
		k := categories.DefaultKeyMap()
		actions = []key.Binding{k.Toggle, k.ShowAll}
	case TabSchedules:
		actions = []key.Binding{schedules.DefaultKeyMap().Select}
	case TabExplore:
		k := explorelist.DefaultKeyMap()
		actions = []key.Binding{k.Search, k.More, k.Save}
	}

	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.listenNotices(),
		m.loadSchedules(),
		m.search(""),
	)
}
