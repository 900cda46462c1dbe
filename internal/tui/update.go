package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/cmucal/internal/explore"
	apperrors "github.com/julianstephens/cmucal/internal/errors"
	"github.com/julianstephens/cmucal/internal/ledger"
	"github.com/julianstephens/cmucal/internal/logger"
	"github.com/julianstephens/cmucal/internal/models"
	"github.com/julianstephens/cmucal/internal/notifier"
	"github.com/julianstephens/cmucal/internal/tui/components/agenda"
	"github.com/julianstephens/cmucal/internal/tui/components/categories"
	explorelist "github.com/julianstephens/cmucal/internal/tui/components/explore"
	"github.com/julianstephens/cmucal/internal/tui/components/schedules"
)

type noticeMsg notifier.Notice

type schedulesLoadedMsg struct {
	schedules []models.ScheduleSummary
	err       error
}

type scheduleSwitchedMsg struct {
	id  string
	err error
}

type savedMsg struct {
	mutation ledger.Mutation
	err      error
}

type refreshedMsg struct {
	err error
}

type exploreMsg struct {
	results []models.Occurrence
	hasMore bool
	err     error
}

func (m Model) listenNotices() tea.Cmd {
	ch := m.deps.Notices
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return noticeMsg(n)
	}
}

func (m Model) loadSchedules() tea.Cmd {
	ctx, backend := m.deps.Ctx, m.deps.Backend
	if backend == nil {
		return nil
	}
	return func() tea.Msg {
		list, err := backend.ListSchedules(ctx)
		return schedulesLoadedMsg{schedules: list, err: err}
	}
}

func (m Model) switchSchedule(id string) tea.Cmd {
	ctx, s := m.deps.Ctx, m.deps.Session
	return func() tea.Msg {
		return scheduleSwitchedMsg{id: id, err: s.Schedule.Switch(ctx, id)}
	}
}

func (m Model) toggleSaved(eventID int64) tea.Cmd {
	ctx, s := m.deps.Ctx, m.deps.Session
	return func() tea.Msg {
		mut, err := s.ToggleSaved(ctx, eventID)
		return savedMsg{mutation: mut, err: err}
	}
}

func (m Model) refresh() tea.Cmd {
	ctx, s := m.deps.Ctx, m.deps.Session
	return func() tea.Msg {
		var errs []error
		if err := s.Schedule.Refresh(ctx); err != nil {
			errs = append(errs, err)
		}
		if err := s.Ledger.Sync(ctx); err != nil {
			errs = append(errs, err)
		}
		if err := s.SyncImports(ctx); err != nil {
			errs = append(errs, err)
		}
		return refreshedMsg{err: errors.Join(errs...)}
	}
}

func (m Model) search(term string) tea.Cmd {
	ctx, pager := m.deps.Ctx, m.pager
	if m.deps.Backend == nil {
		return nil
	}
	return func() tea.Msg {
		results, err := pager.Reset(ctx, explore.Filter{Term: term})
		return exploreMsg{results: results, hasMore: pager.HasMore(), err: err}
	}
}

func (m Model) loadMore() tea.Cmd {
	ctx, pager := m.deps.Ctx, m.pager
	return func() tea.Msg {
		results, err := pager.More(ctx)
		return exploreMsg{results: results, hasMore: pager.HasMore(), err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		h, v := docStyle.GetFrameSize()
		// rows for the tab bar and footer
		listHeight := max(msg.Height-v-4, 0)
		m.agenda.SetSize(msg.Width-h, listHeight)
		m.categories.SetSize(msg.Width-h, listHeight)
		m.schedules.SetSize(msg.Width-h, listHeight)
		m.explore.SetSize(msg.Width-h, listHeight)
		return m, nil

	case tea.KeyMsg:
		if handled, cmd := m.handleGlobalKeys(msg); handled {
			return m, cmd
		}

	case noticeMsg:
		n := notifier.Notice(msg)
		m.notice = &n
		return m, m.listenNotices()

	case schedulesLoadedMsg:
		if msg.err != nil {
			logger.Error("Failed to list schedules", "error", msg.err)
			m.status = "Could not load schedules"
			return m, nil
		}
		m.schedules.SetSchedules(msg.schedules)
		m.schedules.SetActive(m.deps.Session.Schedule.ScheduleID())
		return m, nil

	case scheduleSwitchedMsg:
		m.busy = false
		if errors.Is(msg.err, apperrors.ErrSuperseded) {
			return m, nil
		}
		if msg.err != nil {
			m.status = apperrors.Friendly(msg.err)
			m.reload()
			return m, nil
		}
		if m.deps.Remember != nil {
			if err := m.deps.Remember(msg.id); err != nil {
				logger.Warn("Failed to remember schedule", "schedule", msg.id, "error", err)
			}
		}
		m.status = "Switched to schedule " + msg.id
		m.reload()
		return m, nil

	case savedMsg:
		m.reload()
		if msg.err != nil {
			m.status = apperrors.Friendly(msg.err)
			return m, nil
		}
		verb := "Saved"
		if msg.mutation.Kind == ledger.KindRemove {
			verb = "Unsaved"
		}
		name := msg.mutation.Title
		if name == "" {
			name = fmt.Sprintf("event %d", msg.mutation.EventID)
		}
		m.status = verb + " " + name
		return m, nil

	case refreshedMsg:
		m.busy = false
		m.reload()
		if msg.err != nil {
			logger.Error("Refresh failed", "error", msg.err)
			m.status = "Refresh failed: " + apperrors.Friendly(msg.err)
			return m, nil
		}
		m.status = "Refreshed"
		return m, m.loadSchedules()

	case exploreMsg:
		if errors.Is(msg.err, apperrors.ErrSuperseded) {
			return m, nil
		}
		if msg.err != nil {
			m.explore.Failed()
			m.status = "Explore failed: " + apperrors.Friendly(msg.err)
			return m, nil
		}
		s := m.deps.Session
		m.explore.SetResults(msg.results, msg.hasMore, s.Ledger.IsSaved, s.Location())
		return m, nil

	case agenda.ToggleSaveMsg:
		return m, m.toggleSaved(msg.EventID)

	case explorelist.ToggleSaveMsg:
		return m, m.toggleSaved(msg.EventID)

	case explorelist.SearchMsg:
		return m, m.search(msg.Term)

	case explorelist.LoadMoreMsg:
		return m, m.loadMore()

	case categories.ToggleCategoryMsg:
		if err := m.deps.Session.Schedule.ToggleCategory(msg.ID); err != nil {
			m.status = "Failed to update visibility: " + err.Error()
		}
		m.reload()
		return m, nil

	case categories.ShowAllMsg:
		if err := m.deps.Session.Schedule.ShowAll(); err != nil {
			m.status = "Failed to update visibility: " + err.Error()
		}
		m.reload()
		return m, nil

	case schedules.SelectScheduleMsg:
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.status = "Loading schedule " + msg.ID + "..."
		return m, m.switchSchedule(msg.ID)
	}

	switch m.tab {
	case TabAgenda:
		m.agenda, cmd = m.agenda.Update(msg)
	case TabCategories:
		m.categories, cmd = m.categories.Update(msg)
	case TabSchedules:
		m.schedules, cmd = m.schedules.Update(msg)
	case TabExplore:
		m.explore, cmd = m.explore.Update(msg)
	}
	return m, cmd
}

// capturing reports whether the active view consumes every keystroke.
func (m Model) capturing() bool {
	switch m.tab {
	case TabAgenda:
		return m.agenda.Filtering()
	case TabCategories:
		return m.categories.Filtering()
	case TabSchedules:
		return m.schedules.Filtering()
	case TabExplore:
		return m.explore.Focused()
	}
	return false
}

func (m *Model) handleGlobalKeys(msg tea.KeyMsg) (bool, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return true, tea.Quit
	}
	if m.capturing() {
		return false, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return true, tea.Quit
	case key.Matches(msg, m.keys.Tab):
		m.tab = (m.tab + 1) % Tab(len(tabTitles))
		return true, nil
	case key.Matches(msg, m.keys.ShiftTab):
		m.tab = (m.tab + Tab(len(tabTitles)) - 1) % Tab(len(tabTitles))
		return true, nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return true, nil
	case key.Matches(msg, m.keys.Dismiss):
		m.notice = nil
		return true, nil
	case key.Matches(msg, m.keys.Refresh):
		if m.busy {
			return true, nil
		}
		m.busy = true
		m.status = "Refreshing..."
		return true, m.refresh()
	}
	return false, nil
}
