package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/cmucal/internal/notifier"
	"github.com/julianstephens/cmucal/internal/schedule"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.tab {
	case TabAgenda:
		content = m.agenda.View()
	case TabCategories:
		content = m.categories.View()
	case TabSchedules:
		content = m.schedules.View()
	case TabExplore:
		content = m.explore.View()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		m.viewStatus(),
		m.viewNotice(),
		docStyle.Render(content),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range tabTitles {
		if m.tab == Tab(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewStatus() string {
	st := m.deps.Session.Schedule.State()
	line := fmt.Sprintf("Schedule %s · %s", st.ScheduleID.OrElse("default"), st.Phase)
	if st.Phase == schedule.Error && st.Err != nil {
		line = dangerStyle.Render(fmt.Sprintf("Schedule %s failed to load", st.ScheduleID.OrElse("default")))
	}
	if n := len(m.conflicts); n > 0 {
		line += " · " + warningStyle.Render(fmt.Sprintf("⚠ %d conflict(s)", n))
	}
	if m.status != "" {
		status := m.status
		if m.busy {
			status = warningStyle.Render(status)
		}
		line += " · " + status
	}
	return statusStyle.Render(line)
}

func (m Model) viewNotice() string {
	if m.notice == nil {
		return ""
	}
	text := m.notice.Title
	if m.notice.Message != "" {
		text += ": " + m.notice.Message
	}
	text += "  (x to dismiss)"
	if m.notice.Level == notifier.LevelError {
		return dangerStyle.Render("✗ " + text)
	}
	return infoStyle.Render("• " + text)
}
