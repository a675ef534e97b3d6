package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/imkarma/rcvlf/internal/score"
	"github.com/imkarma/rcvlf/internal/task"
	"github.com/imkarma/rcvlf/internal/tree"
)

// --- Color palette ---
var (
	clrSubtle    = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#666666"}
	clrHighlight = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}
	clrGreen     = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	clrYellow    = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F59E0B"}
	clrRed       = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	clrBlue      = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	clrCyan      = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#22D3EE"}
	clrDim       = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#555555"}
)

// --- Styles ---
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	dimStyle    = lipgloss.NewStyle().Foreground(clrDim)
	idStyle     = lipgloss.NewStyle().Foreground(clrCyan)
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(clrYellow)
	readyStyle  = lipgloss.NewStyle().Foreground(clrGreen)
	cursorStyle = lipgloss.NewStyle().Foreground(clrHighlight)

	popupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(clrHighlight).
			Padding(1, 2).
			Width(60)

	statusStyle = lipgloss.NewStyle().Foreground(clrGreen).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(clrRed).Bold(true)

	footerKeyStyle  = lipgloss.NewStyle().Bold(true).Foreground(clrHighlight)
	footerDescStyle = lipgloss.NewStyle().Foreground(clrSubtle)
)

// statusStyles maps each status to its icon and color.
var statusStyles = map[task.Status]struct {
	icon  string
	style lipgloss.Style
}{
	task.StatusPending:    {"○", lipgloss.NewStyle().Foreground(clrBlue)},
	task.StatusActive:     {"●", lipgloss.NewStyle().Foreground(clrYellow)},
	task.StatusPlanned:    {"▤", lipgloss.NewStyle().Foreground(clrSubtle)},
	task.StatusDone:       {"✓", lipgloss.NewStyle().Foreground(clrGreen)},
	task.StatusIrrelevant: {"✗", dimStyle},
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	content := m.viewList()
	if m.popup != popupNone {
		content = m.overlayPopup(content)
	}
	return content
}

func (m Model) viewList() string {
	var b strings.Builder

	// Header.
	name := "tree"
	if m.screen == screenFrontier {
		name = "frontier"
	}
	header := titleStyle.Render("rcvlf " + name)
	header += dimStyle.Render(fmt.Sprintf(" · %d tasks", len(m.state.Tasks)))
	if active, ok := m.state.Get(m.state.ActiveTaskID); ok {
		header += dimStyle.Render(" · active: ") + activeStyle.Render(truncate(active.Name, 30))
	}
	b.WriteString(header + "\n")
	if len(m.state.Tasks) > 0 {
		if err := tree.Validate(m.state); err != nil {
			_, msg := task.Describe(err)
			b.WriteString(errorStyle.Render("  ⚠ "+msg) + "\n")
		}
	}
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(m.emptyMessage())
	} else {
		start, end := m.visibleRange()
		for i := start; i < end; i++ {
			b.WriteString(m.renderRow(m.rows[i], i == m.cursor) + "\n")
		}
		if t, ok := m.selected(); ok {
			b.WriteString("\n" + m.renderBreakdown(t) + "\n")
		}
	}

	// Status bar.
	if m.statusMsg != "" {
		b.WriteString("\n")
		if m.statusErr {
			b.WriteString(errorStyle.Render("  " + m.statusMsg))
		} else {
			b.WriteString(statusStyle.Render("  " + m.statusMsg))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m Model) emptyMessage() string {
	if m.screen == screenFrontier {
		return dimStyle.Render("  Frontier is empty. Nothing pending.\n")
	}
	return dimStyle.Render("  No tasks yet. Press ") + footerKeyStyle.Render("n") +
		dimStyle.Render(" to name your goal.\n")
}

// visibleRange returns the window of rows that fits the terminal, keeping
// the cursor in view.
func (m Model) visibleRange() (int, int) {
	height := len(m.rows)
	if m.height > 0 {
		// header, blank, breakdown, status and footer
		height = m.height - 8
		if height < 3 {
			height = 3
		}
	}
	if height >= len(m.rows) {
		return 0, len(m.rows)
	}
	start := m.cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > len(m.rows) {
		start = len(m.rows) - height
	}
	return start, start + height
}

func (m Model) renderRow(r row, selected bool) string {
	t := r.task

	cursor := "  "
	if selected {
		cursor = cursorStyle.Render("▸ ")
	}

	st, ok := statusStyles[t.Status]
	icon := "?"
	if ok {
		icon = st.style.Render(st.icon)
	}

	indent := strings.Repeat("  ", r.depth)
	name := truncate(t.Name, 40-len(indent))
	switch {
	case t.ID == m.state.ActiveTaskID:
		name = activeStyle.Render(name)
	case task.IsTerminal(t.Status):
		name = dimStyle.Render(name)
	}

	ready := " "
	if task.InFrontier(t) && score.IsReady(t, m.minConf) {
		ready = readyStyle.Render("★")
	}

	pad := 40 - len(indent) - lipgloss.Width(truncate(t.Name, 40-len(indent)))
	if pad < 0 {
		pad = 0
	}
	return fmt.Sprintf("%s%s%s %s%s %s %s %s",
		cursor, indent, icon, name, strings.Repeat(" ", pad),
		idStyle.Render(shortID(t.ID)), fmt.Sprintf("%5.1f", t.TotalScore), ready)
}

func (m Model) renderBreakdown(t task.Task) string {
	b := score.BreakdownOf(t)
	return dimStyle.Render(fmt.Sprintf("  %s  R %d + C×V %.1f (%.2f×%d) + L %d + F %d = %.1f",
		t.Status, b.Resolution, b.ConfidenceValue, t.Confidence, t.Value, b.Learning, b.Focus, b.Total))
}

func (m Model) footer() string {
	keys := []struct{ key, desc string }{
		{"↑↓", "move"},
		{"tab", "tree/frontier"},
		{"a", "activate"},
		{"d", "done"},
		{"x", "drop"},
		{"p", "plan"},
		{"+/-", "confidence"},
		{"v", "value"},
		{"l", "learning"},
		{"n", "new goal"},
		{"q", "quit"},
	}
	return renderFooter(keys)
}

// ════════════════════════════════════════════════
// POPUPS
// ════════════════════════════════════════════════

func (m Model) overlayPopup(bg string) string {
	var popup string

	switch m.popup {
	case popupRoot:
		popup = m.viewRootPopup()
	case popupPlan:
		popup = m.viewPlanPopup()
	default:
		return bg
	}

	// Place popup in center of screen.
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			popup,
			lipgloss.WithWhitespaceChars(" "),
		)
	}

	return popup
}

func (m Model) viewRootPopup() string {
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(clrHighlight).Render("New Goal")
	b.WriteString(title + "\n\n")
	b.WriteString("Name:\n")
	b.WriteString(m.textInput.View() + "\n\n")
	b.WriteString(footerDescStyle.Render("enter create • esc cancel"))

	return m.popupBoxStyle().Render(b.String())
}

func (m Model) viewPlanPopup() string {
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(clrYellow).Render("Plan Subtasks")
	b.WriteString(title + "\n\n")

	if parent, ok := m.state.Get(m.popupTaskID); ok {
		b.WriteString(fmt.Sprintf("Splitting %s\n\n", activeStyle.Render(parent.Name)))
	}
	for i, name := range m.planNames {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d. %s", i+1, name)) + "\n")
	}
	if len(m.planNames) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(m.textInput.View() + "\n\n")
	b.WriteString(footerDescStyle.Render("enter add • empty enter finish • esc cancel"))

	return m.popupBoxStyle().Render(b.String())
}

func (m Model) popupBoxStyle() lipgloss.Style {
	w := 60
	if m.width > 0 {
		w = m.width - 12
		if w < 42 {
			w = 42
		}
		if w > 84 {
			w = 84
		}
	}
	return popupStyle.Width(w)
}

// ════════════════════════════════════════════════
// SHARED HELPERS
// ════════════════════════════════════════════════

func renderFooter(keys []struct{ key, desc string }) string {
	var parts []string
	for _, k := range keys {
		key := footerKeyStyle.Render(k.key)
		desc := footerDescStyle.Render(k.desc)
		parts = append(parts, key+" "+desc)
	}
	return "  " + strings.Join(parts, "  ")
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// truncate shortens s to at most maxLen runes.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		if maxLen < 0 {
			maxLen = 0
		}
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
