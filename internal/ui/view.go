package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	styles := m.theme.Styles()
	listWidth, textWidth, bodyHeight := m.paneSizes()

	list := styles.FocusedPane.
		Width(listWidth).
		Height(bodyHeight).
		Render(m.renderButtons(listWidth, bodyHeight))
	text := styles.Pane.
		Width(textWidth).
		Height(bodyHeight).
		Render(m.viewport.View())

	sections := []string{
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, list, text),
	}
	if m.showLogs {
		sections = append(sections, m.renderLogs())
	}
	sections = append(sections, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	width := max(m.width-2, 10)

	lines := m.logLines
	if len(lines) > logPaneLines {
		lines = lines[len(lines)-logPaneLines:]
	}
	rendered := make([]string, 0, len(lines))
	for _, line := range lines {
		rendered = append(rendered, logLineStyle(line, styles).Render(truncate(line, width)))
	}
	return styles.Pane.
		Width(width).
		Height(logPaneLines).
		Render(strings.Join(rendered, "\n"))
}

// logLineStyle colours a slog text line by its level attribute.
func logLineStyle(line string, styles Styles) lipgloss.Style {
	switch {
	case strings.Contains(line, "level=ERROR"):
		return styles.DangerText
	case strings.Contains(line, "level=WARN"):
		return styles.WarningText
	case strings.Contains(line, "level=DEBUG"):
		return styles.FaintText
	default:
		return styles.MutedText
	}
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()

	var status string
	switch {
	case !m.bootstrapped:
		status = styles.WarningText.Render("no snapshot yet")
	case m.lastUpdate.IsZero():
		status = styles.MutedText.Render("loaded")
	default:
		status = styles.SuccessText.Render("updated " + formatAge(time.Since(m.lastUpdate)))
	}

	left := styles.Title.Render("codecks") + styles.MutedText.Render(" · "+m.account)
	right := status
	if m.notice != "" {
		right = styles.MutedText.Render(m.notice) + "  " + status
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return styles.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderButtons(width, height int) string {
	styles := m.theme.Styles()
	if len(m.buttons) == 0 {
		return styles.FaintText.Render("(no options)")
	}

	// Keep the cursor inside the visible window.
	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	end := min(start+height, len(m.buttons))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		label := truncate(m.buttons[i].Text, width-2)
		if i == m.cursor {
			lines = append(lines, styles.Selected.Width(width).Render("› "+label))
			continue
		}
		lines = append(lines, styles.Text.Render("  "+label))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	if m.typing {
		return styles.Footer.Width(m.width).Render(m.input.View())
	}
	return styles.Footer.Width(m.width).Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}

func (m Model) renderHelp() string {
	m.help.ShowAll = true
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Render(m.theme.Styles().Title.Render("Keyboard Shortcuts") + "\n\n" + m.help.View(m.keys))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}
