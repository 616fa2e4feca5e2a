package browse

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/voidhaven/sweeper/internal/tree"
	"github.com/voidhaven/sweeper/internal/ui"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	w := m.width
	if w < 40 {
		w = 40
	}

	if m.state == stateScanning {
		return m.renderScanning(w)
	}

	var s strings.Builder
	s.WriteString(m.renderHeader(w))
	s.WriteString("\n")
	s.WriteString(m.renderList(w))
	s.WriteString("\n")
	s.WriteString(m.renderFooter(w))
	return s.String()
}

// renderScanning shows live build progress from the polled counters.
func (m Model) renderScanning(w int) string {
	verb := "scanning"
	if m.progress.Phase() == tree.PhaseAssemble {
		verb = "building tree from"
	}

	lines := []string{
		"",
		fmt.Sprintf("  %s %s %s...", m.spin.View(), verb, m.root),
		"",
		fmt.Sprintf("    %s folders", ui.TitleStyle.Render(fmt.Sprintf("%d", m.progress.Dirs()))),
		fmt.Sprintf("    %s files", ui.TitleStyle.Render(fmt.Sprintf("%d", m.progress.Files()))),
		fmt.Sprintf("    %s", ui.TitleStyle.Render(ui.FormatSize(m.progress.Bytes()))),
		"",
		ui.DimStyle.Render("    press q to cancel"),
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorPrimary).
		Width(w - 2).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderHeader(w int) string {
	var total int64
	for _, e := range m.entries {
		if e.Name != tree.ParentName {
			total += e.Size
		}
	}
	sortStr := "size"
	if m.sort == sortByName {
		sortStr = "name"
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(ui.ColorCoral).
		Render("  " + ui.IconDiamond + " sweeper")

	info := fmt.Sprintf("  %s    %s", m.current, ui.FormatSize(total))
	if m.diskFree > 0 {
		info += ui.DimStyle.Render("    disk free " + ui.FormatSize(m.diskFree))
	}
	pathLine := lipgloss.NewStyle().Foreground(ui.ColorTextDim).Render(info)

	meta := ui.DimStyle.Render(fmt.Sprintf("  sort: %s %s %d items", sortStr, ui.IconChevron, m.itemCount()))

	inner := lipgloss.JoinVertical(lipgloss.Left, title, pathLine, meta)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorCoral).
		Width(w - 2).
		Render(inner)
}

func (m Model) itemCount() int {
	n := 0
	for _, e := range m.entries {
		if e.Name != tree.ParentName {
			n++
		}
	}
	return n
}

func (m Model) renderList(w int) string {
	if len(m.entries) == 0 {
		return ui.DimStyle.Italic(true).Render("  (empty directory)")
	}

	vh := m.viewportHeight()
	nameWidth := w - 24
	if nameWidth < 20 {
		nameWidth = 20
	}

	var lines []string
	for i := m.offset; i < len(m.entries) && i < m.offset+vh; i++ {
		lines = append(lines, m.renderEntry(m.entries[i], nameWidth, i == m.cursor))
	}

	if len(m.entries) > vh {
		lines = append(lines, ui.DimStyle.Render(
			fmt.Sprintf("  ── %d/%d ──", min(m.offset+vh, len(m.entries)), len(m.entries))))
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderEntry(e tree.Entry, nameWidth int, selected bool) string {
	prefix := "  "
	if e.IsDir {
		prefix = ui.IconFolder + " "
	}

	name := e.Name
	if utf8.RuneCountInString(name) > nameWidth {
		runes := []rune(name)
		name = string(runes[:nameWidth-1]) + "…"
	}

	size := ""
	if e.Name != tree.ParentName {
		size = ui.FormatSize(e.Size)
	}

	marker := ""
	if e.IsTemp {
		marker = " [temp]"
	}

	line := fmt.Sprintf("  %s%-*s %10s%s", prefix, nameWidth, name, size, marker)

	style := lipgloss.NewStyle().Foreground(ui.ColorText)
	switch {
	case selected:
		style = lipgloss.NewStyle().Background(lipgloss.Color("237")).Bold(true)
	case e.IsTemp:
		style = ui.DangerStyle
	case e.IsDir:
		style = lipgloss.NewStyle().Foreground(ui.ColorCoral)
	}
	return style.Render(line)
}

func (m Model) renderFooter(w int) string {
	var text string
	var style lipgloss.Style

	switch {
	case m.state == stateDeleting:
		text = " " + m.spin.View() + " deleting..."
		style = ui.WarningStyle
	case m.state == stateCleaning:
		text = " " + m.spin.View() + " cleaning subtree..."
		style = ui.WarningStyle
	case m.confirmDelete:
		e, _ := m.selected()
		text = fmt.Sprintf(" delete %q? (y/n, frees %s)", e.Name, ui.FormatSize(e.Size))
		style = ui.WarningStyle.Bold(true)
	case m.confirmClean:
		text = fmt.Sprintf(" clean all disposable entries under %q? (y/n)", m.current)
		style = ui.WarningStyle.Bold(true)
	case m.status != "":
		text = " " + m.status + ui.DimStyle.Render("  │  d delete  c clean  s sort  r refresh  q quit")
	default:
		text = ui.DimStyle.Render(" ↑↓ move  enter open  ← back  d delete  c clean  s sort  r refresh  q quit")
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorMuted).
		Width(w - 2).
		Render(style.Render(text))
}
