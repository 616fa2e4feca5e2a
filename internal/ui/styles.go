// Package ui holds the shared visual vocabulary: color tokens, icons,
// and size formatting used by every command and the interactive browser.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Color tokens. Every package renders through these so the palette
// stays consistent across commands.
var (
	ColorPrimary = lipgloss.Color("86")  // aqua — cursor, emphasis
	ColorCoral   = lipgloss.Color("210") // coral — browser directories
	ColorText    = lipgloss.Color("252")
	ColorTextDim = lipgloss.Color("245")
	ColorMuted   = lipgloss.Color("241")
	ColorWarning = lipgloss.Color("214") // amber — dry-run, large entries
	ColorDanger  = lipgloss.Color("203") // red — disposable matches, errors
	ColorSuccess = lipgloss.Color("84")
)

// Icons used in headers and footers.
const (
	IconDiamond = "◆"
	IconChevron = "›"
	IconFolder  = "▸"
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	DimStyle     = lipgloss.NewStyle().Foreground(ColorMuted)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	DangerStyle  = lipgloss.NewStyle().Foreground(ColorDanger)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
)

// FormatSize renders a byte count in binary units (KiB, MiB, ...).
func FormatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
