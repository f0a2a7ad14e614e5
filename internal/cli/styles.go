package cli

import "github.com/charmbracelet/lipgloss"

var (
	colorRed    = lipgloss.Color("#e11d48")
	colorYellow = lipgloss.Color("#d97706")
	colorDim    = lipgloss.Color("#64748b")
	colorHeader = lipgloss.Color("#2563eb")
)

var (
	styleTitle   = lipgloss.NewStyle().Foreground(colorHeader).Bold(true)
	styleSection = lipgloss.NewStyle().Bold(true).Underline(true)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleError   = lipgloss.NewStyle().Foreground(colorRed)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	styleBold    = lipgloss.NewStyle().Bold(true)
)
