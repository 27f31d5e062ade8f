package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorBright  = lipgloss.Color("#f9fafb")
	colorDimmed  = lipgloss.Color("#6b7280")
	colorBorder  = lipgloss.Color("#4b5563")
	colorHealthy = lipgloss.Color("#22c55e")
	colorWarning = lipgloss.Color("#d97706")
	colorDanger  = lipgloss.Color("#dc2626")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBright)
	countStyle = lipgloss.NewStyle().Bold(true).Foreground(colorWarning)
	dimStyle   = lipgloss.NewStyle().Foreground(colorDimmed)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2)
	onlineStyle   = lipgloss.NewStyle().Foreground(colorHealthy)
	offlineStyle  = lipgloss.NewStyle().Foreground(colorDanger)
	exceededStyle = lipgloss.NewStyle().Bold(true).Foreground(colorDanger)
)
