package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	TextPrimary lipgloss.AdaptiveColor
	TextMuted   lipgloss.AdaptiveColor
	TextFaint   lipgloss.AdaptiveColor

	Accent  lipgloss.AdaptiveColor // Pınar green
	Success lipgloss.AdaptiveColor
	Warn    lipgloss.AdaptiveColor
	Error   lipgloss.AdaptiveColor

	Border   lipgloss.AdaptiveColor
	BorderHi lipgloss.AdaptiveColor

	TopBar      lipgloss.Style
	TopBarTitle lipgloss.Style
	TopBarBadge lipgloss.Style
	TopBarMeta  lipgloss.Style

	Pane        lipgloss.Style
	PaneFocused lipgloss.Style
	PaneTitle   lipgloss.Style
	PaneTitleF  lipgloss.Style
	Footer      lipgloss.Style
	InputBox    lipgloss.Style
	InputBoxF   lipgloss.Style
	Spinner     lipgloss.Style

	StockHealthy  lipgloss.Style
	StockWarning  lipgloss.Style
	StockCritical lipgloss.Style

	DemandHigh   lipgloss.Style
	DemandMedium lipgloss.Style
	DemandLow    lipgloss.Style

	Selected lipgloss.Style
	OK       lipgloss.Style
	ERR      lipgloss.Style
	Neutral  lipgloss.Style
	Toast    lipgloss.Style
	ToastErr lipgloss.Style
}

func NewTheme() Theme {
	if os.Getenv("STOKRADAR_NO_COLOR") == "1" {
		return newNoColorTheme()
	}
	return newPinarTheme()
}

func newPinarTheme() Theme {
	t := Theme{
		TextPrimary: lipgloss.AdaptiveColor{Light: "#1a2e1a", Dark: "#f2f2f2"},
		TextMuted:   lipgloss.AdaptiveColor{Light: "#4a5568", Dark: "#c7c7c7"},
		TextFaint:   lipgloss.AdaptiveColor{Light: "#999999", Dark: "#8d8d8d"},

		Accent:  lipgloss.AdaptiveColor{Light: "#47A141", Dark: "#5fc457"},
		Success: lipgloss.AdaptiveColor{Light: "#16a34a", Dark: "#46d1a0"},
		Warn:    lipgloss.AdaptiveColor{Light: "#d97706", Dark: "#f4b27d"},
		Error:   lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#ff7a7a"},

		Border:   lipgloss.AdaptiveColor{Light: "#e5e7eb", Dark: "#3a3a3a"},
		BorderHi: lipgloss.AdaptiveColor{Light: "#47A141", Dark: "#5fc457"},
	}

	t.TopBar = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.TopBarTitle = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.TopBarBadge = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.TopBarMeta = lipgloss.NewStyle().Foreground(t.TextMuted)

	t.Pane = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.Border).Padding(0, 1)
	t.PaneFocused = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.BorderHi).Padding(0, 1)
	t.PaneTitle = lipgloss.NewStyle().Bold(true).Foreground(t.TextMuted)
	t.PaneTitleF = lipgloss.NewStyle().Bold(true).Foreground(t.TextPrimary)
	t.Footer = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.InputBox = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.Border).Padding(0, 1)
	t.InputBoxF = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.BorderHi).Padding(0, 1)
	t.Spinner = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)

	t.StockHealthy = lipgloss.NewStyle().Foreground(t.Success)
	t.StockWarning = lipgloss.NewStyle().Foreground(t.Warn)
	t.StockCritical = lipgloss.NewStyle().Bold(true).Foreground(t.Error)

	t.DemandHigh = lipgloss.NewStyle().Bold(true).Foreground(t.Error)
	t.DemandMedium = lipgloss.NewStyle().Foreground(t.Warn)
	t.DemandLow = lipgloss.NewStyle().Foreground(t.Success)

	t.Selected = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.OK = lipgloss.NewStyle().Foreground(t.Success)
	t.ERR = lipgloss.NewStyle().Foreground(t.Error)
	t.Neutral = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.Toast = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.ToastErr = lipgloss.NewStyle().Bold(true).Foreground(t.Error)
	return t
}

func newNoColorTheme() Theme {
	t := Theme{
		TextPrimary: lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"},
		TextMuted:   lipgloss.AdaptiveColor{Light: "#333333", Dark: "#dddddd"},
		TextFaint:   lipgloss.AdaptiveColor{Light: "#555555", Dark: "#bbbbbb"},
		Border:      lipgloss.AdaptiveColor{Light: "#555555", Dark: "#777777"},
		BorderHi:    lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"},
	}
	plain := lipgloss.NewStyle().Foreground(t.TextPrimary)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)
	bold := lipgloss.NewStyle().Bold(true).Foreground(t.TextPrimary)

	t.TopBar = muted
	t.TopBarTitle = bold
	t.TopBarBadge = bold
	t.TopBarMeta = muted
	t.Pane = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.Border).Padding(0, 1)
	t.PaneFocused = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.BorderHi).Padding(0, 1)
	t.PaneTitle = bold
	t.PaneTitleF = bold
	t.Footer = muted
	t.InputBox = t.Pane
	t.InputBoxF = t.PaneFocused
	t.Spinner = bold
	t.StockHealthy = plain
	t.StockWarning = plain
	t.StockCritical = bold
	t.DemandHigh = bold
	t.DemandMedium = plain
	t.DemandLow = plain
	t.Selected = bold
	t.OK = plain
	t.ERR = bold
	t.Neutral = muted
	t.Toast = bold
	t.ToastErr = bold
	return t
}
