package main

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF8C00"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CFCF")).Width(18)
	silentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	losingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))
	gainingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	sectionStyle = lipgloss.NewStyle().MarginTop(1)
)
