package display

import "github.com/charmbracelet/lipgloss"

// UI styles
var (
	userStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED"))

	pendingStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280")).
		Italic(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	limitStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B")).
		Bold(true)

	headingStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#3B82F6"))

	boldStyle = lipgloss.NewStyle().
		Bold(true)

	linkStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3B82F6")).
		Underline(true)

	downloadStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Underline(true).
		Bold(true)

	ruleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	attachmentStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	panelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(1, 2).
		Width(80)

	noticeStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B"))

	// Sentiment styles
	bullishStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3B82F6")).
		Bold(true)

	bearishStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	neutralStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B")).
		Bold(true)

	// Risk badge styles
	lowRiskStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3B82F6")).
		Bold(true)

	highRiskStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	mediumRiskStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B")).
		Bold(true)

	mutedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))
)
