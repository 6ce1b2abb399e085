package recorder

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	table   table.Styles
	base    lipgloss.Style
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	hint    lipgloss.Style
	err     lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	torque  lipgloss.Style
	spark   lipgloss.Style
	section lipgloss.Style
}

func newStyles(dark bool) styles {
	fg := lipgloss.Color("#1F2937")
	muted := lipgloss.Color("#6B7280")
	accent := lipgloss.Color("#0E7490")

	if dark {
		fg = lipgloss.Color("#E5E7EB")
		muted = lipgloss.Color("#9CA3AF")
		accent = lipgloss.Color("#22D3EE")
	}

	t := table.DefaultStyles()
	t.Header = t.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(muted).
		BorderBottom(true).
		Bold(true)
	t.Selected = t.Selected.
		Foreground(lipgloss.Color("#111827")).
		Background(accent)

	return styles{
		table:   t,
		base:    lipgloss.NewStyle().Padding(1, 2),
		title:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		label:   lipgloss.NewStyle().Foreground(muted),
		value:   lipgloss.NewStyle().Foreground(fg),
		hint:    lipgloss.NewStyle().Foreground(muted).Italic(true),
		err:     lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true),
		torque:  lipgloss.NewStyle().Bold(true).Foreground(fg).Padding(0, 1),
		spark:   lipgloss.NewStyle().Foreground(accent),
		section: lipgloss.NewStyle().MarginTop(1),
	}
}
