// Package ui holds the console styling shared by cranio's non-interactive
// commands.
package ui

import (
	"github.com/pterm/pterm"
)

// DarkTheme selects the light variants of each colour.
var DarkTheme bool

type palette struct {
	light pterm.Color
	dark  pterm.Color
}

var (
	green     = palette{pterm.FgGreen, pterm.FgLightGreen}
	cyan      = palette{pterm.FgCyan, pterm.FgLightCyan}
	red       = palette{pterm.FgRed, pterm.FgLightRed}
	yellow    = palette{pterm.FgYellow, pterm.FgLightYellow}
	highlight = palette{pterm.FgBlack, pterm.FgLightWhite}
)

func (p palette) sprint(a any) string {
	if DarkTheme {
		return p.dark.Sprint(a)
	}

	return p.light.Sprint(a)
}

func Green(a any) string { return green.sprint(a) }

func Cyan(a any) string { return cyan.sprint(a) }

func Red(a any) string { return red.sprint(a) }

func Yellow(a any) string { return yellow.sprint(a) }

func Highlight(a any) string { return highlight.sprint(a) }

// Status colours a document's completion state.
func Status(completed, finalized bool) string {
	switch {
	case finalized:
		return Green("finalized")
	case completed:
		return Yellow("completed")
	default:
		return Red("open")
	}
}
