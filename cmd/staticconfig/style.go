package main

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

type styles struct {
	title lipgloss.Style
	key   lipgloss.Style
	value lipgloss.Style
	muted lipgloss.Style
}

// newStyles returns colored styles when w is a terminal and plain ones
// otherwise.
func newStyles(w io.Writer) styles {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		plain := lipgloss.NewStyle()
		return styles{title: plain, key: plain, value: plain, muted: plain}
	}
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1),
		key: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98")),
		value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB")),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")),
	}
}
