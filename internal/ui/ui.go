// Package ui styles terminal output with lipgloss.
//
// A [Palette] renders against the writer it was built for, so output piped to a file
// or captured in a buffer carries no escape codes.
package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorTitle = "#7D56F4"
	colorOK    = "#04B575"
	colorError = "#FF0000"
	colorWarn  = "#FFA500"
	colorHelp  = "#626262"
)

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

// NewPalette builds the default palette for output written to w.
func NewPalette(w io.Writer) *Palette {
	r := lipgloss.NewRenderer(w)
	style := func(fg string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(fg))
	}

	return &Palette{
		title: style(colorTitle).Bold(true),
		ok:    style(colorOK).Bold(true),
		err:   style(colorError).Bold(true),
		warn:  style(colorWarn),
		help:  style(colorHelp).Italic(true),
	}
}

func (p *Palette) Title(s string) string { return p.title.Render(s) }
func (p *Palette) OK(s string) string    { return p.ok.Render(s) }
func (p *Palette) Err(s string) string   { return p.err.Render(s) }
func (p *Palette) Warn(s string) string  { return p.warn.Render(s) }
func (p *Palette) Help(s string) string  { return p.help.Render(s) }
