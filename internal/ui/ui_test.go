package ui

import (
	"bytes"
	"testing"
)

func TestPalette(t *testing.T) {
	t.Run("plain writer gets no escape codes", func(t *testing.T) {
		p := NewPalette(&bytes.Buffer{})

		tests := map[string]func(string) string{
			"title": p.Title,
			"ok":    p.OK,
			"err":   p.Err,
			"warn":  p.Warn,
			"help":  p.Help,
		}
		for name, render := range tests {
			if got := render("✓ done"); got != "✓ done" {
				t.Errorf("%s: expected unstyled text, got %q", name, got)
			}
		}
	})
}
