package cmd

import (
	"github.com/charmbracelet/glamour"
)

// renderMarkdown renders markdown for the terminal, or returns it unchanged
// if it cannot.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
