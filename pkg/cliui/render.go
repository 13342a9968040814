package cliui

import (
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const defaultWrap = 100

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of w, or fallback when w is not a
// terminal.
func Width(w io.Writer, fallback int) int {
	f, ok := w.(*os.File)
	if !ok {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

// SetupColor aligns lipgloss with the color support of w so styled output
// degrades to plain text when piped.
func SetupColor(w io.Writer) {
	lipgloss.SetColorProfile(termenv.NewOutput(w).EnvColorProfile())
}

// RenderMarkdown renders markdown for w. Non-terminals get the plain
// "notty" style so summaries stay readable in files.
func RenderMarkdown(w io.Writer, content string) (string, error) {
	opts := []glamour.TermRendererOption{
		glamour.WithWordWrap(min(Width(w, defaultWrap), defaultWrap)),
	}
	if IsTerminal(w) && termenv.NewOutput(w).EnvColorProfile() != termenv.Ascii {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle("notty"))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}
	return rendered, nil
}
