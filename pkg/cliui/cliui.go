// Package cliui provides the terminal helpers shared by fair commands:
// status marks, a spinner step, markdown rendering and plain tables.
package cliui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")

	DimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	WarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	NameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
	KeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Bold(true)
	ValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
	HeaderStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Step shows a spinner next to msg while fn runs, then replaces it with a
// mark for fn's result and the elapsed time. When animate is false only
// the final line is written, which keeps logs and pipes free of carriage
// returns.
func Step(w io.Writer, msg string, animate bool, fn func() error) error {
	done := make(chan struct{})
	stopped := make(chan struct{})
	var mu sync.Mutex

	if animate {
		go func() {
			defer close(stopped)
			ticker := time.NewTicker(80 * time.Millisecond)
			defer ticker.Stop()

			for frame := 0; ; frame++ {
				mu.Lock()
				fmt.Fprintf(w, "\r  %s %s", spinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)]), msg)
				mu.Unlock()

				select {
				case <-done:
					return
				case <-ticker.C:
				}
			}
		}()
	} else {
		close(stopped)
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	close(done)
	<-stopped

	prefix := "  "
	if animate {
		prefix = "\r  "
	}
	mu.Lock()
	fmt.Fprintf(w, "%s%s %s %s\n", prefix, Mark(err), msg, DimStyle.Render("("+FormatDuration(elapsed)+")"))
	mu.Unlock()

	return err
}

// Mark returns ✓ for a nil error and ✗ otherwise.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display, e.g. "12ms" or "3.2s".
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
