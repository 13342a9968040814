package cliui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Table writes rows as left-aligned columns. Cells may carry ANSI styling;
// widths are measured on the visible text. Cells wider than maxCell are
// truncated with an ellipsis; maxCell <= 0 disables truncation.
func Table(w io.Writer, header []string, rows [][]string, maxCell int) error {
	all := make([][]string, 0, len(rows)+1)
	if len(header) > 0 {
		styled := make([]string, len(header))
		for i, h := range header {
			styled[i] = KeyStyle.Render(h)
		}
		all = append(all, styled)
	}
	all = append(all, rows...)

	var widths []int
	for _, row := range all {
		for i, cell := range row {
			if maxCell > 0 {
				row[i] = ansi.Truncate(cell, maxCell, "…")
			}
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], ansi.StringWidth(row[i]))
		}
	}

	for _, row := range all {
		var b strings.Builder
		b.WriteString("  ")
		for i, cell := range row {
			b.WriteString(cell)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-ansi.StringWidth(cell)+2))
			}
		}
		if _, err := fmt.Fprintln(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}
