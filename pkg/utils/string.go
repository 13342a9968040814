// Package utils holds small helpers shared by the CLI and the gateway.
package utils

import "github.com/charmbracelet/x/ansi"

// Truncate cuts s to maxLen terminal cells and appends "...". Escape
// sequences don't count toward the width and wide runes are never split.
func Truncate(s string, maxLen int) string {
	if ansi.StringWidth(s) <= maxLen {
		return s
	}
	return ansi.Truncate(s, maxLen, "") + "..."
}
