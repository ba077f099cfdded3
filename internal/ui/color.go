// Package ui provides terminal styling for agentskills output.
package ui

import (
	"github.com/fatih/color"
)

var (
	// Success paints completed work green.
	Success = color.New(color.FgGreen).SprintFunc()
	// Error paints failures red.
	Error = color.New(color.FgRed).SprintFunc()
	// Warning paints degraded outcomes yellow.
	Warning = color.New(color.FgYellow).SprintFunc()
	// Info paints neutral outcomes cyan.
	Info = color.New(color.FgCyan).SprintFunc()
	// Bold emphasises names.
	Bold = color.New(color.Bold).SprintFunc()
)

// Status symbols.
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolSkipped = "-"
)

func mark(symbol, msg string) string {
	if msg == "" {
		return symbol
	}
	return symbol + " " + msg
}

// StatusSuccess prefixes msg with a green check mark.
func StatusSuccess(msg string) string { return mark(Success(SymbolSuccess), msg) }

// StatusError prefixes msg with a red cross.
func StatusError(msg string) string { return mark(Error(SymbolError), msg) }

// StatusWarning prefixes msg with a yellow warning sign.
func StatusWarning(msg string) string { return mark(Warning(SymbolWarning), msg) }

// StatusSkipped prefixes msg with a muted dash.
func StatusSkipped(msg string) string { return mark(Muted(SymbolSkipped), msg) }

// DisableColors turns off styled output for fatih/color and the lipgloss
// helpers in this package.
func DisableColors() {
	color.NoColor = true
}

// EnableColors turns styled output back on.
func EnableColors() {
	color.NoColor = false
}

// IsColorEnabled reports whether output is styled.
func IsColorEnabled() bool {
	return !color.NoColor
}
