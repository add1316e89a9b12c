package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Level is the severity of a message
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// Message is a formatted command message with optional hints
type Message struct {
	Level       Level
	Context     string
	Problem     string
	Suggestions []string
	Hints       []string
	NoColor     bool
}

// String formats the message
//
// Example output:
//
//	✗ TABLE NOT FOUND: evnts
//	   Did you mean: events?
//	   → List tables: customtables tables
func (m Message) String() string {
	var b strings.Builder

	var head *color.Color
	var symbol string
	switch m.Level {
	case LevelWarning:
		head, symbol = color.New(color.FgYellow, color.Bold), "!"
	case LevelInfo:
		head, symbol = color.New(color.FgCyan, color.Bold), "i"
	default:
		head, symbol = color.New(color.FgRed, color.Bold), "✗"
	}
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)
	if m.NoColor {
		head.DisableColor()
		yellow.DisableColor()
		cyan.DisableColor()
	}

	if m.Context != "" {
		head.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(m.Context), m.Problem)
	} else {
		head.Fprintf(&b, "%s %s\n", symbol, m.Problem)
	}
	if len(m.Suggestions) > 0 {
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(m.Suggestions, ", "))
	}
	for _, hint := range m.Hints {
		cyan.Fprintf(&b, "   → %s\n", hint)
	}
	return b.String()
}

// Write writes the formatted message to w
func (m Message) Write(w io.Writer) {
	fmt.Fprint(w, m.String())
}

// TableNotFound describes a table missing from the entity definitions
func TableNotFound(name string, known []string, noColor bool) Message {
	return Message{
		Level:       LevelError,
		Context:     "table not found",
		Problem:     name,
		Suggestions: Suggest(name, known),
		Hints:       []string{"List tables: customtables tables"},
		NoColor:     noColor,
	}
}

// Warning describes a non-fatal problem
func Warning(problem string, noColor bool) Message {
	return Message{Level: LevelWarning, Problem: problem, NoColor: noColor}
}

// Success formats a success line
func Success(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}
