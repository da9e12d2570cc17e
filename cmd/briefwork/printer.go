package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/c360studio/briefwork/config"
	"github.com/c360studio/briefwork/export"
	"github.com/c360studio/briefwork/storage"
	"github.com/c360studio/briefwork/synthesis"
	"github.com/c360studio/briefwork/workshop"
)

var (
	// Color definitions
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
	faint  = color.New(color.Faint)
)

// printer writes command output. Colors follow fatih/color's terminal
// detection and the NO_COLOR convention.
type printer struct {
	out io.Writer
	err io.Writer
}

// Success prints a message in green with a checkmark prefix.
func (p printer) Success(format string, a ...any) {
	green.Fprintf(p.out, "✓ %s\n", fmt.Sprintf(format, a...))
}

// Info prints a plain line.
func (p printer) Info(format string, a ...any) {
	fmt.Fprintf(p.out, format+"\n", a...)
}

// Warning prints a message in yellow.
func (p printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.out, "! %s\n", fmt.Sprintf(format, a...))
}

// Heading prints a bold section title.
func (p printer) Heading(title string) {
	bold.Fprintln(p.out, title)
}

// Step prints a step in a multi-step operation.
func (p printer) Step(format string, a ...any) {
	cyan.Fprintf(p.out, "→ %s\n", fmt.Sprintf(format, a...))
}

// Field prints an aligned label/value pair; empty values render as a dash.
func (p printer) Field(label, value string) {
	if strings.TrimSpace(value) == "" {
		faint.Fprintf(p.out, "  %-22s -\n", label+":")
		return
	}
	lines := strings.Split(value, "\n")
	fmt.Fprintf(p.out, "  %-22s %s\n", label+":", lines[0])
	for _, l := range lines[1:] {
		fmt.Fprintf(p.out, "  %-22s %s\n", "", l)
	}
}

// Failure prints a title, explanation and suggestions to stderr.
func (p printer) Failure(m synthesis.Message) {
	red.Fprintf(p.err, "%s\n", m.Title)
	if m.Explanation != "" {
		fmt.Fprintf(p.err, "\n%s\n", m.Explanation)
	}
	if len(m.Suggestions) == 1 {
		fmt.Fprintf(p.err, "\n%s\n", m.Suggestions[0])
	} else if len(m.Suggestions) > 1 {
		fmt.Fprintf(p.err, "\nEither:\n")
		for i, s := range m.Suggestions {
			fmt.Fprintf(p.err, "  %d. %s\n", i+1, s)
		}
	}
}

// describe turns any command error into a message for the facilitator.
func describe(err error) synthesis.Message {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return synthesis.Message{
			Title:       "Session not found",
			Explanation: err.Error(),
			Suggestions: []string{"Run 'briefwork session list' to see saved sessions", "Run 'briefwork session new' to start one"},
		}
	case errors.Is(err, storage.ErrInvalidID):
		return synthesis.Message{Title: "Invalid session id", Explanation: err.Error()}
	case errors.Is(err, workshop.ErrInvalidPhase):
		return synthesis.Message{
			Title:       "Unknown phase",
			Explanation: err.Error(),
			Suggestions: []string{"Run 'briefwork phase' to list the phases"},
		}
	case errors.Is(err, workshop.ErrTerminalPhase), errors.Is(err, workshop.ErrFirstPhase):
		return synthesis.Message{Title: "Cannot move", Explanation: err.Error()}
	case errors.Is(err, workshop.ErrInvalidBucket):
		return synthesis.Message{
			Title:       "Unknown bucket",
			Explanation: err.Error(),
			Suggestions: []string{"Use one of: willHave, couldHave, wontHave (or will, could, wont)"},
		}
	case errors.Is(err, workshop.ErrInvalidReference):
		return synthesis.Message{
			Title:       "Unknown reference",
			Explanation: err.Error(),
			Suggestions: []string{"List ids with 'briefwork note list', 'cluster list' or 'card list'"},
		}
	case errors.Is(err, workshop.ErrInvalidProvider):
		return synthesis.Message{
			Title:       "Unknown provider",
			Explanation: err.Error(),
			Suggestions: []string{"Use one of: openai, anthropic, ollama, mock"},
		}
	case errors.Is(err, workshop.ErrInvalidDuration):
		return synthesis.Message{Title: "Invalid duration", Explanation: err.Error()}
	case errors.Is(err, export.ErrUnknownFormat):
		return synthesis.Message{
			Title:       "Unknown format",
			Explanation: err.Error(),
			Suggestions: []string{"Use one of: markdown, json, text"},
		}
	case errors.Is(err, config.ErrInvalidConfig):
		return synthesis.Message{
			Title:       "Invalid configuration",
			Explanation: err.Error(),
			Suggestions: []string{"Check " + config.ProjectConfigFile + ", ~/" + config.UserConfigDir + "/" + config.UserConfigFile + " and BRIEFWORK_* variables"},
		}
	}
	return synthesis.UserMessage(err)
}
