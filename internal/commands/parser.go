// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the TUI.
package commands

import (
	"errors"
	"strings"
	"unicode"
)

// =============================================================================
// INVOCATION
// =============================================================================

// Invocation is one slash-command line split into its parts.
type Invocation struct {
	// Name is the command word as typed, e.g. "/locale".
	Name string

	// Args are the arguments with quoting already resolved.
	Args []string

	// Raw is the trimmed input line.
	Raw string
}

// IsCommand reports whether the input is a slash command rather than
// chat text.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// ParseLine splits a slash-command line into an Invocation. The second
// return is false for plain chat text, which never reaches the command
// system.
func ParseLine(input string) (Invocation, bool) {
	line := strings.TrimSpace(input)
	if !strings.HasPrefix(line, "/") {
		return Invocation{}, false
	}
	inv := Invocation{Raw: line}
	if fields := tokenize(line); len(fields) > 0 {
		inv.Name = fields[0]
		inv.Args = fields[1:]
	}
	return inv, true
}

// tokenize splits a command line into fields. A field quoted with '…'
// or "…" keeps its spaces, so Korean document names like
// "회의 기록.txt" survive as one argument. Inside quotes a backslash
// escapes the active quote character or another backslash; the quote
// marks themselves are stripped.
func tokenize(line string) []string {
	var (
		fields  []string
		field   strings.Builder
		quote   rune // active quote character, 0 outside quotes
		quoted  bool // the current field had quotes, so "" is a real field
		escaped bool
	)
	flush := func() {
		if field.Len() > 0 || quoted {
			fields = append(fields, field.String())
			field.Reset()
		}
		quoted = false
	}

	for _, r := range line {
		switch {
		case escaped:
			if r != quote && r != '\\' {
				field.WriteRune('\\')
			}
			field.WriteRune(r)
			escaped = false
		case quote != 0 && r == '\\':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				field.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			quoted = true
		case unicode.IsSpace(r):
			flush()
		default:
			field.WriteRune(r)
		}
	}
	if escaped {
		field.WriteRune('\\')
	}
	flush()
	return fields
}

// =============================================================================
// RESOLUTION
// =============================================================================

// ErrUnknownCommand reports a command word no registration matches.
var ErrUnknownCommand = errors.New("unknown command")

// ArgError reports an argument that fails a command's declaration.
type ArgError struct {
	Command string
	Arg     string
	Got     string // empty for a missing required argument
	Want    string // allowed values or a description of the argument
	Usage   string // the command's usage line, for the error tip
}

func (e *ArgError) Error() string {
	var b strings.Builder
	b.WriteString(e.Command)
	if e.Got == "" {
		b.WriteString(": missing <")
		b.WriteString(e.Arg)
		b.WriteString(">")
	} else {
		b.WriteString(": invalid ")
		b.WriteString(e.Arg)
		b.WriteString(" ")
		b.WriteString(e.Got)
	}
	if e.Want != "" {
		b.WriteString(" (")
		b.WriteString(e.Want)
		b.WriteString(")")
	}
	return b.String()
}

// Resolve looks up an invocation's command and checks its arguments
// against the declared ArgDefs: required arguments must be present and
// enum values must match one of the allowed values, case-insensitively.
// Returns ErrUnknownCommand or an *ArgError on failure.
func (r *Registry) Resolve(inv Invocation) (*Command, error) {
	cmd := r.Get(inv.Name)
	if cmd == nil {
		return nil, ErrUnknownCommand
	}
	for i, def := range cmd.Args {
		if i >= len(inv.Args) {
			if def.Required {
				return nil, &ArgError{
					Command: cmd.Name,
					Arg:     def.Name,
					Want:    def.Description,
					Usage:   cmd.Usage,
				}
			}
			break // positional: nothing after a missing optional
		}
		if def.Type != ArgTypeEnum || len(def.Values) == 0 {
			continue
		}
		if !matchesEnum(def.Values, inv.Args[i]) {
			return nil, &ArgError{
				Command: cmd.Name,
				Arg:     def.Name,
				Got:     inv.Args[i],
				Want:    strings.Join(def.Values, ", "),
				Usage:   cmd.Usage,
			}
		}
	}
	return cmd, nil
}

func matchesEnum(values []string, got string) bool {
	for _, v := range values {
		if strings.EqualFold(v, got) {
			return true
		}
	}
	return false
}
