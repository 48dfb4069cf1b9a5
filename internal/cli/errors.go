// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/jeranaias/nabi-tui/internal/api"
	"github.com/jeranaias/nabi-tui/internal/auth"
	"github.com/jeranaias/nabi-tui/internal/session"
)

// =============================================================================
// EXIT CODES
// =============================================================================

// Exit codes follow sysexits-style conventions so scripts can branch on
// failure class rather than parsing stderr.
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitAuthError    = 4
	ExitNetworkError = 5
	ExitNotFound     = 6
	ExitTimeout      = 7
	ExitRateLimited  = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError wraps a failure with the command and action that hit
// it, so `nabi docs sync` failures read differently from `nabi ask`.
type CommandError struct {
	Command string
	Action  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s %s: %v", e.Command, e.Action, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError wraps err with command context.
func NewCommandError(command, action string, err error) *CommandError {
	return &CommandError{Command: command, Action: action, Err: err}
}

// ValidationError reports unusable input along with an example of the
// accepted form.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	if e.Example != "" {
		return fmt.Sprintf("invalid %s %q: %s (example: %s)", e.Field, e.Value, e.Reason, e.Example)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, value, reason, example string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// NotFoundError reports a missing resource by type and identifier.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewNotFoundError builds a NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// GetExitCode maps an error to its exit code. Typed errors are checked
// first, then the shared sentinels from the service packages.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ExitUsageError
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return ExitNotFound
	}

	var cerr *api.ChatError
	if errors.As(err, &cerr) {
		switch cerr.Kind {
		case api.KindNetwork:
			return ExitNetworkError
		case api.KindTimeout:
			return ExitTimeout
		case api.KindRateLimit:
			return ExitRateLimited
		default:
			return ExitGeneralError
		}
	}

	switch {
	case errors.Is(err, api.ErrNotConfigured):
		return ExitConfigError
	case errors.Is(err, api.ErrAuthFailed),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrSessionExpired),
		errors.Is(err, auth.ErrNotSignedIn),
		errors.Is(err, auth.ErrInvalidEmail):
		return ExitAuthError
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, os.ErrNotExist):
		return ExitNotFound
	}

	return ExitGeneralError
}

// DisplayError prints err in the requested output mode: a JSON error
// envelope for scripts, styled stderr text otherwise.
func DisplayError(command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		NewJSONErrorResponse(command, err).StderrPrint()
		return
	}
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
}
