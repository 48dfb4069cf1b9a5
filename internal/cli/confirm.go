// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// RequireConfirmation gates destructive operations. The rules, in
// order:
//
//   - --confirm was passed: proceed
//   - JSON mode without --confirm: refuse, scripts must be explicit
//   - no terminal to prompt on: refuse for the same reason
//   - otherwise ask interactively
func RequireConfirmation(confirmFlag bool, action string, jsonMode bool) error {
	if confirmFlag {
		return nil
	}
	if jsonMode {
		return NewValidationError("confirm", "", action+" requires --confirm in JSON mode", "--confirm")
	}
	if !CanPrompt() {
		return NewValidationError("confirm", "", action+" requires --confirm when not running interactively", "--confirm")
	}
	if !PromptYesNo(fmt.Sprintf("%s. Continue?", action)) {
		return ErrAborted
	}
	return nil
}

// ErrAborted reports that the user declined a confirmation prompt.
var ErrAborted = NewValidationError("confirm", "", "aborted", "")

// PromptYesNo asks a yes/no question on stdin. Defaults to no: bare
// Enter, EOF, and unrecognized input all decline.
func PromptYesNo(question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintln(os.Stderr)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
