// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// =============================================================================
// JSON ENVELOPE
// =============================================================================

// JSONResponse is the envelope every --json command emits. Scripts key
// off Success and Command, then unpack Data per command.
type JSONResponse struct {
	Success   bool    `json:"success"`
	Command   string  `json:"command"`
	Data      any     `json:"data,omitempty"`
	Error     *string `json:"error,omitempty"`
	Timestamp string  `json:"timestamp"`
}

// NewJSONResponse builds a success envelope.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Command:   command,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// NewJSONErrorResponse builds a failure envelope from an error.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Success:   false,
		Command:   command,
		Error:     &msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Print writes the envelope to stdout, indented.
func (r *JSONResponse) Print() error {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// StderrPrint writes the envelope to stderr, for error paths where
// stdout must stay clean.
func (r *JSONResponse) StderrPrint() {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, `{"success":false,"error":%q}`+"\n", err.Error())
		return
	}
	fmt.Fprintln(os.Stderr, string(out))
}

// OutputJSON wraps data in a success envelope and prints it.
func OutputJSON(command string, data any) error {
	return NewJSONResponse(command, data).Print()
}

// =============================================================================
// COMMAND PAYLOADS
// =============================================================================

// VersionData is the version command payload.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// AskData is the ask command payload.
type AskData struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Agent     string `json:"agent,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Duration  string `json:"duration"`
}

// SessionData describes one saved chat in listings and exports.
type SessionData struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Messages  int    `json:"messages"`
	UpdatedAt string `json:"updated_at"`
	LocalOnly bool   `json:"local_only"`
	Active    bool   `json:"active,omitempty"`
}

// DocData describes one cached document.
type DocData struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	FileType   string `json:"file_type"`
	Chunks     int    `json:"chunks"`
	SizeBytes  int64  `json:"size_bytes"`
	UploadedAt string `json:"uploaded_at"`
}

// SyncData is the docs sync payload.
type SyncData struct {
	Updated int `json:"updated"`
	Removed int `json:"removed"`
	Total   int `json:"total"`
}

// LocaleData is the locale command payload.
type LocaleData struct {
	Locale    string   `json:"locale"`
	Available []string `json:"available,omitempty"`
}

// ExportData is the export command payload.
type ExportData struct {
	SessionID string `json:"session_id"`
	Format    string `json:"format"`
	Path      string `json:"path"`
}

// LoginData is the login command payload.
type LoginData struct {
	Email  string `json:"email"`
	UserID string `json:"user_id,omitempty"`
}

// DoctorCheck is one row of the doctor report.
type DoctorCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Fix     string `json:"fix,omitempty"`
}

// DoctorSummary tallies the doctor checks.
type DoctorSummary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Failed   int `json:"failed"`
}

// DoctorData is the doctor command payload.
type DoctorData struct {
	Checks  []DoctorCheck `json:"checks"`
	Summary DoctorSummary `json:"summary"`
}
