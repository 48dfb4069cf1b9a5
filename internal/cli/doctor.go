// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/nabi-tui/internal/api"
	"github.com/jeranaias/nabi-tui/internal/auth"
	"github.com/jeranaias/nabi-tui/internal/config"
	"github.com/jeranaias/nabi-tui/internal/docstore"
	"github.com/jeranaias/nabi-tui/internal/storage"
)

// doctorTimeout bounds the backend probe; a hung server should fail
// the check, not the command.
const doctorTimeout = 10 * time.Second

// =============================================================================
// CHECK MODEL
// =============================================================================

// CheckStatus is the outcome of one diagnostic.
type CheckStatus int

const (
	CheckPass CheckStatus = iota
	CheckWarn
	CheckFail
)

// String returns the status keyword for JSON output.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarn:
		return "warn"
	default:
		return "fail"
	}
}

// Symbol returns the bracketed marker for text output.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return successStyle.Render("[OK]  ")
	case CheckWarn:
		return warningStyle.Render("[!!]  ")
	default:
		return errorStyle.Render("[FAIL]")
	}
}

// HealthCheck is one diagnostic result. Fix, when set, is a concrete
// next step, not an explanation.
type HealthCheck struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string
}

// Render formats the check as one or two output lines.
func (c HealthCheck) Render() string {
	line := fmt.Sprintf("%s %s %s", c.Status.Symbol(), padText(c.Name, 14), c.Message)
	if c.Fix != "" && c.Status != CheckPass {
		line += "\n" + strings.Repeat(" ", 8) + dimStyle.Render("-> "+c.Fix)
	}
	return line
}

// =============================================================================
// DOCTOR
// =============================================================================

// HandleDoctor diagnoses the local setup: configuration, app storage,
// backend reachability, authentication, and the caches.
//
// Command: nabi doctor
//
// Exit is non-zero when any check fails, so `nabi doctor && nabi` works
// as a guarded launch.
func HandleDoctor(args Args) error {
	checks := []HealthCheck{
		checkConfig(),
		checkAppDir(),
		checkBackend(),
		checkAuth(),
		checkSessions(),
		checkDocuments(),
	}

	var passed, warned, failed int
	for _, c := range checks {
		switch c.Status {
		case CheckPass:
			passed++
		case CheckWarn:
			warned++
		default:
			failed++
		}
	}

	if args.JSON {
		data := DoctorData{
			Summary: DoctorSummary{Passed: passed, Warnings: warned, Failed: failed},
		}
		for _, c := range checks {
			data.Checks = append(data.Checks, DoctorCheck{
				Name:    c.Name,
				Status:  c.Status.String(),
				Message: c.Message,
				Fix:     c.Fix,
			})
		}
		if err := OutputJSON("doctor", data); err != nil {
			return err
		}
	} else {
		fmt.Println(titleStyle.Render("nabi doctor"))
		fmt.Println(renderSeparator())
		for _, c := range checks {
			fmt.Println(c.Render())
		}
		fmt.Println(renderSeparator())
		fmt.Printf("%d passed, %d warnings, %d failed\n", passed, warned, failed)
	}

	if failed > 0 {
		return fmt.Errorf("%d health check(s) failed", failed)
	}
	return nil
}

// =============================================================================
// CHECKS
// =============================================================================

// checkConfig loads the config file directly rather than through the
// Global fallback, so parse errors surface instead of being papered
// over with defaults.
func checkConfig() HealthCheck {
	path, err := config.Path()
	if err != nil {
		return HealthCheck{Name: "config", Status: CheckFail, Message: err.Error()}
	}
	if _, err := config.LoadFromPath(path); err != nil {
		return HealthCheck{
			Name:    "config",
			Status:  CheckFail,
			Message: err.Error(),
			Fix:     "fix or delete " + path + " (a fresh default is written on next run)",
		}
	}
	return HealthCheck{Name: "config", Status: CheckPass, Message: path}
}

func checkAppDir() HealthCheck {
	dir, err := config.AppDir()
	if err != nil {
		return HealthCheck{Name: "app dir", Status: CheckFail, Message: err.Error()}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return HealthCheck{
			Name:    "app dir",
			Status:  CheckFail,
			Message: err.Error(),
			Fix:     "check permissions on " + dir,
		}
	}
	return HealthCheck{Name: "app dir", Status: CheckPass, Message: dir}
}

func checkBackend() HealthCheck {
	cfg := config.Global()
	client := api.NewClient(cfg.Backend.BaseURL)
	if !client.IsConfigured() {
		return HealthCheck{
			Name:    "backend",
			Status:  CheckFail,
			Message: "no backend URL configured",
			Fix:     "set backend.base_url in config.toml",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), doctorTimeout)
	defer cancel()
	health, err := client.Health(ctx)
	if err != nil {
		return HealthCheck{
			Name:    "backend",
			Status:  CheckFail,
			Message: cfg.Backend.BaseURL + " unreachable: " + err.Error(),
			Fix:     "is the server running? check backend.base_url",
		}
	}
	msg := health.Status
	if health.LLMModel != "" {
		msg += " · " + health.LLMProvider + "/" + health.LLMModel
	}
	if health.MemoryBackend != "" {
		msg += " · memory: " + health.MemoryBackend
	}
	return HealthCheck{Name: "backend", Status: CheckPass, Message: msg}
}

func checkAuth() HealthCheck {
	cfg := config.Global()
	if cfg.Supabase.URL == "" || cfg.Supabase.AnonKey == "" {
		return HealthCheck{
			Name:    "auth",
			Status:  CheckWarn,
			Message: "no identity provider configured; running as guest",
			Fix:     "set supabase.url and supabase.anon_key in config.toml",
		}
	}

	dir, err := config.AppDir()
	if err != nil {
		return HealthCheck{Name: "auth", Status: CheckFail, Message: err.Error()}
	}
	keystore, err := auth.OpenKeystore(dir)
	if err != nil {
		return HealthCheck{
			Name:    "auth",
			Status:  CheckFail,
			Message: "keystore: " + err.Error(),
			Fix:     "remove the session file under " + dir + " and sign in again",
		}
	}
	mgr := auth.NewManager(auth.NewSupabaseClient(cfg.Supabase.URL, cfg.Supabase.AnonKey), keystore)
	mgr.Load()

	if !mgr.IsSignedIn() {
		return HealthCheck{
			Name:    "auth",
			Status:  CheckWarn,
			Message: "not signed in",
			Fix:     "nabi login",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), doctorTimeout)
	defer cancel()
	if _, err := mgr.Token(ctx); err != nil {
		return HealthCheck{
			Name:    "auth",
			Status:  CheckFail,
			Message: "stored session unusable: " + err.Error(),
			Fix:     "nabi login",
		}
	}
	user := mgr.CurrentUser()
	return HealthCheck{Name: "auth", Status: CheckPass, Message: "signed in as " + user.Email}
}

func checkSessions() HealthCheck {
	files, err := storage.NewSessionStore()
	if err != nil {
		return HealthCheck{Name: "sessions", Status: CheckFail, Message: err.Error()}
	}
	metas, err := files.List()
	if err != nil {
		return HealthCheck{
			Name:    "sessions",
			Status:  CheckWarn,
			Message: "listing failed: " + err.Error(),
		}
	}
	return HealthCheck{Name: "sessions", Status: CheckPass, Message: fmt.Sprintf("%d saved chats", len(metas))}
}

func checkDocuments() HealthCheck {
	store, err := docstore.Open(docstore.DefaultPath())
	if err != nil {
		return HealthCheck{
			Name:    "documents",
			Status:  CheckWarn,
			Message: "cache unavailable: " + err.Error(),
			Fix:     "remove " + docstore.DefaultPath() + " to rebuild, then nabi docs sync",
		}
	}
	defer store.Close()
	n, err := store.Count()
	if err != nil {
		return HealthCheck{Name: "documents", Status: CheckWarn, Message: err.Error()}
	}
	return HealthCheck{Name: "documents", Status: CheckPass, Message: fmt.Sprintf("%d cached documents", n)}
}
