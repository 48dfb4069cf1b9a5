// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config manages the nabi client configuration.
//
// Configuration lives in ~/.nabi/config.toml (created with defaults on
// first run, 0600 permissions). Load order:
//
//  1. built-in defaults
//  2. the TOML file
//  3. .env in the working directory, if present (development setups)
//  4. NABI_* environment variables
//  5. validation
//
// # Key Types
//
//   - Config: the full configuration tree (backend, supabase, ui,
//     documents, locale, logging sections)
//   - ValidationError / ValidateErrors: field-level validation failures
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	client := api.NewClient(cfg.Backend.BaseURL, ...)
//
// A process-wide accessor (config.Global) serves components that are
// constructed before wiring completes; tests swap it with
// ResetGlobalForTesting.
package config
