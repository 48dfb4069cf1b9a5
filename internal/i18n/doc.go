// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package i18n provides the Korean/English string catalog for the
// nabi client.
//
// Bundles are YAML files embedded at build time (locales/ko.yaml,
// locales/en.yaml). Lookup falls back from the active locale to
// English and finally to the key itself, so a missing translation is
// visible but never fatal.
//
// # Key Types
//
//   - Localizer: resolves keys for the active locale; safe for
//     concurrent use; notifies subscribers on locale change
//
// # Usage
//
//	loc := i18n.New("ko")
//	msg := loc.T("error.timeout")
//	toast := loc.T("memory.remembered", content)
//
// Locale resolution accepts BCP 47 inputs ("ko-KR", "en_US.UTF-8")
// and matches them against the supported set via x/text/language.
package i18n
