// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package validate implements the client-side validation checklist:
// chat message content, file uploads, URL protocols, session IDs, and
// upload metadata.
//
// Validation here is a pre-flight courtesy - the backend enforces the
// same rules authoritatively. Findings split into two classes:
//
//   - blocking (Valid=false): size/length violations, path traversal
//     in filenames, executable extensions, critical injection patterns
//   - advisory (Valid=true with warnings): magic-byte mismatches,
//     excessive whitespace, patterns that merely look risky
//
// Results carry i18n catalog keys rather than display text; callers
// localize with their Localizer.
package validate
