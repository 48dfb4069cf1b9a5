// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat transcripts to files.
//
// This package supports exporting sessions to Markdown and JSON with
// metadata frontmatter and timestamped messages.
//
// # Key Types
//
//   - Exporter: Common export interface
//   - MarkdownExporter: Human-readable transcript with YAML frontmatter
//   - JSONExporter: Machine-readable dump of the full session
//   - Options: Export configuration options
//
// # Usage
//
// Export the active session to a generated file name:
//
//	path, err := export.ExportMarkdown(sess, export.DefaultOptions())
//
// Export to a caller-chosen path:
//
//	opts := export.DefaultOptions()
//	opts.Path = "transcript.json"
//	path, err := export.ExportJSON(sess, opts)
//
// Pick the exporter by format name (as typed after /export):
//
//	exporter, err := export.ForFormat("md", opts)
//	data, err := exporter.Export(sess)
package export
