// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/nabi-tui/internal/export"
)

// HandleExport writes a chat transcript to a file.
//
// Command: nabi export <session-id> [flags]
// Flags:
//
//	--json             export as JSON instead of Markdown
//	--output <path>    destination file (default: generated name in .)
//	--no-metadata      omit the transcript header
//	--no-timestamps    omit per-message times
//
// Examples:
//
//	nabi export sess_a1b2
//	nabi export sess_a1b2 --json --output backup.json
//
// Note that --json selects the export format here; the envelope the
// other commands print with --json still wraps the result.
func HandleExport(args Args) error {
	parser := NewArgParser(args.Rest)

	id := parser.Positional(0)
	if id == "" {
		return NewValidationError("session", "", "missing session id", "nabi export sess_a1b2")
	}

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	sess, err := resolveSession(app, id)
	if err != nil {
		return err
	}

	format := "markdown"
	if args.JSON || parser.BoolFlag("json") {
		format = "json"
	}

	opts := export.DefaultOptions()
	opts.Path = parser.Flag("output")
	if parser.BoolFlag("no-metadata") {
		opts.IncludeMetadata = false
	}
	if parser.BoolFlag("no-timestamps") {
		opts.IncludeTimestamps = false
	}

	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return NewValidationError("format", format, err.Error(), "markdown or json")
	}

	path, err := export.ExportToFile(sess, exporter, opts)
	if err != nil {
		return NewCommandError("export", "", err)
	}

	if args.JSON {
		return OutputJSON("export", ExportData{SessionID: sess.ID, Format: format, Path: path})
	}
	fmt.Println(successStyle.Render(app.Loc.T("ui.export_done", path)))
	return nil
}

// exportSession is the REPL-facing wrapper: resolve, pick format,
// write next to the working directory.
func exportSession(app *App, id, format, outPath string) (string, error) {
	if id == "" {
		return "", NewValidationError("session", "", "no active chat", "")
	}
	sess, err := resolveSession(app, id)
	if err != nil {
		return "", err
	}

	opts := export.DefaultOptions()
	opts.Path = outPath

	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return "", NewValidationError("format", format, "markdown or json", "")
	}
	path, err := export.ExportToFile(sess, exporter, opts)
	if err != nil {
		return "", err
	}
	// Relative paths read better in the REPL; leave everything else be.
	if wd, werr := os.Getwd(); werr == nil {
		if rel, rerr := filepath.Rel(wd, path); rerr == nil && !strings.HasPrefix(rel, "..") {
			return rel, nil
		}
	}
	return path, nil
}
