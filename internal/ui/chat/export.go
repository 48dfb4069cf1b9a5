// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/nabi-tui/internal/export"
	"github.com/jeranaias/nabi-tui/internal/logging"
	"github.com/jeranaias/nabi-tui/internal/session"
)

// =============================================================================
// EXPORT
// =============================================================================

// exportCmd writes the active chat to disk in the requested format.
// An empty path falls back to a generated filename in the working
// directory.
func (m *Model) exportCmd(format, path string) tea.Cmd {
	store := m.svc.Store
	log := m.log
	return func() tea.Msg {
		sess := store.Active()
		if sess == nil || sess.IsEmpty() {
			return ExportResultMsg{Err: session.ErrNoActiveSession}
		}

		opts := export.DefaultOptions()
		opts.Path = path

		exporter, err := export.ForFormat(format, opts)
		if err != nil {
			return ExportResultMsg{Err: err}
		}

		out, err := export.ExportToFile(sess, exporter, opts)
		if err != nil {
			log.Warn("export failed",
				logging.String("format", format),
				logging.Err(err))
			return ExportResultMsg{Err: err}
		}

		log.Info("conversation exported",
			logging.String("format", format),
			logging.String("path", out))
		return ExportResultMsg{Path: out}
	}
}
