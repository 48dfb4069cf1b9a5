// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the TUI.
package commands

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/nabi-tui/internal/api"
	"github.com/jeranaias/nabi-tui/internal/auth"
	"github.com/jeranaias/nabi-tui/internal/config"
	"github.com/jeranaias/nabi-tui/internal/docstore"
	"github.com/jeranaias/nabi-tui/internal/i18n"
	"github.com/jeranaias/nabi-tui/internal/session"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/upload <file>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Handler is the function that executes the command
	Handler func(ctx *Context, args []string) tea.Cmd

	// Hidden commands don't appear in help
	Hidden bool

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	// Name of the argument
	Name string

	// Required indicates if the argument must be provided
	Required bool

	// Type determines completion behavior
	Type ArgType

	// Description explains the argument
	Description string

	// Values for enum types
	Values []string

	// Completer for custom completion
	Completer func() []string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString  ArgType = iota // Free-form string
	ArgTypeSession                // Session ID from saved chats
	ArgTypeFile                   // File path
	ArgTypeEnum                   // One of predefined values
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	return cmds
}

// ByCategory returns commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.commands {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Navigation commands
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show help and available commands",
		Usage:       "/help [command|<category>]",
		Args: []ArgDef{
			{
				Name:     "topic",
				Required: false,
				// A command name is also a valid topic, so this is a
				// completion hint rather than a strict enum.
				Type: ArgTypeString,
				Completer: func() []string {
					return []string{"navigation", "conversation", "documents", "account", "settings"}
				},
				Description: "Command or category to explain",
			},
		},
		Category: "Navigation",
		Handler:  handleHelp,
	})

	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit nabi",
		Category:    "Navigation",
		Handler:     handleQuit,
	})

	// Conversation commands
	r.Register(&Command{
		Name:        "/new",
		Aliases:     []string{"/n"},
		Description: "Start a new chat",
		Category:    "Conversation",
		Handler:     handleNew,
	})

	r.Register(&Command{
		Name:        "/sessions",
		Aliases:     []string{"/ls", "/list"},
		Description: "List saved chats, or switch to one",
		Usage:       "/sessions [session_id]",
		Args: []ArgDef{
			{Name: "session_id", Required: false, Type: ArgTypeSession, Description: "Chat to switch to"},
		},
		Category: "Conversation",
		Handler:  handleSessions,
	})

	r.Register(&Command{
		Name:        "/delete",
		Aliases:     []string{"/rm"},
		Description: "Delete a chat (current one if no ID given)",
		Usage:       "/delete [session_id]",
		Args: []ArgDef{
			{Name: "session_id", Required: false, Type: ArgTypeSession, Description: "Chat to delete"},
		},
		Category: "Conversation",
		Handler:  handleDelete,
	})

	r.Register(&Command{
		Name:        "/retry",
		Aliases:     []string{"/r"},
		Description: "Resend the last message after a failure",
		Category:    "Conversation",
		Handler:     handleRetry,
	})

	r.Register(&Command{
		Name:        "/export",
		Description: "Export the current chat to a file",
		Usage:       "/export [format] [path]",
		Args: []ArgDef{
			{Name: "format", Required: false, Type: ArgTypeEnum, Values: []string{"md", "markdown", "json"}, Description: "Export format"},
			{Name: "path", Required: false, Type: ArgTypeFile, Description: "Destination file"},
		},
		Category: "Conversation",
		Handler:  handleExport,
	})

	// Document commands
	r.Register(&Command{
		Name:        "/docs",
		Aliases:     []string{"/documents"},
		Description: "List uploaded documents",
		Category:    "Documents",
		Handler:     handleDocs,
	})

	r.Register(&Command{
		Name:        "/upload",
		Aliases:     []string{"/up"},
		Description: "Upload a document to the knowledge base",
		Usage:       "/upload <file>",
		Args: []ArgDef{
			{Name: "file", Required: true, Type: ArgTypeFile, Description: "File to upload"},
		},
		Category: "Documents",
		Handler:  handleUpload,
	})

	// Account commands
	r.Register(&Command{
		Name:        "/login",
		Description: "Sign in to your account",
		Usage:       "/login [email]",
		Args: []ArgDef{
			{Name: "email", Required: false, Type: ArgTypeString, Description: "Account email"},
		},
		Category: "Account",
		Handler:  handleLogin,
	})

	r.Register(&Command{
		Name:        "/logout",
		Description: "Sign out of your account",
		Category:    "Account",
		Handler:     handleLogout,
	})

	// Settings commands
	r.Register(&Command{
		Name:        "/locale",
		Aliases:     []string{"/lang"},
		Description: "Show or change the interface language",
		Usage:       "/locale [ko|en]",
		Args: []ArgDef{
			{Name: "locale", Required: false, Type: ArgTypeEnum, Values: []string{"ko", "en"}, Description: "Language to switch to"},
		},
		Category: "Settings",
		Handler:  handleLocale,
	})

	r.Register(&Command{
		Name:        "/status",
		Description: "Show connection, account, and chat status",
		Category:    "Settings",
		Handler:     handleStatus,
	})
}

// =============================================================================
// HANDLER IMPLEMENTATIONS
// =============================================================================

func handleHelp(ctx *Context, args []string) tea.Cmd {
	return HandleHelp(ctx, args)
}

func handleQuit(ctx *Context, args []string) tea.Cmd {
	return HandleQuit(ctx, args)
}

func handleNew(ctx *Context, args []string) tea.Cmd {
	return HandleNew(ctx, args)
}

func handleSessions(ctx *Context, args []string) tea.Cmd {
	return HandleSessions(ctx, args)
}

func handleDelete(ctx *Context, args []string) tea.Cmd {
	return HandleDelete(ctx, args)
}

func handleRetry(ctx *Context, args []string) tea.Cmd {
	return HandleRetry(ctx, args)
}

func handleExport(ctx *Context, args []string) tea.Cmd {
	return HandleExport(ctx, args)
}

func handleDocs(ctx *Context, args []string) tea.Cmd {
	return HandleDocs(ctx, args)
}

func handleUpload(ctx *Context, args []string) tea.Cmd {
	return HandleUpload(ctx, args)
}

func handleLogin(ctx *Context, args []string) tea.Cmd {
	return HandleLogin(ctx, args)
}

func handleLogout(ctx *Context, args []string) tea.Cmd {
	return HandleLogout(ctx, args)
}

func handleLocale(ctx *Context, args []string) tea.Cmd {
	return HandleLocale(ctx, args)
}

func handleStatus(ctx *Context, args []string) tea.Cmd {
	return HandleStatus(ctx, args)
}

// =============================================================================
// CONTEXT TYPE
// =============================================================================

// Context provides access to application state for command handlers.
// It follows the dependency injection pattern, allowing handlers to access
// services without direct coupling to the application structure.
//
// All fields are optional and may be nil - handlers should check before use.
type Context struct {
	// Config provides access to the client configuration
	Config *config.Config

	// Sessions is the chat session store
	Sessions *session.Store

	// Auth manages the sign-in state
	Auth *auth.Manager

	// Documents is the local document index
	Documents *docstore.Store

	// Uploader queues document uploads
	Uploader *docstore.Uploader

	// Client talks to the chat backend
	Client *api.Client

	// Localizer resolves user-facing strings
	Localizer *i18n.Localizer
}

// NewContext creates a new command context with the core dependencies.
// Optional services are attached with the With* methods.
func NewContext(cfg *config.Config, sessions *session.Store, authMgr *auth.Manager, loc *i18n.Localizer) *Context {
	return &Context{
		Config:    cfg,
		Sessions:  sessions,
		Auth:      authMgr,
		Localizer: loc,
	}
}

// WithDocuments attaches the document index and uploader.
func (c *Context) WithDocuments(store *docstore.Store, uploader *docstore.Uploader) *Context {
	c.Documents = store
	c.Uploader = uploader
	return c
}

// WithClient attaches the backend API client.
func (c *Context) WithClient(client *api.Client) *Context {
	c.Client = client
	return c
}

// T resolves a message key through the localizer. Handlers use this so
// they stay usable (untranslated) when no localizer is wired.
func (c *Context) T(key string, args ...any) string {
	if c == nil || c.Localizer == nil {
		return key
	}
	return c.Localizer.T(key, args...)
}

// =============================================================================
// COMPLETION TYPE
// =============================================================================

// Completion represents a completion suggestion.
type Completion struct {
	// Value to insert
	Value string

	// Display text (may include formatting)
	Display string

	// Description shown alongside
	Description string

	// Score for ranking (higher = better match)
	Score int

	// IsCurrent indicates this is the current selection
	IsCurrent bool
}
