// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Build metadata, assigned from main at startup so that every surface
// (usage text, version command, doctor report) agrees on it.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command identifies what the invocation asks nabi to do.
type Command int

const (
	// CmdTUI opens the full-screen chat. The zero value, because a bare
	// `nabi` is the common case.
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdLogin
	CmdLogout
	CmdSessions
	CmdDocs
	CmdLocale
	CmdExport
	CmdDoctor
	CmdVersion
	CmdHelp
)

// String returns the command word as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdLogin:
		return "login"
	case CmdLogout:
		return "logout"
	case CmdSessions:
		return "sessions"
	case CmdDocs:
		return "docs"
	case CmdLocale:
		return "locale"
	case CmdExport:
		return "export"
	case CmdDoctor:
		return "doctor"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args carries the parsed global flags plus whatever followed the
// command word. Handlers parse their own subcommands and flags from
// Rest with NewArgParser.
type Args struct {
	// JSON switches output to machine-readable envelopes.
	JSON bool

	// Quiet suppresses decoration and progress chatter.
	Quiet bool

	// Verbose raises the log level and mirrors logs to stderr.
	Verbose bool

	// Plain requests the line-based chat instead of the TUI.
	Plain bool

	// NoColor disables ANSI styling regardless of terminal support.
	NoColor bool

	// Rest holds the arguments after the command word, unparsed.
	Rest []string

	// Unknown records an unrecognized command word so the help path
	// can suggest a correction instead of silently opening the TUI.
	Unknown string
}

// =============================================================================
// PARSING
// =============================================================================

// Parse reads os.Args and returns the requested command.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses an argument vector. Global flags may appear before
// the command word; everything after it is left for the handler.
//
//	nabi --json sessions list
//	nabi ask "안녕하세요"
//	nabi --plain
func ParseArgs(argv []string) (Command, Args) {
	var args Args

	i := 0
	for i < len(argv) {
		switch argv[i] {
		case "--json":
			args.JSON = true
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		case "--plain":
			args.Plain = true
		case "--no-color":
			args.NoColor = true
		case "-h", "--help":
			return CmdHelp, args
		case "--version":
			return CmdVersion, args
		default:
			if strings.HasPrefix(argv[i], "-") {
				// Unknown global flag. Treat like an unknown command so
				// the user gets usage instead of a surprise TUI.
				args.Unknown = argv[i]
				return CmdHelp, args
			}
			cmd := commandFor(argv[i])
			args.Rest = argv[i+1:]
			if cmd == CmdHelp && argv[i] != "help" {
				args.Unknown = argv[i]
			}
			return cmd, args
		}
		i++
	}

	// No command word: --plain flips the default from TUI to the REPL.
	if args.Plain {
		return CmdChat, args
	}
	return CmdTUI, args
}

// commandFor maps a command word, including aliases, to its Command.
// Unrecognized words map to CmdHelp; ParseArgs marks them Unknown.
func commandFor(word string) Command {
	switch strings.ToLower(word) {
	case "ask":
		return CmdAsk
	case "chat", "repl":
		return CmdChat
	case "login", "signin":
		return CmdLogin
	case "logout", "signout":
		return CmdLogout
	case "sessions", "session":
		return CmdSessions
	case "docs", "documents":
		return CmdDocs
	case "locale", "lang":
		return CmdLocale
	case "export":
		return CmdExport
	case "doctor":
		return CmdDoctor
	case "version":
		return CmdVersion
	case "help":
		return CmdHelp
	default:
		return CmdHelp
	}
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `nabi - AI companion chat for your terminal

Version: %s

USAGE:
    nabi [command] [flags]

Running nabi with no command opens the full-screen chat UI.

COMMANDS:
    ask <question>          Ask one question and stream the answer
    chat                    Line-based chat for terminals without TUI support
    login                   Sign in with your email and password
    logout                  Sign out and clear stored credentials
    sessions list           List saved chats
    sessions show <id>      Print a saved chat
    sessions delete <id>    Delete a saved chat
    docs list               List uploaded documents
    docs upload <file>      Upload a document to the knowledge base
    docs delete <id>        Remove a document
    docs sync               Reconcile the local document cache with the server
    locale get              Show the interface language
    locale set <code>       Change the interface language (ko, en)
    export <id>             Write a chat transcript to a file
    doctor                  Diagnose backend, auth, and configuration health
    version                 Show version information
    help                    Show this help

GLOBAL FLAGS:
    --plain                 Use the line-based chat instead of the TUI
    --json                  Machine-readable output
    -q, --quiet             Suppress non-essential output
    -v, --verbose           Verbose logging to stderr
    --no-color              Disable colored output

EXAMPLES:
    nabi                                Open the chat UI
    nabi ask "서울 날씨 어때?"          One-shot question, streamed answer
    nabi --plain                        Chat over a plain prompt
    nabi sessions list                  Show saved chats
    nabi export a1b2c3d4 --json         Export a transcript as JSON
    nabi docs upload notes.pdf          Add a document to the knowledge base

CONFIGURATION:
    ~/.nabi/config.toml                 Settings (server, theme, language)
    NABI_CONFIG                         Override the config file location

Report issues: https://github.com/jeranaias/nabi-tui/issues
`

// PrintUsage writes the usage text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// HandleHelp prints usage. When parsing flagged an unknown command it
// goes to stderr with a suggestion and a usage-error result so scripts
// notice the typo.
func HandleHelp(args Args) error {
	if args.Unknown == "" {
		PrintUsage(os.Stdout)
		return nil
	}

	fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args.Unknown)
	if suggestion := SuggestCommand(args.Unknown); suggestion != "" {
		fmt.Fprintf(os.Stderr, "Did you mean 'nabi %s'?\n", suggestion)
	}
	fmt.Fprintln(os.Stderr)
	PrintUsage(os.Stderr)
	return NewValidationError("command", args.Unknown, "not a nabi command", "nabi help")
}

// =============================================================================
// VERSION
// =============================================================================

// HandleVersion prints build metadata.
func HandleVersion(args Args) error {
	if args.JSON {
		return OutputJSON("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		})
	}

	fmt.Printf("nabi %s\n", Version)
	if !args.Quiet {
		fmt.Printf("  commit:  %s\n", GitCommit)
		fmt.Printf("  built:   %s\n", BuildDate)
		fmt.Printf("  runtime: %s\n", runtime.Version())
	}
	return nil
}
