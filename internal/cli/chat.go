// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/nabi-tui/internal/config"
	"github.com/jeranaias/nabi-tui/internal/i18n"
	"github.com/jeranaias/nabi-tui/internal/memory"
	"github.com/jeranaias/nabi-tui/internal/validate"
)

// =============================================================================
// LINE READER
// =============================================================================

// ChatCLI wraps liner for the plain REPL: prompt editing, history at
// ~/.nabi/history, Ctrl-C treated as an abort rather than a kill.
type ChatCLI struct {
	line        *liner.State
	historyPath string
}

// NewChatCLI builds the reader and loads prompt history.
func NewChatCLI() *ChatCLI {
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)

	path := ""
	if dir, err := config.AppDir(); err == nil {
		path = filepath.Join(dir, "history")
	}
	c := &ChatCLI{line: l, historyPath: path}
	c.loadHistory()
	return c
}

func (c *ChatCLI) loadHistory() {
	if c.historyPath == "" {
		return
	}
	f, err := os.Open(c.historyPath)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.ReadHistory(f)
}

func (c *ChatCLI) saveHistory() {
	if c.historyPath == "" {
		return
	}
	// Prompts can contain personal text; keep history owner-only.
	f, err := os.OpenFile(c.historyPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// ReadInput prompts for one line and records it in history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	input = strings.TrimSpace(input)
	if input != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.saveHistory()
	c.line.Close()
}

// =============================================================================
// PLAIN REPL
// =============================================================================

// HandleChat runs the line-based chat loop, the fallback for terminals
// where the full-screen UI is unusable (no alt screen, screen readers,
// ssh through dumb terminals).
//
// Command: nabi chat  (also: nabi --plain)
//
// Slash commands mirror the TUI palette where they make sense without
// a screen: /new /sessions /switch /retry /export /lang /whoami /help
// /exit.
func HandleChat(args Args) error {
	if !IsTTY() {
		return NewValidationError("terminal", "",
			"chat needs an interactive terminal", `nabi ask "question" for scripted use`)
	}

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.Store.ActiveID() == "" {
		app.Store.Create()
	}

	reader := NewChatCLI()
	defer reader.Close()

	printReplWelcome(app, args)

	for {
		input, err := reader.ReadInput("you> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println()
				break
			}
			return NewCommandError("chat", "read input", err)
		}
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := handleReplCommand(app, input, args); quit {
				break
			}
			continue
		}

		if err := runExchange(app, input, args); err != nil {
			DisplayError("chat", err, false)
		}
	}

	printReplExit(app, args)
	return nil
}

// runExchange validates input, starts the exchange, and streams the
// reply. One turn of the REPL; also the retry path.
func runExchange(app *App, input string, args Args) error {
	if res := validate.Message(input); !res.Valid {
		return NewValidationError("message", truncateText(input, 40),
			app.Loc.T(res.Issue.MessageKey, res.Issue.Args...), "")
	} else if !args.Quiet {
		for _, w := range res.Warnings {
			fmt.Fprintln(os.Stderr, warningStyle.Render(app.Loc.T(w.MessageKey, w.Args...)))
		}
	}

	if mc := memory.Parse(input); mc.Kind != memory.None && !args.Quiet {
		fmt.Fprintln(os.Stderr, dimStyle.Render(memoryStatus(app.Loc, mc)))
	}

	sess, err := app.Store.BeginExchange(input)
	if err != nil {
		return err
	}

	fmt.Print(agentStyle.Render("nabi> "))
	_, agent, streamErr := streamToStdout(app, sess.ID, input, args)
	if streamErr != nil {
		fmt.Println()
		return streamErr
	}
	fmt.Println()
	if agent != "" && !args.Quiet {
		fmt.Println(dimStyle.Render("[" + agent + "]"))
	}
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleReplCommand executes a slash command. Returns true to quit.
func handleReplCommand(app *App, input string, args Args) bool {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])
	rest := fields[1:]

	switch cmd {
	case "/exit", "/quit":
		return true

	case "/help":
		printReplHelp()

	case "/new":
		app.Store.Create()
		fmt.Println(successStyle.Render(app.Loc.T("session.new")))

	case "/sessions":
		printSessionTable(app)

	case "/switch":
		if len(rest) == 0 {
			fmt.Println(warningStyle.Render("usage: /switch <id>"))
			break
		}
		if err := app.Store.Select(rest[0]); err != nil {
			fmt.Println(errorStyle.Render(app.Loc.T("command.session_not_found", rest[0])))
			break
		}
		if sess := app.Store.Active(); sess != nil {
			fmt.Println(successStyle.Render(sessionTitle(app, sess.DisplayTitle())))
		}

	case "/retry":
		input, err := app.Store.RetryLast()
		if err != nil {
			fmt.Println(warningStyle.Render(err.Error()))
			break
		}
		fmt.Println(dimStyle.Render("you> " + input))
		if err := runExchange(app, input, args); err != nil {
			DisplayError("chat", err, false)
		}

	case "/export":
		format := "markdown"
		if len(rest) > 0 {
			format = rest[0]
		}
		path, err := exportSession(app, app.Store.ActiveID(), format, "")
		if err != nil {
			fmt.Println(errorStyle.Render(app.Loc.T("ui.export_failed", err.Error())))
			break
		}
		fmt.Println(successStyle.Render(app.Loc.T("ui.export_done", path)))

	case "/lang":
		if len(rest) == 0 {
			fmt.Println(renderLabel("locale:", app.Loc.Locale()))
			break
		}
		code := i18n.Resolve(rest[0])
		app.Loc.SetLocale(code)
		app.Store.SetLocale(code)
		fmt.Println(successStyle.Render(app.Loc.T("ui.locale_changed", code)))

	case "/whoami":
		if u := app.Auth.CurrentUser(); u != nil {
			fmt.Println(renderLabel("account:", u.Email))
		} else {
			fmt.Println(renderLabel("account:", app.Loc.T("ui.welcome_guest")))
		}

	default:
		fmt.Println(warningStyle.Render("unknown command " + cmd + " (try /help)"))
	}
	return false
}

// =============================================================================
// CHROME
// =============================================================================

func printReplWelcome(app *App, args Args) {
	if args.Quiet {
		return
	}
	fmt.Println(titleStyle.Render("nabi " + Version))
	fmt.Println(dimStyle.Render(app.Loc.T("ui.welcome_tagline")))

	account := app.Loc.T("ui.welcome_guest")
	if u := app.Auth.CurrentUser(); u != nil {
		account = u.Email
	}
	fmt.Println(renderLabel(app.Loc.T("ui.welcome_account"), account))
	fmt.Println(renderLabel(app.Loc.T("ui.welcome_server"), app.Client.BaseURL()))
	fmt.Println(renderLabel(app.Loc.T("ui.welcome_locale"), app.Loc.Locale()))
	fmt.Println(dimStyle.Render("/help " + app.Loc.T("ui.help_title")))
	fmt.Println(renderSeparator())
}

func printReplHelp() {
	fmt.Println(titleStyle.Render("Commands"))
	rows := [][2]string{
		{"/new", "start a fresh chat"},
		{"/sessions", "list saved chats"},
		{"/switch <id>", "continue a saved chat"},
		{"/retry", "resend the last question"},
		{"/export [json]", "write this chat to a file"},
		{"/lang <code>", "switch language (ko, en)"},
		{"/whoami", "show the signed-in account"},
		{"/exit", "leave"},
	}
	for _, r := range rows {
		fmt.Println("  " + padText(r[0], 16) + dimStyle.Render(r[1]))
	}
}

func printReplExit(app *App, args Args) {
	if args.Quiet {
		return
	}
	if sess := app.Store.Active(); sess != nil && !sess.IsEmpty() {
		fmt.Println(dimStyle.Render(fmt.Sprintf("%d messages in this chat · nabi sessions list", sess.MessageCount())))
	}
}
