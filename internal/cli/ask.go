// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/nabi-tui/internal/api"
	"github.com/jeranaias/nabi-tui/internal/i18n"
	"github.com/jeranaias/nabi-tui/internal/memory"
	"github.com/jeranaias/nabi-tui/internal/ui/chat"
	"github.com/jeranaias/nabi-tui/internal/validate"
)

// maxStdinContext bounds piped input so `cat huge.log | nabi ask` does
// not ship megabytes to the backend by accident.
const maxStdinContext = 50 * 1024

// markdownRenderer formats the finished answer on TTY output. Built
// once; a nil renderer (exotic terminals) falls back to raw text.
var markdownRenderer *glamour.TermRenderer

func init() {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(DefaultTerminalWidth),
	)
	if err == nil {
		markdownRenderer = r
	}
}

// HandleAsk runs one question against the backend and streams the
// answer to stdout.
//
// Command: nabi ask <question> [flags]
// Flags:
//
//	--session <id>   Continue a specific saved chat
//	--new            Start a fresh chat instead of the active one
//
// Examples:
//
//	nabi ask "서울 날씨 어때?"
//	cat notes.txt | nabi ask "summarize this"
//	nabi ask --new "let's start over"
//
// The exchange is recorded in the session store exactly like a TUI
// exchange, so a later `nabi` picks up where the question left off.
func HandleAsk(args Args) error {
	parser := NewArgParser(args.Rest)
	question := strings.TrimSpace(parser.JoinFrom(0))

	if StdinIsPiped() {
		piped, err := readStdinContext()
		if err != nil {
			return err
		}
		question = combineWithContext(question, piped)
	}
	if question == "" {
		return NewValidationError("question", "", "nothing to ask", `nabi ask "내일 뭐 입을까?"`)
	}

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	if res := validate.Message(question); !res.Valid {
		return NewValidationError("message", truncateText(question, 40),
			app.Loc.T(res.Issue.MessageKey, res.Issue.Args...), "")
	} else if !args.Quiet && !args.JSON {
		for _, w := range res.Warnings {
			fmt.Fprintln(os.Stderr, warningStyle.Render(app.Loc.T(w.MessageKey, w.Args...)))
		}
	}

	// Memory commands still go to the backend; the acknowledgement just
	// tells the user the trigger was recognized.
	if mc := memory.Parse(question); mc.Kind != memory.None && !args.Quiet && !args.JSON {
		fmt.Fprintln(os.Stderr, dimStyle.Render(memoryStatus(app.Loc, mc)))
	}

	// Pick the session the exchange lands in.
	switch {
	case parser.Flag("session") != "":
		id := parser.Flag("session")
		if err := app.Store.Select(id); err != nil {
			return NewNotFoundError("session", id)
		}
	case parser.BoolFlag("new") || app.Store.ActiveID() == "":
		app.Store.Create()
	}

	sess, err := app.Store.BeginExchange(question)
	if err != nil {
		return NewCommandError("ask", "begin exchange", err)
	}

	start := time.Now()
	answer, agent, streamErr := streamToStdout(app, sess.ID, question, args)
	duration := time.Since(start)

	if streamErr != nil {
		return NewCommandError("ask", "stream", streamErr)
	}

	if args.JSON {
		return OutputJSON("ask", AskData{
			Question:  question,
			Answer:    answer,
			Agent:     agent,
			SessionID: app.Store.ActiveID(),
			Duration:  duration.Round(time.Millisecond).String(),
		})
	}

	if !args.Quiet {
		fmt.Println()
		if agent != "" {
			fmt.Fprintln(os.Stderr, dimStyle.Render("["+agent+"]"))
		}
	}
	return nil
}

// =============================================================================
// STREAM OUTPUT
// =============================================================================

// streamToStdout consumes the SSE response. Tokens route through the
// same batcher the TUI uses, so stdout updates at the same bounded
// cadence instead of per-token. On markdown-capable terminals the
// answer is withheld and rendered once at the end; piped and JSON
// output streams raw text as it drains.
func streamToStdout(app *App, sessionID, text string, args Args) (answer, agent string, failure error) {
	useMarkdown := IsStdoutTTY() && !args.JSON && !args.Plain &&
		app.Config.UI.Markdown && markdownRenderer != nil

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ctrl-C aborts the stream; whatever already arrived is kept, same
	// as Esc during a TUI stream.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	batcher := chat.NewStreamBatcher()
	var full strings.Builder

	// Drain loop: poll the batcher on the shared tick and print due
	// batches. Also feeds the session store so the transcript persists.
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(chat.TickInterval)
		defer ticker.Stop()
		flush := func(batch string) {
			full.WriteString(batch)
			app.Store.AppendToken(sessionID, batch)
			if !useMarkdown && !args.JSON {
				fmt.Print(batch)
			}
		}
		for {
			select {
			case <-done:
				if batch, ok := batcher.ForceFlush(); ok {
					flush(batch)
				}
				return
			case <-ticker.C:
				if batch, ok := batcher.Flush(); ok {
					flush(batch)
				}
			}
		}
	}()

	var streamErr *api.ChatError
	handler := api.StreamHandler{
		OnSessionID: func(serverID string) {
			app.Store.ConfirmBackendSession(sessionID, serverID)
		},
		OnToken: func(token string) {
			batcher.Write(token)
		},
		OnAgent: func(a string) {
			agent = a
			app.Store.SetAgent(sessionID, a)
		},
		OnError: func(ce *api.ChatError) {
			streamErr = ce
		},
	}

	err := app.Client.StreamChat(ctx, api.ChatRequest{
		Message:   text,
		SessionID: sessionID,
	}, handler)

	close(done)
	wg.Wait()

	aborted := ctx.Err() != nil && streamErr == nil
	if streamErr == nil && err != nil && !aborted {
		streamErr = api.ClassifyErr(err)
	}

	switch {
	case aborted:
		app.Store.AbortExchange(sessionID)
		if !args.JSON {
			fmt.Println()
			fmt.Fprintln(os.Stderr, dimStyle.Render(app.Loc.T("ui.stopped")))
		}
	case streamErr != nil:
		app.Store.FailExchange(sessionID, streamErr)
		return full.String(), agent, streamErr
	default:
		app.Store.FinalizeExchange(sessionID)
	}

	answer = full.String()
	if useMarkdown && answer != "" {
		if rendered, rerr := markdownRenderer.Render(answer); rerr == nil {
			fmt.Print(rendered)
		} else {
			fmt.Println(answer)
		}
	}
	return answer, agent, nil
}

// =============================================================================
// INPUT ASSEMBLY
// =============================================================================

// readStdinContext reads piped stdin up to the context bound.
func readStdinContext() (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, maxStdinContext+1))
	if err != nil {
		return "", NewCommandError("ask", "read stdin", err)
	}
	if len(data) > maxStdinContext {
		return "", NewValidationError("stdin", "",
			fmt.Sprintf("piped input exceeds %d KB", maxStdinContext/1024),
			"head -c 50000 file.txt | nabi ask ...")
	}
	return strings.TrimSpace(string(data)), nil
}

// combineWithContext frames piped content under the question.
func combineWithContext(question, piped string) string {
	if piped == "" {
		return question
	}
	if question == "" {
		return piped
	}
	return question + "\n\n--- 첨부 내용 ---\n" + piped
}

// memoryStatus localizes the acknowledgement line for a detected
// memory command.
func memoryStatus(loc *i18n.Localizer, cmd memory.Command) string {
	switch cmd.Kind {
	case memory.Remember, memory.Forget:
		return loc.T(cmd.StatusKey(), cmd.Content)
	default:
		return loc.T(cmd.StatusKey())
	}
}
