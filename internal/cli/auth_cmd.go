// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// loginTimeout bounds the token exchange round trip.
const loginTimeout = 30 * time.Second

// HandleLogin signs in with Supabase credentials and stores the
// session in the encrypted keystore.
//
// Command: nabi login [--email <address>]
//
// The password is read from the terminal with echo off, or from stdin
// when piped:
//
//	nabi login --email me@example.com
//	pass show nabi | nabi login --email me@example.com
func HandleLogin(args Args) error {
	parser := NewArgParser(args.Rest)

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.Config.Supabase.URL == "" || app.Config.Supabase.AnonKey == "" {
		return NewValidationError("supabase", "",
			"no identity provider configured; set supabase.url and supabase.anon_key in config.toml", "")
	}

	if u := app.Auth.CurrentUser(); u != nil && !args.Quiet && !args.JSON {
		fmt.Fprintln(os.Stderr, warningStyle.Render("Already signed in as "+u.Email+"; this replaces that session."))
	}

	email := strings.TrimSpace(parser.Flag("email"))
	if email == "" {
		if !CanPrompt() {
			return NewValidationError("email", "", "pass --email when not running interactively",
				"nabi login --email me@example.com")
		}
		fmt.Fprint(os.Stderr, "Email: ")
		reader := bufio.NewReader(os.Stdin)
		line, rerr := reader.ReadString('\n')
		if rerr != nil {
			return NewCommandError("login", "read email", rerr)
		}
		email = strings.TrimSpace(line)
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
	defer cancel()

	user, err := app.Auth.SignIn(ctx, email, password)
	if err != nil {
		return NewCommandError("login", "", err)
	}

	if args.JSON {
		return OutputJSON("login", LoginData{Email: user.Email, UserID: user.ID})
	}
	fmt.Println(successStyle.Render(app.Loc.T("auth.signed_in", user.Email)))
	return nil
}

// readPassword reads the password without echo, or one line from a
// pipe. Never accepted as a flag: flags land in shell history.
func readPassword() (string, error) {
	if StdinIsPiped() {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", NewCommandError("login", "read password", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	if !IsTTY() {
		return "", NewValidationError("password", "",
			"no terminal to prompt on; pipe the password on stdin", "pass show nabi | nabi login --email ...")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", NewCommandError("login", "read password", err)
	}
	return string(raw), nil
}

// HandleLogout signs out and clears the stored session.
//
// Command: nabi logout
func HandleLogout(args Args) error {
	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.Auth.IsSignedIn() {
		if args.JSON {
			return OutputJSON("logout", map[string]bool{"was_signed_in": false})
		}
		if !args.Quiet {
			fmt.Println(dimStyle.Render(app.Loc.T("ui.welcome_guest")))
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
	defer cancel()
	app.Auth.SignOut(ctx)

	if args.JSON {
		return OutputJSON("logout", map[string]bool{"was_signed_in": true})
	}
	fmt.Println(successStyle.Render(app.Loc.T("auth.signed_out")))
	return nil
}
