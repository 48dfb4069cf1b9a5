// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/nabi-tui/internal/i18n"
)

// HandleLocale reads or changes the interface language.
//
// Command: nabi locale <subcommand>
// Subcommands:
//
//	get             show the active language (default)
//	set <code>      switch language; persists across runs
//
// Examples:
//
//	nabi locale get
//	nabi locale set en
func HandleLocale(args Args) error {
	parser := NewArgParser(args.Rest)

	switch parser.Subcommand() {
	case "", "get":
		return localeGet(args)
	case "set":
		return localeSet(parser.Positional(1), args)
	default:
		return NewValidationError("subcommand", parser.Subcommand(),
			"expected get or set", "nabi locale set ko")
	}
}

func localeGet(args Args) error {
	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	if args.JSON {
		return OutputJSON("locale", LocaleData{
			Locale:    app.Loc.Locale(),
			Available: i18n.Available(),
		})
	}
	fmt.Println(renderLabel("locale:", app.Loc.Locale()))
	fmt.Println(dimStyle.Render("available: " + strings.Join(i18n.Available(), ", ")))
	return nil
}

func localeSet(pref string, args Args) error {
	if pref == "" {
		return NewValidationError("locale", "", "missing language code", "nabi locale set en")
	}

	app, err := OpenApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	// Resolve rather than reject: "ko-KR" and "en_US.UTF-8" map onto
	// the supported set instead of failing the command.
	code := i18n.Resolve(pref)
	app.Loc.SetLocale(code)
	app.Store.SetLocale(code)

	if args.JSON {
		return OutputJSON("locale", LocaleData{Locale: code, Available: i18n.Available()})
	}
	fmt.Println(successStyle.Render(app.Loc.T("ui.locale_changed", code)))
	return nil
}
