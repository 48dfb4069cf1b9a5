// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package i18n provides the Korean/English string catalog for the
// nabi client.
package i18n

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Supported locales in priority order; the first is the default when
// nothing matches.
var supported = []language.Tag{
	language.Korean,
	language.English,
}

// fallbackLocale backs every lookup miss before the key itself.
const fallbackLocale = "en"

// =============================================================================
// BUNDLE LOADING
// =============================================================================

var (
	bundleOnce sync.Once
	bundles    map[string]map[string]string
)

// loadBundles parses the embedded YAML catalogs once. The files ship
// inside the binary, so a parse failure is a build defect; it panics
// rather than limping along with empty catalogs.
func loadBundles() {
	bundles = make(map[string]map[string]string)
	for _, tag := range supported {
		code := tag.String()
		data, err := localeFS.ReadFile("locales/" + code + ".yaml")
		if err != nil {
			panic(fmt.Sprintf("i18n: missing embedded locale %s: %v", code, err))
		}
		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			panic(fmt.Sprintf("i18n: invalid locale %s: %v", code, err))
		}
		flat := make(map[string]string)
		flatten("", tree, flat)
		bundles[code] = flat
	}
}

// flatten converts the nested YAML mapping into dotted keys
// ("error.timeout").
func flatten(prefix string, tree map[string]any, out map[string]string) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]any:
			flatten(key, val, out)
		}
	}
}

// =============================================================================
// LOCALE RESOLUTION
// =============================================================================

var matcher = language.NewMatcher(supported)

// Resolve maps any user-supplied locale string ("ko", "ko-KR",
// "en_US.UTF-8", "") onto a supported locale code.
func Resolve(pref string) string {
	pref = strings.TrimSpace(pref)
	// Strip POSIX encoding suffixes: en_US.UTF-8 -> en_US.
	if i := strings.IndexAny(pref, ".@"); i >= 0 {
		pref = pref[:i]
	}
	pref = strings.ReplaceAll(pref, "_", "-")
	if pref == "" {
		return supported[0].String()
	}
	tag, err := language.Parse(pref)
	if err != nil {
		return supported[0].String()
	}
	_, idx, _ := matcher.Match(tag)
	return supported[idx].String()
}

// Available returns the supported locale codes, sorted.
func Available() []string {
	codes := make([]string, len(supported))
	for i, tag := range supported {
		codes[i] = tag.String()
	}
	sort.Strings(codes)
	return codes
}

// =============================================================================
// LOCALIZER
// =============================================================================

// Localizer resolves catalog keys for the active locale. Safe for
// concurrent use; locale changes notify subscribers.
type Localizer struct {
	mu          sync.RWMutex
	locale      string
	subscribers []func(locale string)
}

// New creates a Localizer with the given preference (resolved against
// the supported set).
func New(pref string) *Localizer {
	bundleOnce.Do(loadBundles)
	return &Localizer{locale: Resolve(pref)}
}

// Locale returns the active locale code.
func (l *Localizer) Locale() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.locale
}

// SetLocale switches the active locale and notifies subscribers.
// The input is resolved, so "ko-KR" and "ko" behave identically.
func (l *Localizer) SetLocale(pref string) {
	code := Resolve(pref)

	l.mu.Lock()
	if code == l.locale {
		l.mu.Unlock()
		return
	}
	l.locale = code
	subs := append([]func(string){}, l.subscribers...)
	l.mu.Unlock()

	// Callbacks run outside the lock; a subscriber may call back in.
	for _, fn := range subs {
		fn(code)
	}
}

// Subscribe registers a callback invoked after each locale change.
func (l *Localizer) Subscribe(fn func(locale string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribers = append(l.subscribers, fn)
}

// T resolves key for the active locale, applying fmt substitution when
// args are given. Misses fall back to English, then to the key itself.
func (l *Localizer) T(key string, args ...any) string {
	l.mu.RLock()
	locale := l.locale
	l.mu.RUnlock()

	msg, ok := bundles[locale][key]
	if !ok {
		msg, ok = bundles[fallbackLocale][key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}
