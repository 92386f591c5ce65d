/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package templates

import (
	"sort"
	"strings"
	"unicode"
)

// resolveFunc returns the replacement for a placeholder, or false to keep it verbatim.
type resolveFunc func(name string) (string, bool)

// walkTemplate tokenizes text and calls resolve for each {{name}} placeholder.
// Malformed or unresolved placeholders are copied through unchanged.
func walkTemplate(text string, resolve resolveFunc) string {
	var out strings.Builder
	out.Grow(len(text))

	for len(text) > 0 {
		start := strings.Index(text, "{{")
		if start == -1 {
			out.WriteString(text)
			break
		}
		out.WriteString(text[:start])

		end := strings.Index(text[start:], "}}")
		if end == -1 {
			// No closing braces, nothing left to substitute.
			out.WriteString(text[start:])
			break
		}
		end += start + 2

		raw := text[start:end]
		name := strings.TrimSpace(raw[2 : len(raw)-2])
		if replacement, ok := resolveIdentifier(name, resolve); ok {
			out.WriteString(replacement)
		} else {
			out.WriteString(raw)
		}
		text = text[end:]
	}

	return out.String()
}

func resolveIdentifier(name string, resolve resolveFunc) (string, bool) {
	if !isValidIdentifier(name) {
		return "", false
	}
	return resolve(name)
}

// isValidIdentifier reports whether s starts with a letter and contains only
// letters, digits and underscores.
func isValidIdentifier(s string) bool {
	if len(s) == 0 {
		return false
	}
	runes := []rune(s)
	if !unicode.IsLetter(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

// Fill substitutes every {{key}} occurrence in text with vars[key].
// Placeholders without an entry in vars are left as they are.
func Fill(text string, vars map[string]string) string {
	return walkTemplate(text, func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	})
}

// Placeholders returns the sorted, distinct placeholder names found in text.
func Placeholders(text string) []string {
	seen := make(map[string]struct{})
	walkTemplate(text, func(name string) (string, bool) {
		seen[name] = struct{}{}
		return "", false
	})
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
