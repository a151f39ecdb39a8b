// Package template renders generated build files with text/template.
package template

import (
	"os"
	"strings"
	"text/template"
)

// FuncMap returns the function map available to build file templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"add":        add,
		"upper":      strings.ToUpper,
		"lower":      strings.ToLower,
		"join":       join,
		"replace":    replace,
		"trimPrefix": trimPrefix,
		"trimSuffix": trimSuffix,
		"shellQuote": shellQuote,
		"env":        os.Getenv,
		"default":    defaultVal,
	}
}

func add(a, b int) int {
	return a + b
}

// join concatenates elems with sep.
// Argument order is (sep, elems) to support piping: {{ .Args | join " " }}.
func join(sep string, elems []string) string {
	return strings.Join(elems, sep)
}

// replace replaces all occurrences of old with repl in s.
// Argument order is (old, repl, s) to support piping: {{ "foo-bar" | replace "-" "_" }}.
func replace(old, repl, s string) string {
	return strings.ReplaceAll(s, old, repl)
}

// trimPrefix removes the given prefix from s.
// Argument order is (prefix, s) to support piping: {{ "/api" | trimPrefix "/" }}.
func trimPrefix(prefix, s string) string {
	return strings.TrimPrefix(s, prefix)
}

// trimSuffix removes the given suffix from s.
// Argument order is (suffix, s) to support piping: {{ "file.tmpl" | trimSuffix ".tmpl" }}.
func trimSuffix(suffix, s string) string {
	return strings.TrimSuffix(s, suffix)
}

// shellQuote single-quotes s for POSIX shells when it contains anything
// outside a safe set.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, unsafeShellRune) < 0 {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func unsafeShellRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case strings.ContainsRune("-_./:=@%+,", r):
		return false
	}

	return true
}

// defaultVal returns val if it's non-empty, otherwise returns def.
func defaultVal(def, val string) string {
	if val != "" {
		return val
	}

	return def
}
