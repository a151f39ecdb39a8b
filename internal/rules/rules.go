// Package rules evaluates declarative field rules against a decoded
// document tree and collects every violation in one pass.
//
// A Rule describes one node: its type, whether it must be present, the rules
// of its fields or items, and a list of Checks. A Check is a tagged variant
// selected by Kind; Validate interprets all of them.
package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Type is the type a node must have.
type Type int

// Node types.
const (
	Any Type = iota
	String
	Number
	Object
	Array
)

// String returns the name used in violation messages.
func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Number:
		return "number"
	case Object:
		return "object"
	case Array:
		return "array"
	default:
		return "mixed"
	}
}

// Rule constrains a single node of a document.
type Rule struct {
	Type     Type
	Required bool
	// Fields are evaluated in order when Type is Object.
	Fields []Field
	// Items applies to every element when Type is Array.
	Items  *Rule
	Checks []Check
}

// Field names a member of an object node.
type Field struct {
	Name string
	Rule Rule
}

// Kind selects the behavior of a Check.
type Kind int

// Check kinds.
const (
	// Pattern requires a string to match Pattern and, when set, not match Not.
	Pattern Kind = iota
	// MoreThan requires a number strictly greater than Limit.
	MoreThan
	// LessThan requires a number strictly less than Limit.
	LessThan
	// OneOf requires a string to be one of Values.
	OneOf
	// MaxLength caps the character count of a string at Limit.
	MaxLength
	// RequiredWhen requires the node when the sibling field Sibling holds
	// one of SiblingIn. It is the only check evaluated on absent nodes.
	RequiredWhen
	// Unique requires the Key field of every object in an array to differ.
	Unique
	// FileExists requires a string to name a file under the source root.
	FileExists
	// UUID requires a string in canonical hyphenated UUID form.
	UUID
	// Prefixed picks an Alternative by string prefix and matches its pattern.
	Prefixed
)

// Check is one constraint on a node. Only the fields relevant to Kind are
// read. Message overrides the default text; it may reference {path},
// {value} and {sibling}.
type Check struct {
	Kind    Kind
	Message string

	Pattern *regexp.Regexp
	Not     *regexp.Regexp

	Limit  float64
	Values []string

	Sibling   string
	SiblingIn []string

	Key string

	Alternatives []Alternative
	// Fallback applies when no alternative prefix matches. A Fallback
	// without a Pattern always fails.
	Fallback *Alternative
}

// Alternative is one prefix-selected branch of a Prefixed check.
type Alternative struct {
	Prefix  string
	Pattern *regexp.Regexp
	Message string
}

// Violation is a single rule failure.
type Violation struct {
	Path    string
	Message string
}

// String returns the violation message.
func (v Violation) String() string {
	return v.Message
}

// Env carries what checks need from outside the document.
type Env struct {
	// SourceRoot resolves relative paths for FileExists.
	SourceRoot string
}

func (c *Check) message(def, path string, value any, sibling string) string {
	msg := c.Message
	if msg == "" {
		msg = def
	}

	return render(msg, path, value, sibling)
}

func render(msg, path string, value any, sibling string) string {
	return strings.NewReplacer(
		"{path}", label(path),
		"{value}", fmt.Sprint(value),
		"{sibling}", sibling,
	).Replace(msg)
}

func label(path string) string {
	if path == "" {
		return "document"
	}

	return path
}
