package rules

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Validate applies root to doc and returns every violation found. Evaluation
// is depth-first in field order and a node's own checks run after its
// children. The error return is reserved for malformed rules, never for
// problems in the document.
func Validate(doc any, root *Rule, env Env) ([]Violation, error) {
	if doc == nil {
		doc = map[string]any{}
	}

	w := &walker{env: env}
	if err := w.node("", doc, true, nil, root); err != nil {
		return nil, err
	}

	return w.out, nil
}

type walker struct {
	env Env
	out []Violation
}

func (w *walker) add(path, msg string) {
	w.out = append(w.out, Violation{Path: path, Message: msg})
}

// node evaluates r against v. present is false when the key was missing from
// the enclosing object; parent is that object, if any.
func (w *walker) node(path string, v any, present bool, parent map[string]any, r *Rule) error {
	if !present || v == nil {
		switch {
		case r.Required:
			w.add(path, render("{path} is a required field", path, nil, ""))
		case present:
			w.add(path, render("{path} cannot be null", path, nil, ""))
		default:
			w.absent(path, parent, r)
		}

		return nil
	}

	value, ok := coerce(r.Type, v)
	if !ok {
		w.add(path, render(
			fmt.Sprintf("{path} must be a `%s` type, but the final value was: `%s`", r.Type, display(v)),
			path, v, ""))

		return nil
	}

	if s, isString := value.(string); isString && s == "" && r.Required {
		w.add(path, render("{path} is a required field", path, nil, ""))
		return nil
	}

	switch r.Type {
	case Object:
		m, _ := value.(map[string]any)
		for i := range r.Fields {
			f := &r.Fields[i]
			child, has := m[f.Name]
			if err := w.node(join(path, f.Name), child, has, m, &f.Rule); err != nil {
				return err
			}
		}
	case Array:
		if r.Items != nil {
			items, _ := value.([]any)
			for i, item := range items {
				if err := w.node(fmt.Sprintf("%s[%d]", path, i), item, true, nil, r.Items); err != nil {
					return err
				}
			}
		}
	}

	for i := range r.Checks {
		if err := w.check(path, value, parent, &r.Checks[i]); err != nil {
			return err
		}
	}

	return nil
}

// absent runs the checks that apply to a missing optional node.
func (w *walker) absent(path string, parent map[string]any, r *Rule) {
	for i := range r.Checks {
		c := &r.Checks[i]
		if c.Kind != RequiredWhen {
			continue
		}

		if sibling, hit := siblingMatch(parent, c); hit {
			w.add(path, c.message("{path} is a required field", path, nil, sibling))
		}
	}
}

func (w *walker) check(path string, value any, parent map[string]any, c *Check) error {
	s, _ := value.(string)
	n, _ := value.(float64)

	switch c.Kind {
	case Pattern:
		if _, isString := value.(string); !isString {
			return nil
		}

		if !c.Pattern.MatchString(s) || (c.Not != nil && c.Not.MatchString(s)) {
			w.add(path, c.message(
				fmt.Sprintf("{path} must match the following: %q", c.Pattern.String()), path, s, ""))
		}
	case MoreThan:
		if n <= c.Limit {
			w.add(path, c.message(
				"{path} must be greater than "+formatLimit(c.Limit), path, value, ""))
		}
	case LessThan:
		if n >= c.Limit {
			w.add(path, c.message(
				"{path} must be less than "+formatLimit(c.Limit), path, value, ""))
		}
	case OneOf:
		if !slices.Contains(c.Values, s) {
			w.add(path, c.message(
				"{path} must be one of the following values: "+strings.Join(c.Values, ", "), path, s, ""))
		}
	case MaxLength:
		if float64(utf8.RuneCountInString(s)) > c.Limit {
			w.add(path, c.message(
				"{path} must be at most "+formatLimit(c.Limit)+" characters", path, s, ""))
		}
	case RequiredWhen:
		if s != "" {
			return nil
		}

		if sibling, hit := siblingMatch(parent, c); hit {
			w.add(path, c.message("{path} is a required field", path, s, sibling))
		}
	case Unique:
		w.unique(path, value, c)
	case FileExists:
		w.fileExists(path, s, c)
	case UUID:
		if !isCanonicalUUID(s) {
			w.add(path, c.message("{path} must be a valid UUID", path, s, ""))
		}
	case Prefixed:
		w.prefixed(path, s, c)
	default:
		return fmt.Errorf("unknown check kind %d at %s", c.Kind, label(path))
	}

	return nil
}

func (w *walker) unique(path string, value any, c *Check) {
	items, _ := value.([]any)
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		m, ok := AsMap(item)
		if !ok {
			continue
		}

		// Entries without the key share one slot, so two of them clash.
		var shown string
		slot := "missing"
		if key, has := m[c.Key]; has && key != nil {
			shown = fmt.Sprint(key)
			slot = "=" + shown
		}

		if _, dup := seen[slot]; dup {
			w.add(path, c.message("{path} must contain unique "+c.Key+" values", path, shown, ""))
			return
		}

		seen[slot] = struct{}{}
	}
}

// fileExists records a violation for any path that cannot be stat'ed. A
// component of the path that is not a directory, or a name that is too long,
// is as much a user mistake as a missing file.
func (w *walker) fileExists(path, s string, c *Check) {
	if s == "" {
		return
	}

	if _, err := os.Stat(filepath.Join(w.env.SourceRoot, s)); err != nil {
		w.add(path, c.message("{path} references a file that does not exist", path, s, ""))
	}
}

func (w *walker) prefixed(path, s string, c *Check) {
	for _, alt := range c.Alternatives {
		if !strings.HasPrefix(s, alt.Prefix) {
			continue
		}

		if !alt.Pattern.MatchString(s) {
			w.add(path, render(alt.Message, path, s, ""))
		}

		return
	}

	fb := c.Fallback
	if fb == nil {
		return
	}

	if fb.Pattern == nil || !fb.Pattern.MatchString(s) {
		w.add(path, render(fb.Message, path, s, ""))
	}
}

func siblingMatch(parent map[string]any, c *Check) (string, bool) {
	raw, ok := parent[c.Sibling]
	if !ok || raw == nil {
		return "", false
	}

	sibling := fmt.Sprint(raw)

	return sibling, slices.Contains(c.SiblingIn, sibling)
}

// coerce converts v to the representation checks expect for t: strings
// accept scalars, numbers accept numeric strings.
func coerce(t Type, v any) (any, bool) {
	switch t {
	case String:
		switch x := v.(type) {
		case string:
			return x, true
		case int, int64, uint64, float64, bool:
			return fmt.Sprint(x), true
		}
	case Number:
		switch x := v.(type) {
		case int:
			return float64(x), true
		case int64:
			return float64(x), true
		case uint64:
			return float64(x), true
		case float64:
			return x, !math.IsNaN(x)
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			return f, err == nil && !math.IsNaN(f)
		}
	case Object:
		return AsMap(v)
	case Array:
		items, ok := v.([]any)
		return items, ok
	default:
		return v, true
	}

	return nil, false
}

// AsMap returns v as a string-keyed map. YAML mappings with any non-string
// key decode as map[any]any; their keys are formatted with fmt.Sprint.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}

		return out, true
	}

	return nil, false
}

func isCanonicalUUID(s string) bool {
	if len(s) != 36 {
		return false
	}

	_, err := uuid.Parse(s)

	return err == nil
}

func join(path, name string) string {
	if path == "" {
		return name
	}

	return path + "." + name
}

func formatLimit(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func display(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}

	switch v.(type) {
	case map[string]any, map[any]any:
		return "{...}"
	case []any:
		return "[...]"
	}

	return fmt.Sprint(v)
}
