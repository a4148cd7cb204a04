package actions

import (
	"fmt"
	"strconv"
	"strings"
)

// Item is the parameter set of one input item.
type Item map[string]any

// Value returns the raw parameter and whether it is set to a non-nil value.
func (it Item) Value(name string) (any, bool) {
	v, ok := it[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns the named parameter as a string, or def when unset.
// Numbers and booleans are formatted.
func (it Item) String(name, def string) string {
	v, ok := it.Value(name)
	if !ok {
		return def
	}
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

// Int returns the named parameter as an int, or def when unset or empty.
func (it Item) Int(name string, def int) (int, error) {
	v, ok := it.Value(name)
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, invalidParam(name, "must be a whole number")
		}
		return int(n), nil
	case interface{ Int64() (int64, error) }:
		i, err := n.Int64()
		if err != nil {
			return 0, invalidParam(name, "must be a whole number")
		}
		return int(i), nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return def, nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0, invalidParam(name, "must be a whole number")
		}
		return i, nil
	}
	return 0, invalidParam(name, "must be a whole number")
}

// Bool returns the named parameter as a bool, or def when unset or empty.
func (it Item) Bool(name string, def bool) (bool, error) {
	v, ok := it.Value(name)
	if !ok {
		return def, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		s := strings.TrimSpace(b)
		if s == "" {
			return def, nil
		}
		parsed, err := strconv.ParseBool(s)
		if err != nil {
			return false, invalidParam(name, "must be true or false")
		}
		return parsed, nil
	}
	return false, invalidParam(name, "must be true or false")
}

// SplitRecipientList splits a recipient string on commas, semicolons and
// newlines, trimming whitespace and dropping empty entries.
func SplitRecipientList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})

	recipients := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			recipients = append(recipients, f)
		}
	}
	return recipients
}

// scalar returns the named parameter as a string, rejecting lists and objects.
func (it Item) scalar(name string) (string, error) {
	v, ok := it.Value(name)
	if !ok {
		return "", nil
	}
	switch v.(type) {
	case []any, []string, map[string]any:
		return "", invalidParam(name, "must be a single value")
	}
	return it.String(name, ""), nil
}

// recipients reads a recipient parameter given either as a delimited string
// or as a list of strings.
func (it Item) recipients(name string) ([]string, error) {
	v, ok := it.Value(name)
	if !ok {
		return nil, nil
	}

	switch r := v.(type) {
	case string:
		return SplitRecipientList(r), nil
	case []string:
		var out []string
		for _, entry := range r {
			out = append(out, SplitRecipientList(entry)...)
		}
		return out, nil
	case []any:
		var out []string
		for _, entry := range r {
			s, isString := entry.(string)
			if !isString {
				return nil, invalidParam(name, "must be a list of strings")
			}
			out = append(out, SplitRecipientList(s)...)
		}
		return out, nil
	}
	return nil, invalidParam(name, "must be a string or a list of strings")
}
