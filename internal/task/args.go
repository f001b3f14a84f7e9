package task

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/maxkimambo/barista/internal/errors"
)

// Args are the per-run arguments of a task. Values are string, int, float64 or bool.
type Args map[string]any

var (
	intPattern   = regexp.MustCompile(`^[+-]?\d+$`)
	floatPattern = regexp.MustCompile(`^[+-]?(\d+\.\d*|\.\d+|\d+(\.\d*)?[eE][+-]?\d+|\.\d+[eE][+-]?\d+)$`)
)

// String returns the string value of key
func (a Args) String(key string) (string, bool) {
	v, ok := a[key].(string)
	return v, ok
}

// Int returns the integer value of key
func (a Args) Int(key string) (int, bool) {
	v, ok := a[key].(int)
	return v, ok
}

// Float returns the float value of key. Integer values are widened.
func (a Args) Float(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Bool returns the boolean value of key
func (a Args) Bool(key string) (bool, bool) {
	v, ok := a[key].(bool)
	return v, ok
}

// Keys returns the argument names in sorted order
func (a Args) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of the arguments
func (a Args) Clone() Args {
	clone := make(Args, len(a))
	for k, v := range a {
		clone[k] = v
	}
	return clone
}

// ParseToken parses a command line token of the form task[:key=value[:key=value...]].
// Segments are separated by colons outside double quotes; keys and values by
// the first equals sign. Values are classified in order as quoted string,
// integer, float or boolean.
func ParseToken(token string) (string, Args, error) {
	segments := splitOutsideQuotes(token, func(r rune) bool { return r == ':' })
	if len(segments) == 0 || segments[0] == "" {
		return "", nil, fmt.Errorf("missing task name in %q", token)
	}

	name := segments[0]
	args := make(Args, len(segments)-1)

	for _, segment := range segments[1:] {
		key, raw, found := strings.Cut(segment, "=")
		if !found || key == "" {
			return "", nil, &errors.UnsupportedArgumentError{Token: token, Value: segment}
		}

		value, err := classify(raw)
		if err != nil {
			return "", nil, &errors.UnsupportedArgumentError{Token: token, Key: key, Value: raw}
		}
		args[key] = value
	}

	return name, args, nil
}

// ParseTokens parses whitespace separated task tokens. Whitespace inside double
// quotes does not split tokens.
func ParseTokens(line string) (map[string]Args, []string, error) {
	return ParseArgs(splitOutsideQuotes(line, unicode.IsSpace))
}

// ParseArgs parses each token with ParseToken and returns the arguments by task
// name together with the task names in first-seen order. Arguments for a task
// named more than once are merged, later values winning. Empty tokens are skipped.
func ParseArgs(tokens []string) (map[string]Args, []string, error) {
	result := make(map[string]Args, len(tokens))
	var order []string

	for _, token := range tokens {
		if token == "" {
			continue
		}

		name, args, err := ParseToken(token)
		if err != nil {
			return nil, nil, err
		}

		existing, seen := result[name]
		if !seen {
			result[name] = args
			order = append(order, name)
			continue
		}
		for k, v := range args {
			existing[k] = v
		}
	}

	return result, order, nil
}

func classify(raw string) (any, error) {
	switch {
	case len(raw) >= 2 && strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`):
		return raw[1 : len(raw)-1], nil
	case intPattern.MatchString(raw):
		return strconv.Atoi(raw)
	case floatPattern.MatchString(raw):
		return strconv.ParseFloat(raw, 64)
	case raw == "true":
		return true, nil
	case raw == "false":
		return false, nil
	}
	return nil, fmt.Errorf("unsupported value %q", raw)
}

// splitOutsideQuotes splits s at every rune matching sep that is not inside
// double quotes. Quotes are kept in the resulting fields and empty fields are
// preserved.
func splitOutsideQuotes(s string, sep func(rune) bool) []string {
	var fields []string
	var current strings.Builder
	quoted := false

	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			current.WriteRune(r)
		case !quoted && sep(r):
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	return append(fields, current.String())
}
