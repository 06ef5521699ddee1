// StreamSignal - Webhook Event Dispatch for Media Server Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/streamsignal

package dispatch

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// placeholderPattern matches {{dotted.path}} placeholders: identifier
// segments separated by dots.
var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_-]+(?:\.[A-Za-z0-9_-]+)*)\}\}`)

// CompileTemplate recursively projects an event-data tree into a payload
// template. Mappings and sequences are compiled element-wise, preserving
// keys and structure. Strings have each {{path}} placeholder resolved
// independently against the data root; a path that does not fully resolve
// leaves its placeholder text unchanged. All other scalars pass through.
//
// The transform is pure: neither template nor data is mutated, and
// re-compiling the output against the same data is a no-op for any
// placeholder that already resolved.
func CompileTemplate(template any, data map[string]any) any {
	switch t := template.(type) {
	case map[string]any:
		compiled := make(map[string]any, len(t))
		for k, v := range t {
			compiled[k] = CompileTemplate(v, data)
		}
		return compiled
	case []any:
		compiled := make([]any, len(t))
		for i, v := range t {
			compiled[i] = CompileTemplate(v, data)
		}
		return compiled
	case string:
		return compileString(t, data)
	default:
		return template
	}
}

// compileString substitutes every resolvable placeholder in one string.
func compileString(s string, data map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		path := match[2 : len(match)-2]
		value, ok := resolvePath(data, path)
		if !ok {
			return match
		}
		return stringify(value)
	})
}

// resolvePath walks the data tree following dot-separated segments.
// Returns false as soon as a segment is missing or an intermediate value
// is not a mapping.
func resolvePath(data map[string]any, path string) (any, bool) {
	var current any = data
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// stringify renders a resolved value's textual form: strings verbatim,
// numbers in minimal decimal notation, booleans and null by name, and
// structured values as compact JSON.
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	case nil:
		return "null"
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
