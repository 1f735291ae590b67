package normalize

import (
	"strconv"
	"strings"
)

// Lookups over decoded JSON.  Every helper tolerates missing keys and
// values of the wrong type, and falsy values (empty string, zero, false)
// read as absent, matching how the web client treats provider payloads.

func getPath(m map[string]any, path string) any {
	var cur any = m
	for _, p := range strings.Split(path, ".") {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := mm[p]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	default:
		return true
	}
}

// str returns the value at path as a string pointer, or nil.  Numbers are
// formatted since some providers send ids and coordinates unquoted.
func str(m map[string]any, path string) *string {
	switch t := getPath(m, path).(type) {
	case string:
		if t == "" {
			return nil
		}
		return &t
	case float64:
		if t == 0 {
			return nil
		}
		s := strconv.FormatFloat(t, 'f', -1, 64)
		return &s
	}
	return nil
}

// text is str with a default.
func text(m map[string]any, path, def string) string {
	if s := str(m, path); s != nil {
		return *s
	}
	return def
}

func num(m map[string]any, path string) *float64 {
	switch t := getPath(m, path).(type) {
	case float64:
		if t == 0 {
			return nil
		}
		return &t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || f == 0 {
			return nil
		}
		return &f
	}
	return nil
}

func integer(m map[string]any, path string) int {
	if f := num(m, path); f != nil {
		return int(*f)
	}
	return 0
}

func flag(m map[string]any, path string) bool {
	return truthy(getPath(m, path))
}

func obj(m map[string]any, path string) map[string]any {
	o, _ := getPath(m, path).(map[string]any)
	return o
}

// list returns the object elements of the array at path.  Non-object
// elements are dropped; the result is never nil.
func list(m map[string]any, path string) []map[string]any {
	raw, _ := getPath(m, path).([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if o, ok := item.(map[string]any); ok {
			out = append(out, o)
		}
	}
	return out
}

// first returns the first element of the array at path, or an empty map
// so that chained lookups keep resolving to nil.
func first(m map[string]any, path string) map[string]any {
	raw, _ := getPath(m, path).([]any)
	if len(raw) > 0 {
		if o, ok := raw[0].(map[string]any); ok {
			return o
		}
	}
	return map[string]any{}
}
