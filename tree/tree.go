// Package tree addresses values inside nested configuration maps.
//
// A configuration tree is a map[string]any whose interior nodes are maps of
// the same type and whose leaves are scalars, slices or further maps. Values
// are addressed with dot-separated key paths such as "database.mysql.host":
// each segment indexes one level of the tree.
package tree

import (
	"fmt"
	"sort"
	"strings"
)

// Separator joins the segments of a key path.
const Separator = "."

// AsMap reports whether v is an interior node of a tree.
func AsMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// ValidateKey checks that key is a usable key path: non-empty and without
// empty segments ("a..b", ".a", "a.").
func ValidateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	for _, segment := range strings.Split(key, Separator) {
		if segment == "" {
			return fmt.Errorf("%w: %q has an empty segment", ErrInvalidKey, key)
		}
	}
	return nil
}

// Resolve returns the value stored at key inside t.
//
// If a segment is absent the returned error is a *MissingKeyError carrying
// the full dotted path up to and including that segment. If a segment
// resolves to something that is not a map while more segments follow, the
// error is a *NotAMapError. Both match ErrMissingKey with errors.Is.
func Resolve(t map[string]any, key string) (any, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	return resolve(t, key)
}

func resolve(t map[string]any, key string) (any, error) {
	head, rest, nested := strings.Cut(key, Separator)

	v, ok := t[head]
	if !ok {
		return nil, &MissingKeyError{Key: head}
	}
	if !nested {
		return v, nil
	}

	child, ok := AsMap(v)
	if !ok {
		return nil, &NotAMapError{Key: head, Type: typeName(v)}
	}

	v, err := resolve(child, rest)
	if err != nil {
		return nil, withPrefix(head, err)
	}
	return v, nil
}

// withPrefix re-attaches the parent segment to a failure raised one level
// down so that the caller sees the full path.
func withPrefix(head string, err error) error {
	switch e := err.(type) {
	case *MissingKeyError:
		return &MissingKeyError{Key: head + Separator + e.Key}
	case *NotAMapError:
		return &NotAMapError{Key: head + Separator + e.Key, Type: e.Type}
	default:
		return err
	}
}

// Lookup is the non-failing form of Resolve: it returns the value and
// whether the key was found.
func Lookup(t map[string]any, key string) (any, bool) {
	v, err := Resolve(t, key)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Has reports whether key resolves inside t.
func Has(t map[string]any, key string) bool {
	_, ok := Lookup(t, key)
	return ok
}

// Join builds a key path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, Separator)
}

// Flatten returns every leaf of t keyed by its dotted path. Empty maps are
// kept as leaves so that no key disappears.
func Flatten(t map[string]any) map[string]any {
	out := make(map[string]any)
	flatten("", t, out)
	return out
}

func flatten(prefix string, t map[string]any, out map[string]any) {
	for k, v := range t {
		key := k
		if prefix != "" {
			key = prefix + Separator + k
		}
		if child, ok := AsMap(v); ok && len(child) > 0 {
			flatten(key, child, out)
			continue
		}
		out[key] = v
	}
}

// Keys returns the dotted paths of every leaf of t in sorted order.
func Keys(t map[string]any) []string {
	flat := Flatten(t)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case []any:
		return "list"
	case string:
		return "string"
	case bool:
		return "bool"
	default:
		return fmt.Sprintf("%T", v)
	}
}
