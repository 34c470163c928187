package configfile

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/kotatut/scaffolder/tree"
	"github.com/kotatut/scaffolder/value"
)

// decodeINI maps keys of the default section to the top level of the tree
// and every other section to a nested map. Dotted section and key names
// nest further. All values are strings.
func decodeINI(data []byte) (any, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return nil, err
	}

	out := map[string]any{}
	for _, sec := range cfg.Sections() {
		prefix := ""
		if sec.Name() != ini.DefaultSection {
			prefix = sec.Name()
			if err := checkINIPath(out, prefix, true); err != nil {
				return nil, fmt.Errorf("section [%s]: %w", sec.Name(), err)
			}
			if _, err := tree.Resolve(out, prefix); err != nil {
				if out, err = tree.Apply(out, prefix, tree.Add, map[string]any{}); err != nil {
					return nil, fmt.Errorf("section [%s]: %w", sec.Name(), err)
				}
			}
		}
		for _, key := range sec.Keys() {
			path := key.Name()
			if prefix != "" {
				path = tree.Join(prefix, key.Name())
			}
			if err := checkINIPath(out, path, false); err != nil {
				return nil, fmt.Errorf("section [%s] key %q: %w", sec.Name(), key.Name(), err)
			}
			if out, err = tree.Apply(out, path, tree.Add, key.String()); err != nil {
				return nil, fmt.Errorf("section [%s] key %q: %w", sec.Name(), key.Name(), err)
			}
		}
	}
	return out, nil
}

// checkINIPath fails when storing at path would overwrite a value with a
// section or a section with a value.
func checkINIPath(t map[string]any, path string, section bool) error {
	segments := strings.Split(path, tree.Separator)
	node := t
	for i, seg := range segments {
		next, ok := node[seg]
		if !ok {
			return nil
		}
		m, isMap := next.(map[string]any)
		last := i == len(segments)-1
		switch {
		case !isMap && (!last || section):
			return fmt.Errorf("%w: %q is a value and cannot be a section", ErrConflict, tree.Join(segments[:i+1]...))
		case isMap && last && !section:
			return fmt.Errorf("%w: %q is a section and cannot be a value", ErrConflict, path)
		}
		node = m
	}
	return nil
}

// encodeINI writes top-level scalars into the default section and every
// top-level map as a section whose nested keys are flattened to dotted
// names. Lists are written as comma separated strings.
func encodeINI(t map[string]any) ([]byte, error) {
	cfg := ini.Empty()

	keys := sortedKeys(t)
	for _, k := range keys {
		if _, ok := t[k].(map[string]any); ok {
			continue
		}
		if _, err := cfg.Section(ini.DefaultSection).NewKey(k, iniString(t[k])); err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
	}
	for _, k := range keys {
		child, ok := t[k].(map[string]any)
		if !ok {
			continue
		}
		sec, err := cfg.NewSection(k)
		if err != nil {
			return nil, fmt.Errorf("section [%s]: %w", k, err)
		}
		flat := tree.Flatten(child)
		for _, fk := range sortedKeys(flat) {
			if m, ok := flat[fk].(map[string]any); ok && len(m) == 0 {
				continue
			}
			if _, err := sec.NewKey(fk, iniString(flat[fk])); err != nil {
				return nil, fmt.Errorf("section [%s] key %q: %w", k, fk, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func iniString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = iniString(e)
		}
		return strings.Join(parts, ",")
	default:
		return value.MustOf(v).String()
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
