// Package configfile reads configuration files into trees and writes trees
// back to disk.
//
// A tree is the map[string]any representation addressed by the tree
// package. Every decoder normalises its output to map[string]any, []any,
// string, bool, int, float64 and nil so that trees read from different
// formats compare equal.
package configfile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for unknown extensions and format names.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrNotATree is returned when a document's top level is not a map.
	ErrNotATree = errors.New("document is not a map")

	// ErrUnsupportedValue is returned when a tree holds something the target
	// format cannot express.
	ErrUnsupportedValue = errors.New("unsupported value")

	// ErrConflict is returned when an INI document uses one name both as a
	// value and as a section.
	ErrConflict = errors.New("conflicting keys")
)

// Format is a configuration file syntax.
type Format int

const (
	JSON Format = iota + 1
	YAML
	TOML
	INI
	XML
	HCL
)

var formatNames = map[Format]string{
	JSON: "json",
	YAML: "yaml",
	TOML: "toml",
	INI:  "ini",
	XML:  "xml",
	HCL:  "hcl",
}

var extensions = map[string]Format{
	".json": JSON,
	".yaml": YAML,
	".yml":  YAML,
	".toml": TOML,
	".ini":  INI,
	".cfg":  INI,
	".conf": INI,
	".xml":  XML,
	".hcl":  HCL,
	".tf":   HCL,
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// Formats lists every supported format.
func Formats() []Format {
	return []Format{JSON, YAML, TOML, INI, XML, HCL}
}

// DetectFormat picks the format from the extension of path.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: extension %q of %s", ErrUnsupportedFormat, ext, path)
}

// ParseFormat maps a format name such as "yaml" or "yml" to a Format.
func ParseFormat(name string) (Format, error) {
	n := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "."))
	for f, fn := range formatNames {
		if fn == n {
			return f, nil
		}
	}
	if f, ok := extensions["."+n]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}
