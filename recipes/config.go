// Package recipes builds the action lists that generate projects.
package recipes

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/kotatut/scaffolder/configfile"
	"github.com/kotatut/scaffolder/tree"
)

const (
	DefaultTemplate  = "template"
	DefaultNamespace = "App"
)

// DefaultExcludeDirs are never copied from the template.
var DefaultExcludeDirs = []string{"vendor", "node_modules"}

// Config describes the project to generate.
type Config struct {
	Name        string
	Description string
	// Template is the directory the project is copied from.
	Template string
	// Output is the directory of the generated project. It defaults to the
	// slug of Name.
	Output       string
	Namespace    string
	Placeholders map[string]string
	ExcludeDirs  []string
	// Overwrite allows generating into an existing output directory.
	Overwrite bool
}

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// Slug is the lower-case, dash-separated form of name.
func Slug(name string) string {
	return strings.Trim(slugSeparators.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// FromTree reads a Config from a decoded configuration file. Every invalid
// field is reported in one *ValidationErrors.
func FromTree(t map[string]any) (Config, error) {
	var errs []ValidationError
	str := func(key string) string {
		raw, ok := tree.Lookup(t, key)
		if !ok || raw == nil {
			return ""
		}
		s, ok := raw.(string)
		if !ok {
			errs = append(errs, ValidationError{Field: key, Message: "must be a string", Value: raw, Wrapped: ErrInvalidConfig})
			return ""
		}
		return strings.TrimSpace(s)
	}

	cfg := Config{
		Name:        str("name"),
		Description: str("description"),
		Template:    str("template"),
		Output:      str("output"),
		Namespace:   str("namespace"),
	}
	for _, field := range []struct{ key, val string }{{"name", cfg.Name}, {"description", cfg.Description}} {
		if field.val == "" {
			errs = append(errs, ValidationError{
				Field:   field.key,
				Message: "required field is empty",
				Wrapped: ErrMissingField,
			})
		}
	}

	if raw, ok := tree.Lookup(t, "overwrite"); ok {
		b, isBool := raw.(bool)
		if !isBool {
			errs = append(errs, ValidationError{Field: "overwrite", Message: "must be a boolean", Value: raw, Wrapped: ErrInvalidConfig})
		}
		cfg.Overwrite = b
	}

	if raw, ok := tree.Lookup(t, "placeholders"); ok {
		m, isMap := tree.AsMap(raw)
		if !isMap {
			errs = append(errs, ValidationError{Field: "placeholders", Message: "must be a map", Value: raw, Wrapped: ErrInvalidConfig})
		}
		for k, v := range m {
			if cfg.Placeholders == nil {
				cfg.Placeholders = make(map[string]string, len(m))
			}
			cfg.Placeholders[k] = fmt.Sprint(v)
		}
	}

	if raw, ok := tree.Lookup(t, "exclude_dirs"); ok {
		list, isList := raw.([]any)
		if !isList {
			errs = append(errs, ValidationError{Field: "exclude_dirs", Message: "must be a list", Value: raw, Wrapped: ErrInvalidConfig})
		}
		for _, item := range list {
			cfg.ExcludeDirs = append(cfg.ExcludeDirs, fmt.Sprint(item))
		}
	}

	if len(errs) > 0 {
		return Config{}, &ValidationErrors{Errors: errs}
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	if c.Template == "" {
		c.Template = DefaultTemplate
	}
	if c.Output == "" {
		c.Output = Slug(c.Name)
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.ExcludeDirs == nil {
		c.ExcludeDirs = append([]string(nil), DefaultExcludeDirs...)
	}
	return c
}

// Values are the placeholders substituted in generated files: the
// configured ones plus name, slug, description and namespace.
func (c Config) Values() map[string]string {
	out := map[string]string{
		"name":        c.Name,
		"slug":        Slug(c.Name),
		"description": c.Description,
		"namespace":   c.Namespace,
	}
	for k, v := range c.Placeholders {
		out[k] = v
	}
	return out
}

// LoadConfig reads a Config from a configuration file in any supported
// format.
func LoadConfig(fs afero.Fs, path string, logger *zap.Logger) (Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t, _, err := configfile.Read(fs, path, logger)
	if err != nil {
		return Config{}, err
	}
	cfg, err := FromTree(t)
	if err != nil {
		logger.Error("Invalid project configuration", zap.String("path", path), zap.Error(err))
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("Loaded project configuration",
		zap.String("path", path),
		zap.String("name", cfg.Name),
		zap.String("output", cfg.Output))
	return cfg, nil
}

// sortedKeys returns the keys of m in order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
