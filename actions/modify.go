package actions

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"go.uber.org/zap"

	"github.com/kotatut/scaffolder/configfile"
	"github.com/kotatut/scaffolder/tree"
	"github.com/kotatut/scaffolder/value"
)

// Modification is one (key, operation, value) edit of a tree.
type Modification struct {
	Key       string
	Operation tree.Operation
	Value     any
}

// Set returns a change_value modification.
func Set(key string, v any) Modification {
	return Modification{Key: key, Operation: tree.ChangeValue, Value: v}
}

// Add returns an add modification.
func Add(key string, v any) Modification {
	return Modification{Key: key, Operation: tree.Add, Value: v}
}

// RemoveKey returns a remove_key modification.
func RemoveKey(key string) Modification {
	return Modification{Key: key, Operation: tree.RemoveKey}
}

func (m Modification) String() string {
	switch m.Operation {
	case tree.Add:
		return fmt.Sprintf("add key '%s' with value '%s'", m.Key, describeValue(m.Value))
	case tree.ChangeValue:
		return fmt.Sprintf("change value of key '%s' to '%s'", m.Key, describeValue(m.Value))
	case tree.RemoveKey:
		return fmt.Sprintf("remove key '%s'", m.Key)
	default:
		return fmt.Sprintf("%s key '%s'", m.Operation, m.Key)
	}
}

func describeValue(v any) string {
	if val, err := value.Of(v); err == nil {
		return val.String()
	}
	return fmt.Sprint(v)
}

func validateModifications(mods []Modification) error {
	if len(mods) == 0 {
		return configError("at least one modification is required")
	}
	for i, m := range mods {
		if err := tree.Validate(m.Key, m.Operation); err != nil {
			return fmt.Errorf("%w: modification %d: %w", ErrConfiguration, i, err)
		}
		if _, err := value.Of(m.Value); err != nil {
			return fmt.Errorf("%w: modification %d: %w", ErrConfiguration, i, err)
		}
	}
	return nil
}

func applyModifications(s *Scope, t map[string]any, mods []Modification) (map[string]any, error) {
	for _, m := range mods {
		var err error
		if t, err = tree.Apply(t, m.Key, m.Operation, m.Value); err != nil {
			return nil, err
		}
		s.Logger.Info("Modified key", zap.String("key", m.Key), zap.Stringer("operation", m.Operation))
	}
	return t, nil
}

func describeModifications(mods []Modification) string {
	parts := make([]string, len(mods))
	for i, m := range mods {
		parts[i] = m.String()
	}
	return strings.Join(parts, ", ")
}

// ModifyArray applies modifications to an in-memory tree. The input is not
// changed: the modified tree is the Result value and is also available
// through Output after a run.
type ModifyArray struct {
	Base
	Tree          map[string]any
	Modifications []Modification

	output map[string]any
}

// NewModifyArray returns a ModifyArray over t.
func NewModifyArray(t map[string]any, mods []Modification, opts ...Option) *ModifyArray {
	return Configure(&ModifyArray{Tree: t, Modifications: mods}, opts...)
}

func (a *ModifyArray) String() string {
	return "Modify array: " + describeModifications(a.Modifications)
}

func (a *ModifyArray) Validate() error { return validateModifications(a.Modifications) }

func (a *ModifyArray) Apply(_ context.Context, s *Scope) error {
	t := a.Tree
	if t == nil {
		t = map[string]any{}
	}
	out, err := applyModifications(s, t, a.Modifications)
	if err != nil {
		return err
	}
	a.output = out
	s.Result.Value = out
	return nil
}

// Output returns the tree produced by the last run.
func (a *ModifyArray) Output() map[string]any { return a.output }

// ModifyConfigFile applies modifications to a configuration file and writes
// it back in the same format.
type ModifyConfigFile struct {
	Base
	Path          string
	Modifications []Modification
	// CreateMissing starts from an empty tree when the file does not exist.
	CreateMissing bool
}

// NewModifyConfigFile returns a ModifyConfigFile for the file at path.
func NewModifyConfigFile(path string, mods []Modification, opts ...Option) *ModifyConfigFile {
	return Configure(&ModifyConfigFile{Path: path, Modifications: mods}, opts...)
}

func (a *ModifyConfigFile) String() string {
	return fmt.Sprintf("Modify config file '%s': %s", a.Path, describeModifications(a.Modifications))
}

func (a *ModifyConfigFile) Validate() error {
	if a.Path == "" {
		return configError("config file path cannot be empty")
	}
	if _, err := configfile.DetectFormat(a.Path); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return validateModifications(a.Modifications)
}

func (a *ModifyConfigFile) Apply(_ context.Context, s *Scope) error {
	t, f, err := configfile.Read(s.Fs, a.Path, s.Logger)
	if err != nil {
		if !a.CreateMissing || !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		t = map[string]any{}
		f, _ = configfile.DetectFormat(a.Path)
	}

	out, err := applyModifications(s, t, a.Modifications)
	if err != nil {
		return err
	}
	if err := configfile.WriteAs(s.Fs, a.Path, out, f, s.Logger); err != nil {
		return err
	}
	s.Result.Value = out
	return nil
}

// ConvertConfigFile rewrites a configuration file in another format.
type ConvertConfigFile struct {
	Base
	Source string
	Target string
}

// NewConvertConfigFile returns a ConvertConfigFile from src to dst.
func NewConvertConfigFile(src, dst string, opts ...Option) *ConvertConfigFile {
	return Configure(&ConvertConfigFile{Source: src, Target: dst}, opts...)
}

func (a *ConvertConfigFile) String() string {
	return fmt.Sprintf("Convert config file '%s' to '%s'", a.Source, a.Target)
}

func (a *ConvertConfigFile) Validate() error {
	for _, p := range []string{a.Source, a.Target} {
		if p == "" {
			return configError("source and target cannot be empty")
		}
		if _, err := configfile.DetectFormat(p); err != nil {
			return fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
	}
	return nil
}

func (a *ConvertConfigFile) Apply(_ context.Context, s *Scope) error {
	return configfile.Convert(s.Fs, a.Source, a.Target, s.Logger)
}
