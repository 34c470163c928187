package actions

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/kotatut/scaffolder/check"
	"github.com/kotatut/scaffolder/configfile"
)

// VerifyArray checks a condition against a key of an in-memory tree.
type VerifyArray struct {
	Base
	Tree   map[string]any
	Params check.Params
}

// NewVerifyArray returns a VerifyArray over t.
func NewVerifyArray(t map[string]any, p check.Params, opts ...Option) *VerifyArray {
	return Configure(&VerifyArray{Tree: t, Params: p}, opts...)
}

func (a *VerifyArray) String() string { return check.DescribeKey(a.Params) }

func (a *VerifyArray) Validate() error {
	if err := a.Params.Validate(check.ArrayVariant); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

func (a *VerifyArray) Apply(_ context.Context, s *Scope) error {
	return applyKeyCheck(s, a.Tree, a.Params)
}

func applyKeyCheck(s *Scope, t map[string]any, p check.Params) error {
	ok, err := check.EvaluateKey(t, p)
	if err != nil {
		return err
	}
	s.Result.Value = ok
	s.Result.Success = ok
	s.Logger.Debug("Evaluated key condition",
		zap.String("key", p.Key),
		zap.Stringer("operator", p.Operator),
		zap.Bool("reverse", p.Reverse),
		zap.Bool("result", ok))
	return nil
}

// VerifyString checks a condition against a piece of text.
type VerifyString struct {
	Base
	Content string
	Params  check.Params
}

// NewVerifyString returns a VerifyString over content.
func NewVerifyString(content string, p check.Params, opts ...Option) *VerifyString {
	return Configure(&VerifyString{Content: content, Params: p}, opts...)
}

func (a *VerifyString) String() string {
	return check.DescribeSubject(fmt.Sprintf("string '%s'", a.Content), a.Params)
}

func (a *VerifyString) Validate() error {
	if err := a.Params.Validate(check.StringVariant); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

func (a *VerifyString) Apply(_ context.Context, s *Scope) error {
	return applyStringCheck(s, a.Content, a.Params)
}

func applyStringCheck(s *Scope, content string, p check.Params) error {
	ok, err := check.EvaluateString(content, p)
	if err != nil {
		return err
	}
	s.Result.Value = ok
	s.Result.Success = ok
	s.Logger.Debug("Evaluated string condition",
		zap.Stringer("operator", p.Operator),
		zap.Bool("reverse", p.Reverse),
		zap.Bool("result", ok))
	return nil
}

// VerifyFileContent checks a string condition against the content of a file.
type VerifyFileContent struct {
	Base
	Path   string
	Params check.Params
}

// NewVerifyFileContent returns a VerifyFileContent for the file at path.
func NewVerifyFileContent(path string, p check.Params, opts ...Option) *VerifyFileContent {
	return Configure(&VerifyFileContent{Path: path, Params: p}, opts...)
}

func (a *VerifyFileContent) String() string {
	return check.DescribeSubject(fmt.Sprintf("content of file '%s'", a.Path), a.Params)
}

func (a *VerifyFileContent) Validate() error {
	if a.Path == "" {
		return configError("file path cannot be empty")
	}
	if err := a.Params.Validate(check.StringVariant); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

func (a *VerifyFileContent) Apply(_ context.Context, s *Scope) error {
	data, err := afero.ReadFile(s.Fs, a.Path)
	if err != nil {
		return err
	}
	return applyStringCheck(s, string(data), a.Params)
}

// VerifyConfigFile checks a key condition against a configuration file.
type VerifyConfigFile struct {
	Base
	Path   string
	Params check.Params
}

// NewVerifyConfigFile returns a VerifyConfigFile for the file at path.
func NewVerifyConfigFile(path string, p check.Params, opts ...Option) *VerifyConfigFile {
	return Configure(&VerifyConfigFile{Path: path, Params: p}, opts...)
}

func (a *VerifyConfigFile) String() string {
	return fmt.Sprintf("%s in file '%s'", check.DescribeKey(a.Params), a.Path)
}

func (a *VerifyConfigFile) Validate() error {
	if a.Path == "" {
		return configError("config file path cannot be empty")
	}
	if _, err := configfile.DetectFormat(a.Path); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if err := a.Params.Validate(check.ArrayVariant); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

func (a *VerifyConfigFile) Apply(_ context.Context, s *Scope) error {
	t, _, err := configfile.Read(s.Fs, a.Path, s.Logger)
	if err != nil {
		return err
	}
	return applyKeyCheck(s, t, a.Params)
}

// Kind selects what FileExists accepts at a path.
type Kind int

const (
	AnyKind Kind = iota
	FileKind
	DirKind
)

func (k Kind) noun() string {
	switch k {
	case FileKind:
		return "file"
	case DirKind:
		return "directory"
	default:
		return "path"
	}
}

// FileExists checks that something of the given kind exists at a path.
type FileExists struct {
	Base
	Path    string
	Kind    Kind
	Reverse bool
}

// NewFileExists returns a FileExists check for path.
func NewFileExists(path string, kind Kind, opts ...Option) *FileExists {
	return Configure(&FileExists{Path: path, Kind: kind}, opts...)
}

// NewFileMissing returns the reversed check: nothing of kind exists at path.
func NewFileMissing(path string, kind Kind, opts ...Option) *FileExists {
	return Configure(&FileExists{Path: path, Kind: kind, Reverse: true}, opts...)
}

func (a *FileExists) String() string {
	verb := "exists"
	if a.Reverse {
		verb = "does not exist"
	}
	return fmt.Sprintf("Check if %s '%s' %s", a.Kind.noun(), a.Path, verb)
}

func (a *FileExists) Validate() error {
	if a.Path == "" {
		return configError("path cannot be empty")
	}
	if a.Kind < AnyKind || a.Kind > DirKind {
		return configError("unknown file kind %d", int(a.Kind))
	}
	return nil
}

func (a *FileExists) Apply(_ context.Context, s *Scope) error {
	found, err := exists(s.Fs, a.Path, a.Kind)
	if err != nil {
		return err
	}
	ok := found != a.Reverse
	s.Result.Value = ok
	s.Result.Success = ok
	s.Logger.Debug("Checked path", zap.String("path", a.Path), zap.Bool("found", found))
	return nil
}

func exists(fsys afero.Fs, path string, kind Kind) (bool, error) {
	fi, err := fsys.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	switch kind {
	case FileKind:
		return !fi.IsDir(), nil
	case DirKind:
		return fi.IsDir(), nil
	default:
		return true, nil
	}
}
