package actions

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Factory builds the action run for one file.
type Factory func(path string) (Action, error)

// PerFile adapts a builder that cannot fail to a Factory.
func PerFile(build func(path string) Action) Factory {
	return func(path string) (Action, error) { return build(path), nil }
}

// describedFile is the path per-file actions are described with.
const describedFile = "<file>"

// FilesInDirectory runs freshly built actions for every file below Root.
// Each per-file action is forced fatal and not success-required: a failing
// file aborts the walk, an unsuccessful check does not.
type FilesInDirectory struct {
	Base
	Root      string
	Recursive bool
	// Patterns are doublestar globs matched against the slash-separated
	// path relative to Root. No patterns match every file.
	Patterns    []string
	ExcludeDirs []string
	Each        []Factory
}

// NewFilesInDirectory returns a FilesInDirectory below root running each
// factory's action per file.
func NewFilesInDirectory(root string, each []Factory, opts ...Option) *FilesInDirectory {
	return Configure(&FilesInDirectory{Root: root, Each: each}, opts...)
}

func (a *FilesInDirectory) String() string {
	var b strings.Builder
	b.WriteString("For each file in ")
	if a.Recursive {
		b.WriteString("tree ")
	}
	fmt.Fprintf(&b, "'%s'", a.Root)
	if len(a.Patterns) > 0 {
		fmt.Fprintf(&b, " matching %s", strings.Join(a.Patterns, ", "))
	}
	if len(a.ExcludeDirs) > 0 {
		fmt.Fprintf(&b, " excluding %s", strings.Join(a.ExcludeDirs, ", "))
	}
	for _, build := range a.Each {
		b.WriteString("\n")
		act, err := buildFor(build, describedFile)
		if err != nil {
			b.WriteString(indent("- <invalid: " + err.Error() + ">"))
			continue
		}
		b.WriteString(indent("- " + describe(act)))
	}
	return b.String()
}

func (a *FilesInDirectory) Validate() error {
	if err := requirePaths(a.Root); err != nil {
		return err
	}
	if len(a.Each) == 0 {
		return configError("no actions to run per file")
	}
	for i, build := range a.Each {
		if build == nil {
			return configError("per-file action %d is nil", i)
		}
	}
	for _, p := range a.Patterns {
		if !doublestar.ValidatePattern(p) {
			return configError("invalid pattern %q", p)
		}
	}
	return nil
}

func (a *FilesInDirectory) Apply(ctx context.Context, s *Scope) error {
	files, err := a.files(s.Fs)
	if err != nil {
		return err
	}
	s.Logger.Debug("Collected files", zap.String("path", a.Root), zap.Int("files", len(files)))

	for _, path := range files {
		for _, build := range a.Each {
			act, err := buildFor(build, path)
			if err != nil {
				return err
			}
			b := act.base()
			b.fatal = true
			b.successRequired = false

			if _, err := s.RunChild(ctx, act); err != nil {
				return err
			}
		}
	}
	s.Result.Value = files
	return nil
}

func buildFor(build Factory, path string) (Action, error) {
	act, err := build(path)
	if err == nil && act == nil {
		err = errors.New("factory returned no action")
	}
	if err != nil {
		return nil, fmt.Errorf("build action for %s: %w", path, err)
	}
	return act, nil
}

func (a *FilesInDirectory) files(fsys afero.Fs) ([]string, error) {
	var files []string
	err := afero.Walk(fsys, a.Root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path == a.Root {
				return nil
			}
			if !a.Recursive || slices.Contains(a.ExcludeDirs, info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(a.Root, path)
		if err != nil {
			return err
		}
		if a.matches(filepath.ToSlash(rel)) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func (a *FilesInDirectory) matches(rel string) bool {
	if len(a.Patterns) == 0 {
		return true
	}
	for _, p := range a.Patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
