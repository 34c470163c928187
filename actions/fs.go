package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ErrExists is returned when a target path is already taken.
var ErrExists = errors.New("target already exists")

// CopyFile copies one regular file, creating the target's parents.
type CopyFile struct {
	Base
	Source    string
	Target    string
	Overwrite bool
}

// NewCopyFile returns a CopyFile from src to dst.
func NewCopyFile(src, dst string, opts ...Option) *CopyFile {
	return Configure(&CopyFile{Source: src, Target: dst}, opts...)
}

func (a *CopyFile) String() string {
	return fmt.Sprintf("Copy file '%s' to '%s'", a.Source, a.Target)
}

func (a *CopyFile) Validate() error {
	return requirePaths(a.Source, a.Target)
}

func (a *CopyFile) Apply(_ context.Context, s *Scope) error {
	fi, err := s.Fs.Stat(a.Source)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("'%s' is a directory", a.Source)
	}
	if !a.Overwrite {
		if err := ensureAbsent(s.Fs, a.Target); err != nil {
			return err
		}
	}
	if err := copyFile(s.Fs, a.Source, a.Target, fi.Mode().Perm()); err != nil {
		return err
	}
	s.Logger.Info("Copied file", zap.String("path", a.Source), zap.String("target", a.Target))
	return nil
}

// CopyDirectory copies a directory tree, skipping directories by name.
type CopyDirectory struct {
	Base
	Source      string
	Target      string
	ExcludeDirs []string
	Overwrite   bool
}

// NewCopyDirectory returns a CopyDirectory from src to dst.
func NewCopyDirectory(src, dst string, opts ...Option) *CopyDirectory {
	return Configure(&CopyDirectory{Source: src, Target: dst}, opts...)
}

func (a *CopyDirectory) String() string {
	desc := fmt.Sprintf("Copy directory '%s' to '%s'", a.Source, a.Target)
	if len(a.ExcludeDirs) > 0 {
		desc += fmt.Sprintf(" excluding %s", strings.Join(a.ExcludeDirs, ", "))
	}
	return desc
}

func (a *CopyDirectory) Validate() error {
	return requirePaths(a.Source, a.Target)
}

func (a *CopyDirectory) Apply(_ context.Context, s *Scope) error {
	fi, err := s.Fs.Stat(a.Source)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("'%s' is not a directory", a.Source)
	}
	if within(a.Source, a.Target) {
		return fmt.Errorf("target '%s' is inside source '%s'", a.Target, a.Source)
	}

	copied := 0
	err = afero.Walk(s.Fs, a.Source, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(a.Source, path)
		if err != nil {
			return err
		}
		target := filepath.Join(a.Target, rel)

		if info.IsDir() {
			if rel != "." && slices.Contains(a.ExcludeDirs, info.Name()) {
				s.Logger.Debug("Skipping excluded directory", zap.String("path", path))
				return filepath.SkipDir
			}
			return s.Fs.MkdirAll(target, info.Mode().Perm()|0o700)
		}
		if !a.Overwrite {
			if err := ensureAbsent(s.Fs, target); err != nil {
				return err
			}
		}
		copied++
		return copyFile(s.Fs, path, target, info.Mode().Perm())
	})
	if err != nil {
		return err
	}

	s.Result.Value = copied
	s.Logger.Info("Copied directory",
		zap.String("path", a.Source),
		zap.String("target", a.Target),
		zap.Int("files", copied))
	return nil
}

// Rename gives a file or directory a new name in the same directory.
type Rename struct {
	Base
	Path    string
	NewName string
}

// NewRename returns a Rename of path to newName.
func NewRename(path, newName string, opts ...Option) *Rename {
	return Configure(&Rename{Path: path, NewName: newName}, opts...)
}

func (a *Rename) String() string {
	return fmt.Sprintf("Rename '%s' to '%s'", a.Path, a.NewName)
}

func (a *Rename) Validate() error {
	if err := requirePaths(a.Path, a.NewName); err != nil {
		return err
	}
	if strings.ContainsAny(a.NewName, `/\`) {
		return configError("new name '%s' cannot contain a path separator", a.NewName)
	}
	return nil
}

func (a *Rename) Apply(_ context.Context, s *Scope) error {
	target := filepath.Join(filepath.Dir(a.Path), a.NewName)
	if _, err := s.Fs.Stat(a.Path); err != nil {
		return err
	}
	if err := ensureAbsent(s.Fs, target); err != nil {
		return err
	}
	if err := s.Fs.Rename(a.Path, target); err != nil {
		return err
	}
	s.Result.Value = target
	s.Logger.Info("Renamed path", zap.String("path", a.Path), zap.String("target", target))
	return nil
}

// Move moves a file or directory, creating the target's parents.
type Move struct {
	Base
	Source string
	Target string
}

// NewMove returns a Move from src to dst.
func NewMove(src, dst string, opts ...Option) *Move {
	return Configure(&Move{Source: src, Target: dst}, opts...)
}

func (a *Move) String() string {
	return fmt.Sprintf("Move '%s' to '%s'", a.Source, a.Target)
}

func (a *Move) Validate() error {
	return requirePaths(a.Source, a.Target)
}

func (a *Move) Apply(_ context.Context, s *Scope) error {
	if _, err := s.Fs.Stat(a.Source); err != nil {
		return err
	}
	if err := ensureAbsent(s.Fs, a.Target); err != nil {
		return err
	}
	if err := s.Fs.MkdirAll(filepath.Dir(a.Target), 0o755); err != nil {
		return err
	}
	if err := s.Fs.Rename(a.Source, a.Target); err != nil {
		return err
	}
	s.Logger.Info("Moved path", zap.String("path", a.Source), zap.String("target", a.Target))
	return nil
}

// Remove deletes a file or a directory tree.
type Remove struct {
	Base
	Path          string
	IgnoreMissing bool
}

// NewRemove returns a Remove of path.
func NewRemove(path string, opts ...Option) *Remove {
	return Configure(&Remove{Path: path}, opts...)
}

func (a *Remove) String() string {
	return fmt.Sprintf("Remove '%s'", a.Path)
}

func (a *Remove) Validate() error {
	return requirePaths(a.Path)
}

func (a *Remove) Apply(_ context.Context, s *Scope) error {
	if _, err := s.Fs.Stat(a.Path); err != nil {
		if a.IgnoreMissing && errors.Is(err, fs.ErrNotExist) {
			s.Result.Value = false
			return nil
		}
		return err
	}
	if err := s.Fs.RemoveAll(a.Path); err != nil {
		return err
	}
	s.Result.Value = true
	s.Logger.Info("Removed path", zap.String("path", a.Path))
	return nil
}

// MakeDirectory creates a directory and its parents.
type MakeDirectory struct {
	Base
	Path string
}

// NewMakeDirectory returns a MakeDirectory for path.
func NewMakeDirectory(path string, opts ...Option) *MakeDirectory {
	return Configure(&MakeDirectory{Path: path}, opts...)
}

func (a *MakeDirectory) String() string {
	return fmt.Sprintf("Create directory '%s'", a.Path)
}

func (a *MakeDirectory) Validate() error {
	return requirePaths(a.Path)
}

func (a *MakeDirectory) Apply(_ context.Context, s *Scope) error {
	if err := s.Fs.MkdirAll(a.Path, 0o755); err != nil {
		return err
	}
	s.Logger.Info("Created directory", zap.String("path", a.Path))
	return nil
}

// WriteFile writes content to a file, creating its parents.
type WriteFile struct {
	Base
	Path    string
	Content string
}

// NewWriteFile returns a WriteFile of content to path.
func NewWriteFile(path, content string, opts ...Option) *WriteFile {
	return Configure(&WriteFile{Path: path, Content: content}, opts...)
}

func (a *WriteFile) String() string {
	return fmt.Sprintf("Write file '%s'", a.Path)
}

func (a *WriteFile) Validate() error {
	return requirePaths(a.Path)
}

func (a *WriteFile) Apply(_ context.Context, s *Scope) error {
	if err := writeFile(s.Fs, a.Path, []byte(a.Content)); err != nil {
		return err
	}
	s.Logger.Info("Wrote file", zap.String("path", a.Path), zap.Int("bytes", len(a.Content)))
	return nil
}

func requirePaths(paths ...string) error {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			return configError("path cannot be empty")
		}
	}
	return nil
}

// within reports whether path lies inside (or is) root.
func within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func ensureAbsent(fsys afero.Fs, path string) error {
	_, err := fsys.Stat(path)
	if err == nil {
		return fmt.Errorf("%w: '%s'", ErrExists, path)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func writeFile(fsys afero.Fs, path string, data []byte) error {
	mode := os.FileMode(0o644)
	if fi, err := fsys.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(fsys, path, data, mode)
}

func copyFile(fsys afero.Fs, src, dst string, mode os.FileMode) error {
	if err := fsys.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fsys.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
