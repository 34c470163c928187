package actions

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Unzip extracts a zip archive into a directory.
type Unzip struct {
	Base
	Archive string
	Target  string
	// StripTopLevel drops the single directory that wraps every entry, as
	// found in release archives.
	StripTopLevel bool
}

// NewUnzip returns an Unzip of archive into dst.
func NewUnzip(archive, dst string, opts ...Option) *Unzip {
	return Configure(&Unzip{Archive: archive, Target: dst}, opts...)
}

func (a *Unzip) String() string {
	return fmt.Sprintf("Extract archive '%s' to '%s'", a.Archive, a.Target)
}

func (a *Unzip) Validate() error {
	return requirePaths(a.Archive, a.Target)
}

func (a *Unzip) Apply(_ context.Context, s *Scope) error {
	f, err := s.Fs.Open(a.Archive)
	if err != nil {
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}
	zr, err := zip.NewReader(f, fi.Size())
	if err != nil {
		return fmt.Errorf("open archive '%s': %w", a.Archive, err)
	}

	prefix := ""
	if a.StripTopLevel {
		prefix = commonTopLevel(zr.File)
	}

	extracted := 0
	for _, entry := range zr.File {
		name := strings.TrimPrefix(entry.Name, prefix)
		if name == "" {
			continue
		}
		dst := filepath.Join(a.Target, filepath.FromSlash(name))
		if !within(a.Target, dst) {
			return fmt.Errorf("archive entry '%s' escapes the target directory", entry.Name)
		}

		if entry.FileInfo().IsDir() {
			if err := s.Fs.MkdirAll(dst, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := extractEntry(s, entry, dst); err != nil {
			return fmt.Errorf("extract '%s': %w", entry.Name, err)
		}
		extracted++
	}

	s.Result.Value = extracted
	s.Logger.Info("Extracted archive",
		zap.String("path", a.Archive),
		zap.String("target", a.Target),
		zap.Int("files", extracted))
	return nil
}

func extractEntry(s *Scope, entry *zip.File, dst string) error {
	if err := s.Fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := entry.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := s.Fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// commonTopLevel returns "dir/" when every entry lives below the same
// top-level directory, and "" otherwise.
func commonTopLevel(files []*zip.File) string {
	top := ""
	for _, f := range files {
		first, _, nested := strings.Cut(path.Clean(f.Name), "/")
		if !nested && !f.FileInfo().IsDir() {
			return ""
		}
		if top == "" {
			top = first
		} else if first != top {
			return ""
		}
	}
	if top == "" {
		return ""
	}
	return top + "/"
}
