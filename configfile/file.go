package configfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Read loads the file at path into a tree, choosing the format from the
// extension.
func Read(fs afero.Fs, path string, logger *zap.Logger) (map[string]any, Format, error) {
	f, err := DetectFormat(path)
	if err != nil {
		return nil, 0, err
	}
	t, err := ReadAs(fs, path, f, logger)
	return t, f, err
}

// ReadAs loads the file at path as format f regardless of its extension.
func ReadAs(fs afero.Fs, path string, f Format, logger *zap.Logger) (map[string]any, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Debug("Reading config file", zap.String("path", path), zap.Stringer("format", f))
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		logger.Error("Error reading config file", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	t, err := decode(data, f, path)
	if err != nil {
		logger.Error("Error parsing config file", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Write stores t at path, choosing the format from the extension.
func Write(fs afero.Fs, path string, t map[string]any, logger *zap.Logger) error {
	f, err := DetectFormat(path)
	if err != nil {
		return err
	}
	return WriteAs(fs, path, t, f, logger)
}

// WriteAs stores t at path as format f. Parent directories are created and
// the file is replaced atomically through a sibling temporary file.
func WriteAs(fs afero.Fs, path string, t map[string]any, f Format, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := Encode(t, f)
	if err != nil {
		logger.Error("Error encoding config file", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s: %w", path, err)
	}

	logger.Debug("Writing config file", zap.String("path", path), zap.Stringer("format", f))
	if err := atomicWrite(fs, path, data); err != nil {
		logger.Error("Error writing config file", zap.String("path", path), zap.Error(err))
		return err
	}
	logger.Info("Wrote config file", zap.String("path", path), zap.Stringer("format", f))
	return nil
}

// Convert reads src and writes the same tree to dst, each in the format of
// its extension.
func Convert(fs afero.Fs, src, dst string, logger *zap.Logger) error {
	t, _, err := Read(fs, src, logger)
	if err != nil {
		return err
	}
	return Write(fs, dst, t, logger)
}

func atomicWrite(fs afero.Fs, path string, data []byte) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	mode := os.FileMode(0o644)
	if fi, err := fs.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := afero.TempFile(fs, dir, "."+base+".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	renamed := false
	defer func() {
		_ = tmp.Close()
		if !renamed {
			_ = fs.Remove(name)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := fs.Chmod(name, mode); err != nil {
		return err
	}
	if err := fs.Rename(name, path); err != nil {
		return err
	}
	renamed = true
	return nil
}
