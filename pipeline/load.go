package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kotatut/scaffolder/actions"
)

// Parse decodes a YAML or JSON pipeline document. Unknown fields are
// rejected so misspelt options do not go unnoticed.
func Parse(data []byte) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Document{}, fmt.Errorf("%w: empty document", ErrInvalidDefinition)
		}
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return Document{}, fmt.Errorf("%w: unexpected extra YAML document", ErrInvalidDefinition)
		}
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	return doc, nil
}

// Load reads the pipeline file at path and builds its actions.
func Load(fs afero.Fs, path string, logger *zap.Logger) ([]actions.Action, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		logger.Error("Error parsing pipeline", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	list, err := Build(doc)
	if err != nil {
		logger.Error("Error building pipeline", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("Loaded pipeline", zap.String("path", path), zap.Int("actions", len(list)))
	return list, nil
}
