package configfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/kotatut/scaffolder/value"
)

// Decode parses data in format f into a tree. Blank input decodes to an
// empty tree.
func Decode(data []byte, f Format) (map[string]any, error) {
	return decode(data, f, "config."+f.String())
}

func decode(data []byte, f Format, filename string) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	var (
		raw any
		err error
	)
	switch f {
	case JSON:
		raw, err = decodeJSON(data)
	case YAML:
		raw, err = decodeYAML(data)
	case TOML:
		raw, err = decodeTOML(data)
	case INI:
		raw, err = decodeINI(data)
	case XML:
		raw, err = decodeXML(data)
	case HCL:
		raw, err = decodeHCL(data, filename)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", f, err)
	}

	t, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("decode %s: %w (got %T)", f, ErrNotATree, raw)
	}
	return t, nil
}

// Encode serialises t in format f.
func Encode(t map[string]any, f Format) ([]byte, error) {
	if t == nil {
		t = map[string]any{}
	}
	t, _ = normalize(t).(map[string]any)
	if f == TOML {
		t, _ = mapTimes(t, tomlTime).(map[string]any)
	} else {
		t, _ = mapTimes(t, timesAsText).(map[string]any)
	}

	var (
		data []byte
		err  error
	)
	switch f {
	case JSON:
		data, err = encodeJSON(t)
	case YAML:
		data, err = encodeYAML(t)
	case TOML:
		data, err = encodeTOML(t)
	case INI:
		data, err = encodeINI(t)
	case XML:
		data, err = encodeXML(t)
	case HCL:
		data, err = encodeHCL(t)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", f, err)
	}
	return data, nil
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("unexpected extra content after JSON document")
		}
		return nil, err
	}
	return v, nil
}

func encodeJSON(t map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeYAML(data []byte) (any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("unexpected extra YAML document")
		}
		return nil, err
	}
	if v == nil {
		return map[string]any{}, nil
	}
	return v, nil
}

func encodeYAML(t map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeTOML(data []byte) (any, error) {
	var v map[string]any
	if _, err := toml.Decode(string(data), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func encodeTOML(t map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// localTime writes a time as a bare TOML literal in its own location. Local
// dates and times keep their kind; other times keep their offset.
type localTime time.Time

func (t localTime) MarshalTOML() ([]byte, error) {
	return []byte(value.FormatTime(time.Time(t))), nil
}

func tomlTime(t time.Time) any {
	return localTime(t)
}
