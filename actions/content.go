package actions

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// LineOperation is an edit applied to the lines of a file.
type LineOperation int

const (
	ReplaceLine LineOperation = iota + 1
	RemoveLine
	AppendLine
)

var lineOperationNames = map[LineOperation]string{
	ReplaceLine: "replace",
	RemoveLine:  "remove",
	AppendLine:  "append",
}

func (o LineOperation) String() string {
	if name, ok := lineOperationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("line_operation(%d)", int(o))
}

// ParseLineOperation maps "replace", "remove" or "append" to a LineOperation.
func ParseLineOperation(s string) (LineOperation, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	for op, name := range lineOperationNames {
		if name == n {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown line operation %q", ErrConfiguration, s)
}

// Match selects lines either by substring or by prefix.
type Match struct {
	Text   string
	Prefix bool
}

// Substring matches lines containing s.
func Substring(s string) Match { return Match{Text: s} }

// LinePrefix matches lines starting with s.
func LinePrefix(s string) Match { return Match{Text: s, Prefix: true} }

func (m Match) matches(line string) bool {
	if m.Prefix {
		return strings.HasPrefix(line, m.Text)
	}
	return strings.Contains(line, m.Text)
}

func (m Match) String() string {
	if m.Prefix {
		return fmt.Sprintf("starting with '%s'", m.Text)
	}
	return fmt.Sprintf("containing '%s'", m.Text)
}

// LineEdit is one line operation. Append without a match adds Text at the
// end of the file, with a match after every matching line.
type LineEdit struct {
	Operation LineOperation
	Match     Match
	Text      string
}

// ReplaceLines replaces every line selected by m with text.
func ReplaceLines(m Match, text string) LineEdit {
	return LineEdit{Operation: ReplaceLine, Match: m, Text: text}
}

// RemoveLines drops every line selected by m.
func RemoveLines(m Match) LineEdit {
	return LineEdit{Operation: RemoveLine, Match: m}
}

// AppendText adds text as a new last line.
func AppendText(text string) LineEdit {
	return LineEdit{Operation: AppendLine, Text: text}
}

// AppendAfter adds text after every line selected by m.
func AppendAfter(m Match, text string) LineEdit {
	return LineEdit{Operation: AppendLine, Match: m, Text: text}
}

func (e LineEdit) String() string {
	switch e.Operation {
	case ReplaceLine:
		return fmt.Sprintf("replace lines %s with '%s'", e.Match, e.Text)
	case RemoveLine:
		return fmt.Sprintf("remove lines %s", e.Match)
	case AppendLine:
		if e.Match.Text == "" {
			return fmt.Sprintf("append '%s'", e.Text)
		}
		return fmt.Sprintf("append '%s' after lines %s", e.Text, e.Match)
	default:
		return e.Operation.String()
	}
}

func (e LineEdit) validate() error {
	if _, ok := lineOperationNames[e.Operation]; !ok {
		return configError("unknown line operation %s", e.Operation)
	}
	if e.Operation != AppendLine && e.Match.Text == "" {
		return configError("%s needs a line to match", e.Operation)
	}
	return nil
}

func (e LineEdit) apply(lines []string) ([]string, int) {
	out := make([]string, 0, len(lines)+1)
	changed := 0
	for _, line := range lines {
		if !e.Match.matches(line) || (e.Operation == AppendLine && e.Match.Text == "") {
			out = append(out, line)
			continue
		}
		changed++
		switch e.Operation {
		case ReplaceLine:
			out = append(out, e.Text)
		case RemoveLine:
		case AppendLine:
			out = append(out, line, e.Text)
		}
	}
	if e.Operation == AppendLine && e.Match.Text == "" {
		out = append(out, e.Text)
		changed++
	}
	return out, changed
}

// Substitute replaces "{{key}}" and "{{ key }}" in content with the value
// of key.
func Substitute(content string, placeholders map[string]string) string {
	if len(placeholders) == 0 {
		return content
	}
	keys := make([]string, 0, len(placeholders))
	for k := range placeholders {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*4)
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", placeholders[k], "{{ "+k+" }}", placeholders[k])
	}
	return strings.NewReplacer(pairs...).Replace(content)
}

// ModifyFileContent rewrites a file line by line. The content comes from
// the file itself, or from Template when set, and placeholders are
// substituted before the edits run in order.
type ModifyFileContent struct {
	Base
	Path         string
	Template     string
	Placeholders map[string]string
	Edits        []LineEdit
}

// NewModifyFileContent returns a ModifyFileContent for the file at path.
func NewModifyFileContent(path string, edits []LineEdit, opts ...Option) *ModifyFileContent {
	return Configure(&ModifyFileContent{Path: path, Edits: edits}, opts...)
}

// NewFromTemplate returns a ModifyFileContent that renders template into
// path with placeholders.
func NewFromTemplate(path, template string, placeholders map[string]string, opts ...Option) *ModifyFileContent {
	return Configure(&ModifyFileContent{Path: path, Template: template, Placeholders: placeholders}, opts...)
}

func (a *ModifyFileContent) String() string {
	parts := make([]string, 0, len(a.Edits)+2)
	if a.Template != "" {
		parts = append(parts, fmt.Sprintf("render template '%s'", a.Template))
	}
	if len(a.Placeholders) > 0 {
		parts = append(parts, fmt.Sprintf("substitute %d placeholders", len(a.Placeholders)))
	}
	for _, e := range a.Edits {
		parts = append(parts, e.String())
	}
	return fmt.Sprintf("Modify content of file '%s': %s", a.Path, strings.Join(parts, ", "))
}

func (a *ModifyFileContent) Validate() error {
	if err := requirePaths(a.Path); err != nil {
		return err
	}
	if a.Template == "" && len(a.Placeholders) == 0 && len(a.Edits) == 0 {
		return configError("nothing to modify in '%s'", a.Path)
	}
	for i, e := range a.Edits {
		if err := e.validate(); err != nil {
			return fmt.Errorf("edit %d: %w", i, err)
		}
	}
	return nil
}

func (a *ModifyFileContent) Apply(_ context.Context, s *Scope) error {
	source := a.Path
	if a.Template != "" {
		source = a.Template
	}
	data, err := afero.ReadFile(s.Fs, source)
	if err != nil {
		return err
	}
	original := string(data)

	content := Substitute(original, a.Placeholders)
	lines, trailing := splitLines(content)
	for _, e := range a.Edits {
		var n int
		lines, n = e.apply(lines)
		s.Logger.Debug("Applied line edit", zap.String("path", a.Path), zap.Stringer("operation", e.Operation), zap.Int("lines", n))
	}
	content = joinLines(lines, trailing)

	if err := writeFile(s.Fs, a.Path, []byte(content)); err != nil {
		return err
	}
	changed := content != original || a.Template != ""
	s.Result.Value = changed
	s.Logger.Info("Modified file content", zap.String("path", a.Path), zap.Bool("changed", changed))
	return nil
}

func splitLines(content string) ([]string, bool) {
	if content == "" {
		return nil, true
	}
	trailing := strings.HasSuffix(content, "\n")
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n"), trailing
}

func joinLines(lines []string, trailing bool) string {
	if len(lines) == 0 {
		return ""
	}
	content := strings.Join(lines, "\n")
	if trailing {
		content += "\n"
	}
	return content
}
