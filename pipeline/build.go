package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kotatut/scaffolder/actions"
	"github.com/kotatut/scaffolder/check"
	"github.com/kotatut/scaffolder/tree"
	"github.com/kotatut/scaffolder/value"
)

// ErrInvalidDefinition is matched by every error building a pipeline.
var ErrInvalidDefinition = errors.New("invalid pipeline definition")

// BuildError locates a definition that could not be built, for example
// "actions[2].branches[0].then".
type BuildError struct {
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *BuildError) Unwrap() []error {
	return []error{ErrInvalidDefinition, e.Err}
}

// currentFile is the path definitions below files_in_directory are bound to
// when they are checked at build time.
const currentFile = "<file>"

type buildFunc func(d Definition, at string, opts []actions.Option) (actions.Action, error)

var builders map[string]buildFunc

func init() {
	builders = map[string]buildFunc{
		"verify_array":        buildVerifyArray,
		"verify_string":       buildVerifyString,
		"verify_file_content": buildVerifyFileContent,
		"verify_config_file":  buildVerifyConfigFile,
		"file_exists":         buildFileExists,
		"modify_array":        buildModifyArray,
		"modify_config_file":  buildModifyConfigFile,
		"convert_config_file": buildConvertConfigFile,
		"modify_file_content": buildModifyFileContent,
		"copy_file":           buildCopyFile,
		"copy_directory":      buildCopyDirectory,
		"rename":              buildRename,
		"move":                buildMove,
		"remove":              buildRemove,
		"make_directory":      buildMakeDirectory,
		"write_file":          buildWriteFile,
		"unzip":               buildUnzip,
		"if":                  buildIf,
		"switch":              buildSwitch,
		"for_each":            buildForEach,
		"files_in_directory":  buildFilesInDirectory,
	}
}

// Types lists the action types a definition can name.
func Types() []string {
	out := make([]string, 0, len(builders))
	for name := range builders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Build turns the definitions of doc into actions, in order.
func Build(doc Document) ([]actions.Action, error) {
	out := make([]actions.Action, 0, len(doc.Actions))
	for i, d := range doc.Actions {
		a, err := build(d, fmt.Sprintf("actions[%d]", i))
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func build(d Definition, at string) (actions.Action, error) {
	if d.Type == "" {
		return nil, &BuildError{Path: at, Err: errors.New("missing field \"type\"")}
	}
	fn, ok := builders[d.Type]
	if !ok {
		return nil, &BuildError{Path: at, Err: fmt.Errorf("unknown action type %q", d.Type)}
	}

	opts, err := options(d, at)
	if err != nil {
		return nil, err
	}
	a, err := fn(d, at, opts)
	if err != nil {
		var be *BuildError
		if errors.As(err, &be) {
			return nil, err
		}
		return nil, &BuildError{Path: at, Err: err}
	}
	return a, nil
}

func buildChild(d *Definition, at, field string) (actions.Action, error) {
	if d == nil {
		return nil, &BuildError{Path: at, Err: fmt.Errorf("missing field %q", field)}
	}
	return build(*d, at+"."+field)
}

func buildList(defs []Definition, at, field string) ([]actions.Action, error) {
	out := make([]actions.Action, 0, len(defs))
	for i, d := range defs {
		a, err := build(d, fmt.Sprintf("%s.%s[%d]", at, field, i))
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func options(d Definition, at string) ([]actions.Option, error) {
	var opts []actions.Option
	if d.Fatal {
		opts = append(opts, actions.Fatal())
	}
	if d.SuccessRequired {
		opts = append(opts, actions.SuccessRequired())
	}
	before, err := buildList(d.Before, at, "before")
	if err != nil {
		return nil, err
	}
	if len(before) > 0 {
		opts = append(opts, actions.Before(before...))
	}
	after, err := buildList(d.After, at, "after")
	if err != nil {
		return nil, err
	}
	if len(after) > 0 {
		opts = append(opts, actions.After(after...))
	}
	return opts, nil
}

func required(fields ...string) error {
	var missing []string
	for i := 0; i+1 < len(fields); i += 2 {
		if fields[i+1] == "" {
			missing = append(missing, fmt.Sprintf("%q", fields[i]))
		}
	}
	switch len(missing) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("missing field %s", missing[0])
	default:
		return fmt.Errorf("missing fields %s", strings.Join(missing, ", "))
	}
}

func params(d Definition) (check.Params, error) {
	if d.Operator == "" {
		return check.Params{}, errors.New("missing field \"operator\"")
	}
	op, err := check.ParseOperator(d.Operator)
	if err != nil {
		return check.Params{}, err
	}
	v, err := value.Of(d.Value)
	if err != nil {
		return check.Params{}, fmt.Errorf("value: %w", err)
	}
	return check.Params{Key: d.Key, Operator: op, Value: v, Reverse: d.Reverse}, nil
}

func buildVerifyArray(d Definition, _ string, opts []actions.Option) (actions.Action, error) {
	if err := required("key", d.Key); err != nil {
		return nil, err
	}
	p, err := params(d)
	if err != nil {
		return nil, err
	}
	return actions.NewVerifyArray(d.Data, p, opts...), nil
}

func buildVerifyString(d Definition, _ string, opts []actions.Option) (actions.Action, error) {
	if d.Content == nil {
		return nil, errors.New("missing field \"content\"")
	}
	p, err := params(d)
	if err != nil {
		return nil, err
	}
	return actions.NewVerifyString(*d.Content, p, opts...), nil
}

func buildVerifyFileContent(d Definition, _ string, opts []actions.Option) (actions.Action, error) {
	if err := required("path", d.Path); err != nil {
		return nil, err
	}
	p, err := params(d)
	if err != nil {
		return nil, err
	}
	return actions.NewVerifyFileContent(d.Path, p, opts...), nil
}

func buildVerifyConfigFile(d Definition, _ string, opts []actions.Option) (actions.Action, error) {
	if err := required("path", d.Path, "key", d.Key); err != nil {
		return nil, err
	}
	p, err := params(d)
	if err != nil {
		return nil, err
	}
	return actions.NewVerifyConfigFile(d.Path, p, opts...), nil
}

func parseKind(s string) (actions.Kind, error) {
	switch strings.ToLower(s) {
	case "", "any", "path":
		return actions.AnyKind, nil
	case "file":
		return actions.FileKind, nil
	case "dir", "directory":
		return actions.DirKind, nil
	default:
		return 0, fmt.Errorf("unknown kind %q", s)
	}
}

func buildFileExists(d Definition, _ string, opts []actions.Option) (actions.Action, error) {
	if err := required("path", d.Path); err != nil {
		return nil, err
	}
	kind, err := parseKind(d.Kind)
	if err != nil {
		return nil, err
	}
	a := actions.NewFileExists(d.Path, kind, opts...)
	a.Reverse = d.Reverse
	return a, nil
}

// modifications reads the operations list, or the single key, operation and
// value of d when the list is absent.
func modifications(d Definition) ([]actions.Modification, error) {
	defs := d.Operations
	if len(defs) == 0 && d.Key != "" {
		defs = []ModificationDefinition{{Key: d.Key, Operation: d.Operation, Value: d.Value}}
	}
	if len(defs) == 0 {
		return nil, errors.New("missing field \"operations\"")
	}

	out := make([]actions.Modification, 0, len(defs))
	for i, m := range defs {
		if err := required("key", m.Key, "operation", m.Operation); err != nil {
			return nil, fmt.Errorf("operations[%d]: %w", i, err)
		}
		op, err := tree.ParseOperation(m.Operation)
		if err != nil {
			return nil, fmt.Errorf("operations[%d]: %w", i, err)
		}
		out = append(out, actions.Modification{Key: m.Key, Operation: op, Value: m.Value})
	}
	return out, nil
}

func buildModifyArray(d Definition, _ string, opts []actions.Option) (actions.Action, error) {
	mods, err := modifications(d)
	if err != nil {
		return nil, err
	}
	return actions.NewModifyArray(d.Data, mods, opts...), nil
}

func buildModifyConfigFile(d Definition, _ string, opts []actions.Option) (actions.Action, error) {
	if err := required("path", d.Path); err != nil {
		return nil, err
	}
	mods, err := modifications(d)
	if err != nil {
		return nil, err
	}
	a := actions.NewModifyConfigFile(d.Path, mods, opts...)
	a.CreateMissing = d.CreateMissing
	return a, nil
}

func buildConvertConfigFile(d Definition, _ string, opts []actions.Option) (actions.Action, error) {
	if err := required("source", d.Source, "target", d.Target); err != nil {
		return nil, err
	}
	return actions.NewConvertConfigFile(d.Source, d.Target, opts...), nil
}

func buildModifyFileContent(d Definition, _ string, opts []actions.Option) (actions.Action, error) {
	if err := required("path", d.Path); err != nil {
		return nil, err
	}
	edits := make([]actions.LineEdit, 0, len(d.Edits))
	for i, e := range d.Edits {
		op, err := actions.ParseLineOperation(e.Operation)
		if err != nil {
			return nil, fmt.Errorf("edits[%d]: %w", i, err)
		}
		m := actions.Substring(e.Contains)
		if e.Prefix != "" {
			m = actions.LinePrefix(e.Prefix)
		}
		edits = append(edits, actions.LineEdit{Operation: op, Match: m, Text: e.Text})
	}
	return actions.Configure(&actions.ModifyFileContent{
		Path:         d.Path,
		Template:     d.Template,
		Placeholders: d.Placeholders,
		Edits:        edits,
	}, opts...), nil
}

func buildCopyFile(d Definition, _ string, opts []actions.Option) (actions.Action, error) {
	if err := required("source", d.Source, "target", d.Target); err != nil {
		return nil, err
	}
	a := actions.NewCopyFile(d.Source, d.Target, opts...)
	a.Overwrite = d.Overwrite
	return a, nil
}

func buildCopyDirectory(d Definition, _ string, opts []actions.Option) (actions.Action, error) {
	if err := required("source", d.Source, "target", d.Target); err != nil {
		return nil, err
	}
	a := actions.NewCopyDirectory(d.Source, d.Target, opts...)
	a.ExcludeDirs = d.ExcludeDirs
	a.Overwrite = d.Overwrite
	return a, nil
}

func buildRename(d Definition, _ string, opts []actions.Option) (actions.Action, error) {
	if err := required("path", d.Path, "new_name", d.NewName); err != nil {
		return nil, err
	}
	return actions.NewRename(d.Path, d.NewName, opts...), nil
}

func buildMove(d Definition, _ string, opts []actions.Option) (actions.Action, error) {
	if err := required("source", d.Source, "target", d.Target); err != nil {
		return nil, err
	}
	return actions.NewMove(d.Source, d.Target, opts...), nil
}

func buildRemove(d Definition, _ string, opts []actions.Option) (actions.Action, error) {
	if err := required("path", d.Path); err != nil {
		return nil, err
	}
	a := actions.NewRemove(d.Path, opts...)
	a.IgnoreMissing = d.IgnoreMissing
	return a, nil
}

func buildMakeDirectory(d Definition, _ string, opts []actions.Option) (actions.Action, error) {
	if err := required("path", d.Path); err != nil {
		return nil, err
	}
	return actions.NewMakeDirectory(d.Path, opts...), nil
}

func buildWriteFile(d Definition, _ string, opts []actions.Option) (actions.Action, error) {
	if err := required("path", d.Path); err != nil {
		return nil, err
	}
	if d.Content == nil {
		return nil, errors.New("missing field \"content\"")
	}
	return actions.NewWriteFile(d.Path, *d.Content, opts...), nil
}

func buildUnzip(d Definition, _ string, opts []actions.Option) (actions.Action, error) {
	if err := required("source", d.Source, "target", d.Target); err != nil {
		return nil, err
	}
	a := actions.NewUnzip(d.Source, d.Target, opts...)
	a.StripTopLevel = d.StripTopLevel
	return a, nil
}

func buildIf(d Definition, at string, opts []actions.Option) (actions.Action, error) {
	if len(d.Branches) == 0 {
		return nil, errors.New("missing field \"branches\"")
	}
	branches := make([]actions.Branch, 0, len(d.Branches))
	for i, br := range d.Branches {
		brAt := fmt.Sprintf("%s.branches[%d]", at, i)
		cond, err := buildChild(br.If, brAt, "if")
		if err != nil {
			return nil, err
		}
		then, err := buildChild(br.Then, brAt, "then")
		if err != nil {
			return nil, err
		}
		branches = append(branches, actions.Branch{Condition: cond, Then: then})
	}

	a := actions.Configure(&actions.IfStatement{Branches: branches}, opts...)
	if d.Default != nil {
		def, err := buildChild(d.Default, at, "default")
		if err != nil {
			return nil, err
		}
		a.Default = def
	}
	return a, nil
}

func expression(e *ExpressionDefinition) (actions.Expression, error) {
	if e == nil {
		return nil, errors.New("missing field \"expression\"")
	}
	kind := e.Type
	if kind == "" {
		switch {
		case e.Path != "":
			kind = "config_key"
		case e.Key != "":
			kind = "key"
		default:
			kind = "literal"
		}
	}

	switch kind {
	case "literal":
		v, err := value.Of(e.Value)
		if err != nil {
			return nil, fmt.Errorf("expression value: %w", err)
		}
		return actions.Literal{Value: v}, nil
	case "key":
		if err := required("expression.key", e.Key); err != nil {
			return nil, err
		}
		return actions.KeyOf{Tree: e.Data, Key: e.Key}, nil
	case "config_key":
		if err := required("expression.path", e.Path, "expression.key", e.Key); err != nil {
			return nil, err
		}
		return actions.ConfigKey{Path: e.Path, Key: e.Key}, nil
	default:
		return nil, fmt.Errorf("unknown expression type %q", e.Type)
	}
}

func buildSwitch(d Definition, at string, opts []actions.Option) (actions.Action, error) {
	expr, err := expression(d.Expression)
	if err != nil {
		return nil, err
	}
	cases := make([]actions.Case, 0, len(d.Cases))
	for i, c := range d.Cases {
		caseAt := fmt.Sprintf("%s.cases[%d]", at, i)
		v, err := value.Of(c.Value)
		if err != nil {
			return nil, &BuildError{Path: caseAt, Err: fmt.Errorf("value: %w", err)}
		}
		act, err := buildChild(c.Action, caseAt, "action")
		if err != nil {
			return nil, err
		}
		cases = append(cases, actions.Case{Value: v, Action: act})
	}

	var def actions.Action
	if d.Default != nil {
		if def, err = buildChild(d.Default, at, "default"); err != nil {
			return nil, err
		}
	}
	return actions.NewSwitch(expr, cases, def, opts...), nil
}

func buildForEach(d Definition, at string, opts []actions.Option) (actions.Action, error) {
	list, err := buildList(d.Actions, at, "actions")
	if err != nil {
		return nil, err
	}
	return actions.NewForEach(list, opts...), nil
}

// bind returns a copy of d in which every empty path is the current file,
// down through nested actions, branches, cases and config_key expressions.
// The per-file templates of a nested files_in_directory keep their own
// binding.
func bind(d Definition, path string) Definition {
	if d.Path == "" {
		d.Path = path
	}
	d.Before = bindList(d.Before, path)
	d.After = bindList(d.After, path)
	d.Actions = bindList(d.Actions, path)
	d.Default = bindRef(d.Default, path)

	if d.Branches != nil {
		branches := make([]BranchDefinition, len(d.Branches))
		for i, br := range d.Branches {
			branches[i] = BranchDefinition{If: bindRef(br.If, path), Then: bindRef(br.Then, path)}
		}
		d.Branches = branches
	}
	if d.Cases != nil {
		cases := make([]CaseDefinition, len(d.Cases))
		for i, c := range d.Cases {
			cases[i] = CaseDefinition{Value: c.Value, Action: bindRef(c.Action, path)}
		}
		d.Cases = cases
	}
	if e := d.Expression; e != nil && e.Type == "config_key" && e.Path == "" {
		bound := *e
		bound.Path = path
		d.Expression = &bound
	}
	return d
}

func bindList(defs []Definition, path string) []Definition {
	if defs == nil {
		return nil
	}
	out := make([]Definition, len(defs))
	for i, d := range defs {
		out[i] = bind(d, path)
	}
	return out
}

func bindRef(d *Definition, path string) *Definition {
	if d == nil {
		return nil
	}
	bound := bind(*d, path)
	return &bound
}

func buildFilesInDirectory(d Definition, at string, opts []actions.Option) (actions.Action, error) {
	if err := required("path", d.Path); err != nil {
		return nil, err
	}
	if len(d.Each) == 0 {
		return nil, errors.New("missing field \"each\"")
	}

	each := make([]actions.Factory, 0, len(d.Each))
	for i, tmpl := range d.Each {
		tmpl := tmpl
		tmplAt := fmt.Sprintf("%s.each[%d]", at, i)
		if _, err := build(bind(tmpl, currentFile), tmplAt); err != nil {
			return nil, err
		}
		each = append(each, func(path string) (actions.Action, error) {
			return build(bind(tmpl, path), tmplAt)
		})
	}

	a := actions.NewFilesInDirectory(d.Path, each, opts...)
	a.Recursive = d.Recursive
	a.ExcludeDirs = d.ExcludeDirs
	a.Patterns = d.Patterns
	if d.Pattern != "" {
		a.Patterns = append([]string{d.Pattern}, a.Patterns...)
	}
	return a, nil
}
