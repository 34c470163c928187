package pipeline

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kotatut/scaffolder/actions"
	"github.com/kotatut/scaffolder/check"
	"github.com/kotatut/scaffolder/configfile"
	"github.com/kotatut/scaffolder/tree"
	"github.com/kotatut/scaffolder/value"
)

const scaffold = `
actions:
  - type: file_exists
    path: template
    kind: directory
    success_required: true
    fatal: true
  - type: copy_directory
    source: template
    target: project
    exclude_dirs: [vendor]
  - type: if
    branches:
      - if: {type: file_exists, path: project/.env.example, kind: file}
        then: {type: copy_file, source: project/.env.example, target: project/.env}
  - type: modify_config_file
    path: project/composer.json
    operations:
      - {key: name, operation: change_value, value: acme/api}
      - {key: require.php, operation: remove_key}
  - type: files_in_directory
    path: project
    recursive: true
    pattern: "**/*.{php,json}"
    each:
      - type: modify_file_content
        placeholders: {namespace: Acme}
`

func TestLoadAndRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"pipeline.yaml":                 scaffold,
		"template/composer.json":        `{"name": "laravel/laravel", "require": {"php": "^8.2"}, "autoload": "{{namespace}}\\"}`,
		"template/.env.example":         "APP_NAME=x\n",
		"template/app/Models/User.php":  "namespace {{namespace}}\\Models;\n",
		"template/vendor/autoload.php":  "{{namespace}}",
		"template/resources/README.txt": "{{namespace}}",
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}

	list, err := Load(fs, "pipeline.yaml", zap.NewNop())
	require.NoError(t, err)
	require.Len(t, list, 5)

	report, err := actions.NewRunner(actions.NewEnv(fs, zap.NewNop())).Run(context.Background(), list...)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Succeeded)

	got, _, err := configfile.Read(fs, "project/composer.json", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "acme/api", "require": map[string]any{}, "autoload": `Acme\`}, got)

	data, err := afero.ReadFile(fs, "project/app/Models/User.php")
	require.NoError(t, err)
	assert.Equal(t, "namespace Acme\\Models;\n", string(data))

	data, err = afero.ReadFile(fs, "project/resources/README.txt")
	require.NoError(t, err)
	assert.Equal(t, "{{namespace}}", string(data), "pattern does not match txt files")

	data, err = afero.ReadFile(fs, "project/.env")
	require.NoError(t, err)
	assert.Equal(t, "APP_NAME=x\n", string(data))

	ok, err := afero.Exists(fs, "project/vendor")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuildFlags(t *testing.T) {
	doc, err := Parse([]byte(`
actions:
  - type: verify_array
    data: {a: {b: 3}}
    key: a.b
    operator: greater_than
    value: 2
    fatal: true
    before:
      - {type: make_directory, path: out}
    after:
      - {type: write_file, path: out/done, content: ""}
`))
	require.NoError(t, err)

	list, err := Build(doc)
	require.NoError(t, err)
	require.Len(t, list, 1)

	v, ok := list[0].(*actions.VerifyArray)
	require.True(t, ok)
	assert.Equal(t, check.Params{Key: "a.b", Operator: check.GreaterThan, Value: value.Number(2)}, v.Params)
	fatal, required := actions.Flags(v)
	assert.True(t, fatal)
	assert.False(t, required)
	require.Len(t, v.BeforeActions(), 1)
	require.Len(t, v.AfterActions(), 1)
	assert.Equal(t, "", v.AfterActions()[0].(*actions.WriteFile).Content)
}

func TestBuildSwitch(t *testing.T) {
	doc, err := Parse([]byte(`
actions:
  - type: switch
    expression: {path: config/app.json, key: db.driver}
    cases:
      - value: mysql
        action: {type: write_file, path: driver, content: mysql}
      - value: pgsql
        action: {type: write_file, path: driver, content: pgsql}
    default: {type: write_file, path: driver, content: sqlite}
`))
	require.NoError(t, err)
	list, err := Build(doc)
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "config/app.json", []byte(`{"db": {"driver": "pgsql"}}`), 0o644))

	_, err = actions.Run(context.Background(), actions.NewEnv(fs, nil), list[0])
	require.NoError(t, err)
	data, err := afero.ReadFile(fs, "driver")
	require.NoError(t, err)
	assert.Equal(t, "pgsql", string(data))
}

func TestBuildModifications(t *testing.T) {
	doc, err := Parse([]byte(`{"actions": [{"type": "modify_array", "data": {}, "key": "a.b", "operation": "add", "value": [1, 2]}]}`))
	require.NoError(t, err)
	list, err := Build(doc)
	require.NoError(t, err)

	m := list[0].(*actions.ModifyArray)
	assert.Equal(t, []actions.Modification{{Key: "a.b", Operation: tree.Add, Value: []any{1, 2}}}, m.Modifications)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
		msg  string
	}{
		{
			name: "unknown type",
			doc:  "actions: [{type: copy}]",
			path: "actions[0]",
			msg:  `unknown action type "copy"`,
		},
		{
			name: "missing type",
			doc:  "actions: [{type: remove, path: a}, {path: b}]",
			path: "actions[1]",
			msg:  `missing field "type"`,
		},
		{
			name: "missing fields",
			doc:  "actions: [{type: copy_file}]",
			path: "actions[0]",
			msg:  `missing fields "source", "target"`,
		},
		{
			name: "nested branch",
			doc: `
actions:
  - {type: remove, path: a}
  - {type: remove, path: b}
  - type: if
    branches:
      - if: {type: file_exists, path: x}
        then: {type: nope}
`,
			path: "actions[2].branches[0].then",
			msg:  `unknown action type "nope"`,
		},
		{
			name: "missing branch action",
			doc:  "actions: [{type: if, branches: [{if: {type: file_exists, path: x}}]}]",
			path: "actions[0].branches[0]",
			msg:  `missing field "then"`,
		},
		{
			name: "before",
			doc:  "actions: [{type: remove, path: a, before: [{type: move, source: a}]}]",
			path: "actions[0].before[0]",
			msg:  `missing field "target"`,
		},
		{
			name: "each template",
			doc:  "actions: [{type: files_in_directory, path: p, each: [{type: verify_file_content}]}]",
			path: "actions[0].each[0]",
			msg:  `missing field "operator"`,
		},
		{
			name: "bad operator",
			doc:  "actions: [{type: verify_config_file, path: a.json, key: a, operator: like}]",
			path: "actions[0]",
			msg:  `invalid check: unknown operator "like"`,
		},
		{
			name: "bad operation",
			doc:  "actions: [{type: modify_config_file, path: a.json, operations: [{key: a, operation: merge}]}]",
			path: "actions[0]",
			msg:  `operations[0]: unknown operation: "merge"`,
		},
		{
			name: "case action",
			doc:  "actions: [{type: switch, expression: {value: a}, cases: [{value: a}]}]",
			path: "actions[0].cases[0]",
			msg:  `missing field "action"`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Parse([]byte(tc.doc))
			require.NoError(t, err)

			_, err = Build(doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDefinition)

			var be *BuildError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, tc.path, be.Path)
			assert.Equal(t, tc.msg, be.Err.Error())
		})
	}
}

func TestFilesInDirectoryBindsCurrentFile(t *testing.T) {
	doc, err := Parse([]byte(`
actions:
  - type: files_in_directory
    path: logs
    each:
      - {type: remove}
      - {type: write_file, path: logs/cleared, content: "yes"}
`))
	require.NoError(t, err)
	list, err := Build(doc)
	require.NoError(t, err)

	a := list[0].(*actions.FilesInDirectory)
	remove, err := a.Each[0]("logs/app.log")
	require.NoError(t, err)
	assert.Equal(t, "logs/app.log", remove.(*actions.Remove).Path)
	write, err := a.Each[1]("logs/app.log")
	require.NoError(t, err)
	assert.Equal(t, "logs/cleared", write.(*actions.WriteFile).Path)
}

func TestFilesInDirectoryBindsNestedDefinitions(t *testing.T) {
	fs := afero.NewMemMapFs()
	for path, content := range map[string]string{
		"src/a.txt": "TODO: fix\n",
		"src/b.txt": "done\n",
	} {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}

	doc, err := Parse([]byte(`
actions:
  - type: files_in_directory
    path: src
    each:
      - type: if
        before:
          - {type: verify_file_content, operator: ends_with, value: "\n"}
        branches:
          - if: {type: verify_file_content, operator: contains, value: TODO}
            then: {type: remove}
`))
	require.NoError(t, err)
	list, err := Build(doc)
	require.NoError(t, err)

	_, err = actions.Run(context.Background(), actions.NewEnv(fs, zap.NewNop()), list[0])
	require.NoError(t, err)

	ok, err := afero.Exists(fs, "src/a.txt")
	require.NoError(t, err)
	assert.False(t, ok, "files containing TODO are removed")
	ok, err = afero.Exists(fs, "src/b.txt")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFilesInDirectoryBindsSwitchOnConfigKey(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "cfg/a.json", []byte(`{"env": "prod"}`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "cfg/b.json", []byte(`{"env": "dev"}`), 0o644))

	doc, err := Parse([]byte(`
actions:
  - type: files_in_directory
    path: cfg
    pattern: "*.json"
    each:
      - type: switch
        expression: {type: config_key, key: env}
        cases:
          - value: prod
            action:
              type: modify_config_file
              operations: [{key: locked, operation: change_value, value: true}]
        default: {type: verify_config_file, key: env, operator: check_any}
`))
	require.NoError(t, err)
	list, err := Build(doc)
	require.NoError(t, err)

	_, err = actions.Run(context.Background(), actions.NewEnv(fs, zap.NewNop()), list[0])
	require.NoError(t, err)

	prod, _, err := configfile.Read(fs, "cfg/a.json", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"env": "prod", "locked": true}, prod)
	dev, _, err := configfile.Read(fs, "cfg/b.json", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"env": "dev"}, dev)
}

func TestParse(t *testing.T) {
	_, err := Parse([]byte("actions: [{type: remove, pth: a}]"))
	assert.ErrorIs(t, err, ErrInvalidDefinition, "unknown fields are rejected")

	_, err = Parse([]byte(""))
	assert.ErrorIs(t, err, ErrInvalidDefinition)

	_, err = Parse([]byte("actions: []\n---\nactions: []\n"))
	assert.ErrorIs(t, err, ErrInvalidDefinition)

	_, err = Load(afero.NewMemMapFs(), "missing.yaml", nil)
	assert.Error(t, err)
}

func TestTypes(t *testing.T) {
	types := Types()
	assert.Contains(t, types, "files_in_directory")
	assert.IsIncreasing(t, types)
}
