package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotatut/scaffolder/check"
	"github.com/kotatut/scaffolder/value"
)

func TestSwitchRunsOnlyMatchingCase(t *testing.T) {
	var trace []string
	a := NewSwitch(Literal{Value: value.String("B")}, []Case{
		{Value: value.String("A"), Action: newRecorder("actionA", &trace)},
		{Value: value.String("B"), Action: newRecorder("actionB", &trace)},
	}, newRecorder("actionC", &trace))

	res, err := Run(context.Background(), testEnv(), a)
	require.NoError(t, err)
	assert.Equal(t, []string{"actionB"}, trace)
	assert.Equal(t, "actionB", res.Value)
}

func TestSwitchDefault(t *testing.T) {
	var trace []string
	a := NewSwitch(KeyOf{Tree: map[string]any{"driver": "sqlite"}, Key: "driver"}, []Case{
		{Value: value.String("mysql"), Action: newRecorder("mysql", &trace)},
	}, newRecorder("fallback", &trace))

	_, err := Run(context.Background(), testEnv(), a)
	require.NoError(t, err)
	assert.Equal(t, []string{"fallback"}, trace)
}

func TestSwitchStrictEquality(t *testing.T) {
	var trace []string
	a := NewSwitch(KeyOf{Tree: map[string]any{"port": 3306}, Key: "port"}, []Case{
		{Value: value.String("3306"), Action: newRecorder("string", &trace)},
		{Value: value.Number(3306), Action: newRecorder("number", &trace)},
	}, newRecorder("fallback", &trace))

	_, err := Run(context.Background(), testEnv(), a)
	require.NoError(t, err)
	assert.Equal(t, []string{"number"}, trace)
}

func TestSwitchConfigKey(t *testing.T) {
	env := testEnv()
	writeFiles(t, env.Fs, map[string]string{"app.yaml": "db:\n  driver: pgsql\n"})

	var trace []string
	a := NewSwitch(ConfigKey{Path: "app.yaml", Key: "db.driver"}, []Case{
		{Value: value.String("pgsql"), Action: newRecorder("pgsql", &trace)},
	}, newRecorder("fallback", &trace))

	_, err := Run(context.Background(), env, a)
	require.NoError(t, err)
	assert.Equal(t, []string{"pgsql"}, trace)
}

func TestSwitchValidate(t *testing.T) {
	recorderA := newRecorder("a", nil)
	tests := []struct {
		name    string
		action  *SwitchStatement
		wantErr bool
	}{
		{
			name:    "non-literal without default",
			action:  NewSwitch(KeyOf{Key: "x"}, []Case{{Value: value.String("a"), Action: recorderA}}, nil),
			wantErr: true,
		},
		{
			name:   "literal matching a case needs no default",
			action: NewSwitch(Literal{Value: value.String("a")}, []Case{{Value: value.String("a"), Action: recorderA}}, nil),
		},
		{
			name:    "literal matching nothing needs a default",
			action:  NewSwitch(Literal{Value: value.String("z")}, []Case{{Value: value.String("a"), Action: recorderA}}, nil),
			wantErr: true,
		},
		{
			name: "duplicate case values",
			action: NewSwitch(Literal{Value: value.String("a")}, []Case{
				{Value: value.String("a"), Action: recorderA},
				{Value: value.String("a"), Action: recorderA},
			}, recorderA),
			wantErr: true,
		},
		{
			name:    "missing expression",
			action:  NewSwitch(nil, nil, recorderA),
			wantErr: true,
		},
		{
			name:    "case without action",
			action:  NewSwitch(Literal{Value: value.String("a")}, []Case{{Value: value.String("a")}}, recorderA),
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.action.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrConfiguration)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSwitchMissingKeyFails(t *testing.T) {
	a := NewSwitch(KeyOf{Tree: map[string]any{}, Key: "driver"}, nil, newRecorder("fallback", nil))

	_, err := Run(context.Background(), testEnv(), a)
	assert.Error(t, err)
}

func TestSwitchApplyWithoutMatchOrDefault(t *testing.T) {
	a := NewSwitch(KeyOf{Tree: map[string]any{"driver": "mysql"}, Key: "driver"}, []Case{
		{Value: value.String("sqlite"), Action: newRecorder("sqlite", nil)},
	}, nil)
	s := &Scope{Env: testEnv(), Result: &Result{Success: true}, parent: a}

	err := a.Apply(context.Background(), s)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "'mysql'")
	assert.Empty(t, s.Result.Children)
}

func hasKey(t map[string]any, key string) Action {
	return NewVerifyArray(t, check.Params{Key: key, Operator: check.MissingKey, Reverse: true})
}

func TestIfStatement(t *testing.T) {
	data := map[string]any{"a": 1, "b": 2}

	t.Run("first match wins", func(t *testing.T) {
		var trace []string
		a := NewIf(hasKey(data, "missing"), newRecorder("first", &trace)).
			ElseIf(hasKey(data, "a"), newRecorder("second", &trace)).
			ElseIf(hasKey(data, "b"), newRecorder("third", &trace)).
			Else(newRecorder("default", &trace))

		res, err := Run(context.Background(), testEnv(), a)
		require.NoError(t, err)
		assert.Equal(t, []string{"second"}, trace)
		assert.Equal(t, "second", res.Value)
	})

	t.Run("default", func(t *testing.T) {
		var trace []string
		a := NewIf(hasKey(data, "x"), newRecorder("then", &trace)).Else(newRecorder("default", &trace))

		_, err := Run(context.Background(), testEnv(), a)
		require.NoError(t, err)
		assert.Equal(t, []string{"default"}, trace)
	})

	t.Run("no match and no default is a successful no-op", func(t *testing.T) {
		var trace []string
		a := NewIf(hasKey(data, "x"), newRecorder("then", &trace))

		res, err := Run(context.Background(), testEnv(), a)
		require.NoError(t, err)
		assert.Empty(t, trace)
		assert.True(t, res.SuccessfulRun())
	})

	t.Run("validation", func(t *testing.T) {
		assert.ErrorIs(t, (&IfStatement{}).Validate(), ErrConfiguration)
		assert.ErrorIs(t, NewIf(nil, newRecorder("then", nil)).Validate(), ErrConfiguration)
	})
}

func TestIfStatementDescription(t *testing.T) {
	data := map[string]any{}
	a := NewIf(hasKey(data, "a"), newRecorder("then", nil)).Else(newRecorder("otherwise", nil))
	assert.Equal(t, "If Check if key 'a' is not missing then\n  then\nElse\n  otherwise", a.String())
}

func TestForEachLoop(t *testing.T) {
	t.Run("runs every action", func(t *testing.T) {
		var trace []string
		loop := ForEachValue([]string{"a", "b", "c"}, func(name string) Action { return newRecorder(name, &trace) })

		res, err := Run(context.Background(), testEnv(), loop)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, trace)
		assert.Equal(t, 3, res.Value)
		assert.Len(t, res.Children, 3)
	})

	t.Run("records non-fatal failures and continues", func(t *testing.T) {
		var trace []string
		failing := newRecorder("b", &trace)
		failing.err = errors.New("boom")
		loop := NewForEach([]Action{newRecorder("a", &trace), failing, newRecorder("c", &trace)})

		res, err := Run(context.Background(), testEnv(), loop)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, trace)
		assert.Len(t, res.Failures, 1)
		assert.Equal(t, 2, res.Value)
	})

	t.Run("fatal failure aborts", func(t *testing.T) {
		var trace []string
		failing := newRecorder("b", &trace, Fatal())
		failing.err = errors.New("boom")
		loop := NewForEach([]Action{newRecorder("a", &trace), failing, newRecorder("c", &trace)})

		_, err := Run(context.Background(), testEnv(), loop)
		require.Error(t, err)
		assert.Equal(t, []string{"a", "b"}, trace)

		var failure *Error
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, CodeChildFailed, failure.Code)
	})
}

func TestFilesInDirectory(t *testing.T) {
	newEnv := func(t *testing.T) *Env {
		env := testEnv()
		writeFiles(t, env.Fs, map[string]string{
			"project/composer.json":          "{{name}}",
			"project/README.md":              "{{name}}",
			"project/app/Models/User.php":    "{{name}}",
			"project/vendor/autoload.php":    "{{name}}",
			"project/public/favicon.ico":     "bin",
			"project/config/app/nested.json": "{{name}}",
		})
		return env
	}

	substitute := func(path string) Action {
		return NewFromTemplate(path, path, map[string]string{"name": "api"})
	}

	t.Run("recursive with patterns and exclusions", func(t *testing.T) {
		env := newEnv(t)
		a := NewFilesInDirectory("project", []Factory{PerFile(substitute)})
		a.Recursive = true
		a.Patterns = []string{"**/*.{php,json,md}"}
		a.ExcludeDirs = []string{"vendor"}

		res, err := Run(context.Background(), env, a)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{
			"project/README.md",
			"project/app/Models/User.php",
			"project/composer.json",
			"project/config/app/nested.json",
		}, res.Value)
		assert.Equal(t, "api", readFile(t, env.Fs, "project/app/Models/User.php"))
		assert.Equal(t, "{{name}}", readFile(t, env.Fs, "project/vendor/autoload.php"))
		assert.Equal(t, "bin", readFile(t, env.Fs, "project/public/favicon.ico"))
	})

	t.Run("non-recursive", func(t *testing.T) {
		env := newEnv(t)
		a := NewFilesInDirectory("project", []Factory{PerFile(substitute)})

		res, err := Run(context.Background(), env, a)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"project/README.md", "project/composer.json"}, res.Value)
	})

	t.Run("per-file actions are forced fatal", func(t *testing.T) {
		env := newEnv(t)
		var built []*recorder
		a := NewFilesInDirectory("project", []Factory{PerFile(func(path string) Action {
			p := newRecorder("touch "+path, nil, SuccessRequired())
			if path == "<file>" {
				return p
			}
			p.unsuccessful = true
			if len(built) == 1 {
				p.err = errors.New("boom")
			}
			built = append(built, p)
			return p
		})})
		a.Recursive = true

		_, err := Run(context.Background(), env, a)
		require.Error(t, err)
		require.Len(t, built, 2, "the walk stops at the failing file")
		for _, p := range built {
			fatal, required := Flags(p)
			assert.True(t, fatal)
			assert.False(t, required)
		}
	})

	t.Run("validation", func(t *testing.T) {
		assert.ErrorIs(t, NewFilesInDirectory("project", nil).Validate(), ErrConfiguration)
		bad := NewFilesInDirectory("project", []Factory{PerFile(substitute)})
		bad.Patterns = []string{"[unclosed"}
		assert.ErrorIs(t, bad.Validate(), ErrConfiguration)
	})

	t.Run("factory error fails the walk", func(t *testing.T) {
		env := newEnv(t)
		calls := 0
		a := NewFilesInDirectory("project", []Factory{func(path string) (Action, error) {
			if path == describedFile {
				return NewRemove(path), nil
			}
			calls++
			return nil, errors.New("bad template")
		}})

		res, err := Run(context.Background(), env, a)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad template")
		assert.Equal(t, 1, calls)
		assert.Empty(t, res.Children)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := Run(context.Background(), NewEnv(afero.NewMemMapFs(), nil), NewFilesInDirectory("nope", []Factory{PerFile(substitute)}))
		assert.Error(t, err)
	})
}

func TestFilesInDirectoryDescription(t *testing.T) {
	a := NewFilesInDirectory("project", []Factory{PerFile(func(path string) Action { return NewRemove(path) })})
	a.Recursive = true
	a.Patterns = []string{"**/*.log"}
	assert.Equal(t, "For each file in tree 'project' matching **/*.log\n  - Remove '<file>'", a.String())
}
