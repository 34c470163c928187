package tree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() map[string]any {
	return map[string]any{
		"app": map[string]any{
			"name": "api",
			"db": map[string]any{
				"host": "localhost",
				"port": 3306,
			},
		},
		"debug":   true,
		"plugins": []any{"auth", "cache"},
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		expected   any
		missingKey string
	}{
		{name: "top level scalar", key: "debug", expected: true},
		{name: "nested scalar", key: "app.db.host", expected: "localhost"},
		{name: "subtree", key: "app.db", expected: map[string]any{"host": "localhost", "port": 3306}},
		{name: "list leaf", key: "plugins", expected: []any{"auth", "cache"}},
		{name: "missing top level", key: "cache", missingKey: "cache"},
		{name: "missing second level", key: "app.version", missingKey: "app.version"},
		{name: "missing deep level", key: "app.db.user.name", missingKey: "app.db.user"},
		{name: "below a scalar", key: "app.name.first", missingKey: "app.name"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(sampleTree(), tc.key)
			if tc.missingKey == "" {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, got)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingKey), "error %v should match ErrMissingKey", err)

			var missing *MissingKeyError
			var notAMap *NotAMapError
			switch {
			case errors.As(err, &missing):
				assert.Equal(t, tc.missingKey, missing.Key)
			case errors.As(err, &notAMap):
				assert.Equal(t, tc.missingKey, notAMap.Key)
			default:
				t.Fatalf("unexpected error type %T", err)
			}
		})
	}
}

func TestResolveMatchesManualTraversal(t *testing.T) {
	tr := sampleTree()
	for _, key := range Keys(tr) {
		got, err := Resolve(tr, key)
		require.NoError(t, err, key)
		assert.Equal(t, Flatten(tr)[key], got, key)
	}

	db := tr["app"].(map[string]any)["db"].(map[string]any)
	got, err := Resolve(tr, "app.db.port")
	require.NoError(t, err)
	assert.Equal(t, db["port"], got)
}

func TestResolveInvalidKeys(t *testing.T) {
	_, err := Resolve(sampleTree(), "")
	assert.ErrorIs(t, err, ErrEmptyKey)

	for _, key := range []string{"a..b", ".a", "a."} {
		_, err := Resolve(sampleTree(), key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestLookupAndHas(t *testing.T) {
	v, ok := Lookup(sampleTree(), "app.name")
	assert.True(t, ok)
	assert.Equal(t, "api", v)

	_, ok = Lookup(sampleTree(), "app.nope")
	assert.False(t, ok)

	assert.True(t, Has(sampleTree(), "app.db.port"))
	assert.False(t, Has(sampleTree(), "app.db.port.x"))
}

func TestKeys(t *testing.T) {
	tr := map[string]any{
		"b":     1,
		"a":     map[string]any{"y": 2, "x": 3},
		"empty": map[string]any{},
	}
	assert.Equal(t, []string{"a.x", "a.y", "b", "empty"}, Keys(tr))
}
