package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePair(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantKey   string
		wantValue any
		wantErr   bool
	}{
		{name: "string", input: "student=alice", wantKey: "student", wantValue: "alice"},
		{name: "integer", input: "attempt=3", wantKey: "attempt", wantValue: 3},
		{name: "negative integer", input: "offset=-10", wantKey: "offset", wantValue: -10},
		{name: "float", input: "weight=0.5", wantKey: "weight", wantValue: 0.5},
		{name: "true", input: "graded=true", wantKey: "graded", wantValue: true},
		{name: "false", input: "graded=false", wantKey: "graded", wantValue: false},
		{name: "one stays an integer", input: "flag=1", wantKey: "flag", wantValue: 1},
		{name: "empty value", input: "note=", wantKey: "note", wantValue: ""},
		{name: "equals in value", input: "expr=a=b", wantKey: "expr", wantValue: "a=b"},
		{name: "trimmed", input: " key = value ", wantKey: "key", wantValue: "value"},
		{name: "spaces inside", input: "title=Echo Test", wantKey: "title", wantValue: "Echo Test"},
		{name: "number prefix", input: "id=123abc", wantKey: "id", wantValue: "123abc"},
		{name: "missing equals", input: "invalid", wantErr: true},
		{name: "empty key", input: "=value", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, value, err := ParsePair(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func TestParseJSON(t *testing.T) {
	v, err := ParseJSON(`{"suite":"echo","nested":{"port":8001}}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"suite":  "echo",
		"nested": map[string]any{"port": float64(8001)},
	}, v)

	v, err = ParseJSON(`[1,2]`)
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2)}, v)

	_, err = ParseJSON(`{bad`)
	assert.ErrorContains(t, err, "invalid JSON")

	_, err = ParseJSON("")
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"course":"comp2012"}`), 0o644))
	v, err := ParseFile(good)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"course": "comp2012"}, v)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o644))
	_, err = ParseFile(bad)
	assert.ErrorContains(t, err, "invalid JSON in")

	_, err = ParseFile(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to read settings file")
}

func TestFromEnv(t *testing.T) {
	t.Run("json and variables", func(t *testing.T) {
		t.Setenv("ROBOT_TEST_ENV", `{"suite":"echo","attempt":1}`)
		t.Setenv("ROBOT_TEST_ENV_ATTEMPT", "2")
		t.Setenv("ROBOT_TEST_ENV_GRADED", "true")

		assert.Equal(t, map[string]any{
			"suite":   "echo",
			"attempt": 2,
			"graded":  true,
		}, FromEnv("ROBOT_TEST_ENV"))
	})

	t.Run("invalid json ignored", func(t *testing.T) {
		t.Setenv("ROBOT_TEST_BAD", `{nope`)
		t.Setenv("ROBOT_TEST_BAD_KEY", "value")
		assert.Equal(t, map[string]any{"key": "value"}, FromEnv("ROBOT_TEST_BAD"))
	})

	t.Run("nothing set", func(t *testing.T) {
		assert.Nil(t, FromEnv("ROBOT_TEST_UNSET_PREFIX"))
	})
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name   string
		layers []any
		want   any
	}{
		{
			name:   "later wins",
			layers: []any{map[string]any{"a": 1, "b": 1}, map[string]any{"b": 2}},
			want:   map[string]any{"a": 1, "b": 2},
		},
		{
			name:   "nil skipped",
			layers: []any{nil, map[string]any{"a": 1}, nil},
			want:   map[string]any{"a": 1},
		},
		{name: "all nil", layers: []any{nil, nil}, want: nil},
		{name: "empty", want: nil},
		{name: "lone array", layers: []any{[]any{"x"}}, want: []any{"x"}},
		{
			name:   "array after object ignored",
			layers: []any{map[string]any{"a": 1}, []any{"x"}},
			want:   map[string]any{"a": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(tt.layers...))
		})
	}
}

func TestSourcesBuildPrecedence(t *testing.T) {
	t.Setenv("ROBOT_TEST_BUILD_LEVEL", "env")
	t.Setenv("ROBOT_TEST_BUILD_ENVONLY", "yes")

	file := filepath.Join(t.TempDir(), "ctx.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"level":"file","fileonly":true}`), 0o644))

	got, err := Sources{
		EnvPrefix: "ROBOT_TEST_BUILD",
		File:      file,
		JSON:      `{"level":"json","jsononly":1}`,
		Pairs:     []string{"level=pair"},
	}.Build()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"level":    "pair",
		"envonly":  "yes",
		"fileonly": true,
		"jsononly": float64(1),
	}, got)
}

func TestSourcesBuildErrors(t *testing.T) {
	_, err := Sources{Pairs: []string{"novalue"}}.Build()
	assert.Error(t, err)

	_, err = Sources{JSON: "{"}.Build()
	assert.Error(t, err)

	_, err = Sources{File: filepath.Join(t.TempDir(), "none.json")}.Build()
	assert.Error(t, err)

	v, err := Sources{}.Build()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSourcesMap(t *testing.T) {
	m, err := Sources{}.Map()
	require.NoError(t, err)
	assert.Empty(t, m)

	m, err = Sources{Pairs: []string{"bucket=results", "use_ssl=false"}}.Map()
	require.NoError(t, err)
	assert.Equal(t, "results", String(m, "bucket"))
	assert.False(t, Bool(m, "use_ssl"))

	_, err = Sources{JSON: `[1]`}.Map()
	assert.ErrorContains(t, err, "must be a JSON object")
}

func TestStringAndBool(t *testing.T) {
	m := map[string]any{
		"port":   9000,
		"ratio":  float64(1.5),
		"whole":  float64(8001),
		"name":   "minio",
		"secure": "true",
		"flag":   true,
	}
	assert.Equal(t, "9000", String(m, "port"))
	assert.Equal(t, "1.5", String(m, "ratio"))
	assert.Equal(t, "8001", String(m, "whole"))
	assert.Equal(t, "minio", String(m, "name"))
	assert.Equal(t, "", String(m, "missing"))
	assert.True(t, Bool(m, "secure"))
	assert.True(t, Bool(m, "flag"))
	assert.False(t, Bool(m, "name"))
	assert.False(t, Bool(m, "missing"))
}
