// Package settings assembles free-form settings maps from layered sources.
//
// The same layering serves run context metadata, upload provider options and
// webhook options. From lowest to highest precedence:
//
//  1. the environment: PREFIX holding a JSON object, then PREFIX_KEY variables
//  2. a JSON file
//  3. a JSON string
//  4. key=value pairs
package settings

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"strconv"
	"strings"

	"github.com/zinc-sig/robotharness/internal/logging"
)

// Environment prefixes for each settings map.
const (
	ContextPrefix = "ROBOT_CONTEXT"
	UploadPrefix  = "ROBOT_UPLOAD_CONFIG"
	WebhookPrefix = "ROBOT_WEBHOOK"
)

// Sources names every layer of one settings map. Empty fields are skipped.
type Sources struct {
	EnvPrefix string
	File      string
	JSON      string
	Pairs     []string
}

// Build reads every layer and merges them. The result is nil when no layer
// contributed anything.
func (s Sources) Build() (any, error) {
	var layers []any

	if s.EnvPrefix != "" {
		if env := FromEnv(s.EnvPrefix); env != nil {
			layers = append(layers, env)
		}
	}

	if s.File != "" {
		v, err := ParseFile(s.File)
		if err != nil {
			return nil, err
		}
		layers = append(layers, v)
	}

	if s.JSON != "" {
		v, err := ParseJSON(s.JSON)
		if err != nil {
			return nil, err
		}
		layers = append(layers, v)
	}

	if len(s.Pairs) > 0 {
		kv := make(map[string]any, len(s.Pairs))
		for _, pair := range s.Pairs {
			key, value, err := ParsePair(pair)
			if err != nil {
				return nil, err
			}
			kv[key] = value
		}
		layers = append(layers, kv)
	}

	return Merge(layers...), nil
}

// Map builds the layers and requires the result to be an object.
func (s Sources) Map() (map[string]any, error) {
	v, err := s.Build()
	if err != nil {
		return nil, err
	}
	if v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("settings must be a JSON object, got %T", v)
	}
	return m, nil
}

// ParsePair splits key=value and infers the value's type.
func ParsePair(pair string) (string, any, error) {
	key, raw, ok := strings.Cut(pair, "=")
	if !ok {
		return "", nil, fmt.Errorf("invalid format, expected key=value: %s", pair)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", nil, fmt.Errorf("empty key in key=value pair")
	}
	return key, Infer(strings.TrimSpace(raw)), nil
}

// Infer converts raw to an int, a float64 or a bool when it spells one, and
// returns it unchanged otherwise. Only the literals true and false are bools.
func Infer(raw string) any {
	if i, err := strconv.Atoi(raw); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}

// ParseJSON decodes any JSON value.
func ParseJSON(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return v, nil
}

// ParseFile decodes the JSON value stored at path.
func ParseFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return v, nil
}

// FromEnv collects PREFIX (a JSON object) and PREFIX_KEY variables. Keys are
// lowercased and values go through Infer. It returns nil when nothing is set.
func FromEnv(prefix string) map[string]any {
	out := make(map[string]any)

	if raw := os.Getenv(prefix); raw != "" {
		v, err := ParseJSON(raw)
		if m, ok := v.(map[string]any); err == nil && ok {
			maps.Copy(out, m)
		} else {
			logging.Logger.Debug("ignoring environment settings", "variable", prefix, "error", err)
		}
	}

	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		key, found := strings.CutPrefix(name, prefix+"_")
		if !found || key == "" {
			continue
		}
		out[strings.ToLower(key)] = Infer(value)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// Merge overlays objects left to right, later keys winning. A non-object
// layer is returned as is when no object precedes it and ignored otherwise.
func Merge(layers ...any) any {
	out := make(map[string]any)
	for _, layer := range layers {
		switch v := layer.(type) {
		case nil:
		case map[string]any:
			maps.Copy(out, v)
		default:
			if len(out) == 0 {
				return v
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// String returns m[key] rendered as a string, or "" when absent.
func String(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Bool reports whether m[key] is true or a string that parses as true.
func Bool(m map[string]any, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}
