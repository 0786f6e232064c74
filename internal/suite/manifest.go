// Package suite runs every script listed in a YAML manifest.
package suite

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/zinc-sig/robotharness/robot"
)

// Manifest is a suite file:
//
//	name: echo
//	control: tcp://localhost:11642
//	dir: scripts
//	timeout: 10s
//	scripts:
//	  - name: serverEcho
//	  - name: self
//	    timeout: 5s
//	    score: 10
type Manifest struct {
	Name    string  `yaml:"name"`
	Control string  `yaml:"control"`
	Dir     string  `yaml:"dir"`
	Timeout string  `yaml:"timeout"`
	Scripts []Entry `yaml:"scripts"`

	// base is the directory the manifest was loaded from.
	base string
}

// Entry is one script of a suite. Timeout and Score override the suite
// defaults when set.
type Entry struct {
	Name    string `yaml:"name"`
	Timeout string `yaml:"timeout"`
	Score   *int   `yaml:"score"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.base = filepath.Dir(path)
	return m, nil
}

// Parse decodes and validates a manifest. Relative script paths resolve
// against the working directory.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return nil, fmt.Errorf("invalid suite manifest: %w", err)
	}
	if len(m.Scripts) == 0 {
		return nil, fmt.Errorf("suite has no scripts")
	}
	if m.Dir == "" {
		m.Dir = robot.ScriptDir
	}
	if _, err := parseTimeout(m.Timeout); err != nil {
		return nil, fmt.Errorf("suite timeout: %w", err)
	}

	seen := make(map[string]bool, len(m.Scripts))
	for i, e := range m.Scripts {
		if e.Name == "" {
			return nil, fmt.Errorf("script %d has no name", i+1)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("script %s listed twice", e.Name)
		}
		seen[e.Name] = true
		if _, err := parseTimeout(e.Timeout); err != nil {
			return nil, fmt.Errorf("script %s timeout: %w", e.Name, err)
		}
	}
	return &m, nil
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return d, nil
}

// Path returns the absolute path of the entry's script file.
func (m *Manifest) Path(e Entry) (string, error) {
	name := e.Name
	if filepath.Ext(name) == "" {
		name += robot.ScriptExt
	}
	if filepath.IsAbs(name) {
		return name, nil
	}
	return filepath.Abs(filepath.Join(m.base, m.Dir, name))
}

// TimeoutFor returns the entry's timeout, falling back to the suite's.
func (m *Manifest) TimeoutFor(e Entry) time.Duration {
	if d, _ := parseTimeout(e.Timeout); d > 0 {
		return d
	}
	d, _ := parseTimeout(m.Timeout)
	return d
}
