package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/zinc-sig/robotharness/robot"
	"github.com/zinc-sig/robotharness/robot/loopback"
)

// fakeRobot stands in for the control client: every engine it hands out is
// a loopback engine with the same scripts.
type fakeRobot struct {
	scripts map[string]loopback.Script

	mu    sync.Mutex
	addrs []string
}

// useFakeRobot replaces newEngine for the duration of the test.
func useFakeRobot(t *testing.T, scripts map[string]loopback.Script) *fakeRobot {
	t.Helper()
	f := &fakeRobot{scripts: scripts}
	old := newEngine
	newEngine = func(addr string) (robot.Engine, error) {
		f.mu.Lock()
		f.addrs = append(f.addrs, addr)
		f.mu.Unlock()

		eng := loopback.New()
		for name, s := range f.scripts {
			eng.Register(name, s)
		}
		return eng, nil
	}
	t.Cleanup(func() { newEngine = old })
	return f
}

func (f *fakeRobot) addresses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.addrs...)
}

// echoScript expects the given lines and plays them back.
func echoScript(lines ...string) loopback.Script {
	return playScript(strings.Join(lines, "\n")+"\n", lines...)
}

// playScript expects expected and records lines.
func playScript(expected string, lines ...string) loopback.Script {
	return loopback.Script{
		Expected: expected,
		Peer: func(ctx context.Context, tr *loopback.Trace) error {
			for _, l := range lines {
				tr.Printf("%s", l)
			}
			return nil
		},
	}
}

// stuckScript never finishes on its own.
func stuckScript() loopback.Script {
	return loopback.Script{
		Expected: "never\n",
		Peer: func(ctx context.Context, tr *loopback.Trace) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
}

// executeCommand runs the CLI with args and returns its stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("ROBOT_HISTORY_DB", "")

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// decodeLines parses one JSON object per output line.
func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var results []map[string]any
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("Failed to parse JSON output: %v\nLine: %s", err, line)
		}
		results = append(results, m)
	}
	return results
}

func decodeOne(t *testing.T, out string) map[string]any {
	t.Helper()
	results := decodeLines(t, out)
	if len(results) != 1 {
		t.Fatalf("Expected one JSON result, got %d\nOutput: %s", len(results), out)
	}
	return results[0]
}
