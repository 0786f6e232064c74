// Package robottest runs robot scripts from Go tests.
//
// A test hands the wrapper a script path, optional client code, optional
// cleanup code and a timeout. The wrapper executes the script on an engine,
// fails the test immediately if no result comes back, reports a divergence
// between the expected and actual scripts, runs the cleanup and releases the
// result:
//
//	func TestEcho(t *testing.T) {
//		eng, _ := control.New(control.DefaultAddress)
//		robottest.Run(t, eng, robottest.Invocation{
//			Script:  robottest.ScriptPath(t, "serverEcho"),
//			Client:  echo.EchoClient(eng, "localhost:8001"),
//			Timeout: 10 * time.Second,
//		})
//	}
package robottest

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/zinc-sig/robotharness/robot"
)

const (
	// ScriptDir is the directory, relative to the test's working directory,
	// that ScriptPath resolves names in.
	ScriptDir = robot.ScriptDir
	// ScriptExt is the robot script file extension.
	ScriptExt = robot.ScriptExt
)

// TestingT is the subset of testing.TB used by the wrapper.
type TestingT interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

// Invocation describes one scripted test. Client and Cleanup are optional.
// A Timeout <= 0 waits for the script indefinitely.
type Invocation struct {
	Script  string
	Client  robot.ClientFunc
	Cleanup func()
	Timeout time.Duration
}

// Run executes inv on eng and reports the outcome through t.
func Run(t TestingT, eng robot.Engine, inv Invocation) {
	t.Helper()

	res, err := eng.Execute(context.Background(), inv.Script, inv.Client, inv.Timeout)
	require.NoError(t, err, "script execution failed or timed out: %s", inv.Script)
	require.NotNil(t, res, "script execution failed or timed out: %s: engine returned no result", inv.Script)
	// FailNow of a TestingT double may return
	if res == nil {
		return
	}
	defer res.Release()
	if err != nil {
		return
	}

	if !res.Matches() {
		t.Errorf("expected vs actual script divergence: %s\n"+
			"--- expected script ---\n%s\n"+
			"--- actual script ---\n%s\n"+
			"--- diff (-expected +actual) ---\n%s",
			inv.Script, res.Expected, res.Actual, cmp.Diff(res.Expected, res.Actual))
	}

	if inv.Cleanup != nil {
		inv.Cleanup()
	}
}

// RunScript is Run with positional arguments.
func RunScript(t TestingT, eng robot.Engine, script string, client robot.ClientFunc, cleanup func(), timeout time.Duration) {
	t.Helper()
	Run(t, eng, Invocation{
		Script:  script,
		Client:  client,
		Cleanup: cleanup,
		Timeout: timeout,
	})
}

// ScriptPath returns the absolute path of the named script in ScriptDir under
// the current working directory.
func ScriptPath(t TestingT, name string) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err, "failed to get working directory")
	return filepath.Join(wd, ScriptDir, name+ScriptExt)
}
