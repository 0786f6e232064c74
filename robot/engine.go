package robot

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout is returned when the script does not finish within the
	// requested timeout.
	ErrTimeout = errors.New("robot: script timed out")

	// ErrScriptNotFound is returned when the script file cannot be located.
	ErrScriptNotFound = errors.New("robot: script not found")

	// ErrNoSession is returned by Join when no script is being executed.
	ErrNoSession = errors.New("robot: no session in progress")
)

// ClientFunc is client code run against a prepared script. It must call Join
// on the engine before touching the network. The context is cancelled once the
// engine stops waiting for the script.
type ClientFunc func(ctx context.Context) error

// Joiner starts a prepared session.
type Joiner interface {
	// Join asks the robot to start the prepared script (attempting any
	// connect it declares) and blocks until the robot acknowledges.
	Join(ctx context.Context) error
}

// Engine executes robot scripts.
type Engine interface {
	Joiner

	// Execute prepares the script at the given absolute path, runs client (or
	// joins on its own when client is nil) and waits for the script to
	// finish. A timeout <= 0 waits indefinitely. On success the caller owns
	// the result and must Release it.
	Execute(ctx context.Context, script string, client ClientFunc, timeout time.Duration) (*Result, error)
}

// ScriptError is an error reported by the robot itself, for example a script
// that fails to parse.
type ScriptError struct {
	Script      string
	Summary     string
	Description string
}

func (e *ScriptError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("robot: %s: %s", e.Script, e.Summary)
	}
	return fmt.Sprintf("robot: %s: %s: %s", e.Script, e.Summary, e.Description)
}
