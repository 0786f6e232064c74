// Package loopback provides an in-process robot.Engine.
//
// Instead of interpreting script files, the engine plays Go peers registered
// under a script name. The peer records what it observed on a Trace and the
// trace becomes the actual script, so a peer that fails part way leaves a
// truncated trace and the comparison fails the way it would against a real
// robot.
package loopback

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/zinc-sig/robotharness/internal/logging"
	"github.com/zinc-sig/robotharness/robot"
)

// Script is a registered loopback script.
type Script struct {
	// Expected is reported as the expected script.
	Expected string
	// Peer plays the robot side once the session is joined. A nil Peer
	// finishes immediately with an empty trace.
	Peer func(ctx context.Context, tr *Trace) error
}

// Trace accumulates the actual script, one line per step.
type Trace struct {
	mu sync.Mutex
	b  strings.Builder
}

// Printf appends one line to the trace.
func (t *Trace) Printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(&t.b, format, args...)
	t.b.WriteByte('\n')
}

// String returns the trace recorded so far.
func (t *Trace) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.b.String()
}

// Engine is an in-process robot.Engine. It runs one script at a time.
type Engine struct {
	clock clock.Clock

	mu      sync.Mutex
	scripts map[string]Script
	active  *session

	outstanding atomic.Int64
}

var _ robot.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the clock used to measure script timeouts.
func WithClock(clk clock.Clock) Option {
	return func(e *Engine) { e.clock = clk }
}

// New returns an engine with no scripts registered.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:   clock.NewClock(),
		scripts: make(map[string]Script),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register makes s available under name, replacing any previous script.
func (e *Engine) Register(name string, s Script) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scripts[name] = s
}

// Outstanding returns the number of results not yet released.
func (e *Engine) Outstanding() int64 {
	return e.outstanding.Load()
}

// ScriptName maps a script path to the name it is registered under: the file
// name without its extension.
func ScriptName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type session struct {
	name   string
	script Script
	trace  *Trace
	ctx    context.Context

	joinOnce sync.Once
	finished chan struct{}
}

func (s *session) play() {
	defer close(s.finished)
	if s.script.Peer == nil {
		return
	}
	if err := s.script.Peer(s.ctx, s.trace); err != nil {
		logging.Logger.Debug("loopback peer stopped", "script", s.name, "error", err)
	}
}

// Execute implements robot.Engine.
func (e *Engine) Execute(ctx context.Context, path string, client robot.ClientFunc, timeout time.Duration) (*robot.Result, error) {
	name := ScriptName(path)

	e.mu.Lock()
	script, ok := e.scripts[name]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", robot.ErrScriptNotFound, path)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := e.clock.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C()
	}

	s := &session{
		name:     name,
		script:   script,
		trace:    &Trace{},
		ctx:      ctx,
		finished: make(chan struct{}),
	}
	if err := e.begin(s); err != nil {
		return nil, err
	}
	defer e.end(s)

	clientDone := make(chan error, 1)
	go func() {
		if client == nil {
			clientDone <- e.Join(ctx)
			return
		}
		clientDone <- client(ctx)
	}()

	peerDone := s.finished
	finished, clientFinished := false, false
	for !finished || !clientFinished {
		select {
		case err := <-clientDone:
			if err != nil {
				return nil, fmt.Errorf("client code failed: %w", err)
			}
			clientFinished = true
		case <-peerDone:
			finished = true
			peerDone = nil
		case <-expired:
			return nil, fmt.Errorf("%w after %s: %s", robot.ErrTimeout, timeout, path)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	e.outstanding.Add(1)
	return robot.NewResult(script.Expected, s.trace.String(), func() {
		e.outstanding.Add(-1)
	}), nil
}

// Join implements robot.Joiner by starting the peer of the current session.
func (e *Engine) Join(ctx context.Context) error {
	e.mu.Lock()
	s := e.active
	e.mu.Unlock()

	if s == nil {
		return robot.ErrNoSession
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.joinOnce.Do(func() { go s.play() })
	return nil
}

func (e *Engine) begin(s *session) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil {
		return fmt.Errorf("loopback: %s is already executing", e.active.name)
	}
	e.active = s
	return nil
}

func (e *Engine) end(s *session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == s {
		e.active = nil
	}
}
