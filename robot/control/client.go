// Package control drives a running robot over its TCP control protocol.
//
// A control connection carries one script execution: PREPARE uploads the
// script and returns the expected script, START (sent by Join) lets the robot
// play it, and FINISHED reports the script the robot observed. ABORT stops a
// session that ran past its timeout.
package control

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"

	"github.com/zinc-sig/robotharness/internal/logging"
	"github.com/zinc-sig/robotharness/robot"
)

// DefaultAddress is the control endpoint of a locally started robot.
const DefaultAddress = "tcp://localhost:11642"

// abortWriteTimeout bounds the best-effort ABORT sent on timeout.
const abortWriteTimeout = time.Second

// Client is a robot.Engine backed by a robot control endpoint. A Client runs
// one script at a time; use one Client per concurrent test.
type Client struct {
	network string
	address string
	clock   clock.Clock
	dialer  net.Dialer

	mu      sync.Mutex
	session *session
}

var _ robot.Engine = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithClock replaces the clock used to measure script timeouts.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) { c.clock = clk }
}

// WithDialTimeout bounds how long connecting to the robot may take.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) { c.dialer.Timeout = d }
}

// New returns a Client for the control endpoint at addr, given either as
// tcp://host:port or host:port.
func New(addr string, opts ...Option) (*Client, error) {
	network, address, err := ParseAddress(addr)
	if err != nil {
		return nil, err
	}

	c := &Client{
		network: network,
		address: address,
		clock:   clock.NewClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ParseAddress splits a control endpoint into a network and an address
// suitable for net.Dial.
func ParseAddress(addr string) (network, address string, err error) {
	if addr == "" {
		return "", "", errors.New("control: empty address")
	}
	if !strings.Contains(addr, "://") {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return "", "", fmt.Errorf("control: invalid address %q: %w", addr, err)
		}
		return "tcp", addr, nil
	}

	u, err := url.Parse(addr)
	if err != nil {
		return "", "", fmt.Errorf("control: invalid address %q: %w", addr, err)
	}
	switch u.Scheme {
	case "tcp", "tcp4", "tcp6":
	default:
		return "", "", fmt.Errorf("control: unsupported scheme %q in %q", u.Scheme, addr)
	}
	if u.Port() == "" {
		return "", "", fmt.Errorf("control: missing port in %q", addr)
	}
	return u.Scheme, u.Host, nil
}

// Address returns the endpoint the client connects to.
func (c *Client) Address() string {
	return c.network + "://" + c.address
}

// Execute implements robot.Engine.
func (c *Client) Execute(ctx context.Context, script string, client robot.ClientFunc, timeout time.Duration) (*robot.Result, error) {
	body, err := os.ReadFile(script)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", robot.ErrScriptNotFound, script)
		}
		return nil, fmt.Errorf("failed to read script %s: %w", script, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := c.clock.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C()
	}
	timedOut := func(s *session) error {
		s.abort()
		logging.Logger.Warn("robot script timed out", "script", script, "timeout", timeout)
		return fmt.Errorf("%w after %s: %s", robot.ErrTimeout, timeout, script)
	}

	conn, err := c.dialer.DialContext(ctx, c.network, c.address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to robot at %s: %w", c.Address(), err)
	}

	s := newSession(script, conn)
	defer s.close()
	go s.readLoop()

	logging.Logger.Debug("preparing robot script", "script", script, "robot", c.Address())
	if err := s.send(&Frame{
		Kind:    KindPrepare,
		Headers: map[string]string{headerName: script},
		Body:    string(body),
	}); err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", KindPrepare, err)
	}

	var expected string
	select {
	case expected = <-s.prepared:
	case err := <-s.failed:
		return nil, err
	case <-expired:
		return nil, timedOut(s)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := c.begin(s); err != nil {
		s.abort()
		return nil, err
	}
	defer c.end(s)

	clientDone := make(chan error, 1)
	go func() {
		if client == nil {
			clientDone <- c.Join(ctx)
			return
		}
		clientDone <- client(ctx)
	}()

	var (
		actual         string
		finished       bool
		clientFinished bool
	)
	for !finished || !clientFinished {
		select {
		case err := <-clientDone:
			if err != nil {
				s.abort()
				return nil, fmt.Errorf("client code failed: %w", err)
			}
			clientFinished = true
		case actual = <-s.finished:
			finished = true
		case err := <-s.failed:
			return nil, err
		case <-expired:
			return nil, timedOut(s)
		case <-ctx.Done():
			s.abort()
			return nil, ctx.Err()
		}
	}

	logging.Logger.Debug("robot script finished", "script", script, "match", actual == expected)
	return robot.NewResult(expected, actual, nil), nil
}

// Join implements robot.Joiner. It sends START for the script currently being
// executed and waits for STARTED.
func (c *Client) Join(ctx context.Context) error {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()

	if s == nil {
		return robot.ErrNoSession
	}
	return s.join(ctx)
}

func (c *Client) begin(s *session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return fmt.Errorf("control: %s is already executing on this client", c.session.name)
	}
	c.session = s
	return nil
}

func (c *Client) end(s *session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == s {
		c.session = nil
	}
}

// session is one control connection. The read loop is the only reader; events
// are delivered over single-slot channels.
type session struct {
	name string
	conn net.Conn

	writeMu sync.Mutex

	prepared  chan string
	finished  chan string
	failed    chan error
	started   chan struct{}
	startOnce sync.Once
	done      chan struct{}

	joinOnce sync.Once
	joinErr  error
}

func newSession(name string, conn net.Conn) *session {
	return &session{
		name:     name,
		conn:     conn,
		prepared: make(chan string, 1),
		finished: make(chan string, 1),
		failed:   make(chan error, 1),
		started:  make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *session) readLoop() {
	defer close(s.done)

	r := bufio.NewReader(s.conn)
	for {
		f, err := ReadFrame(r)
		if err != nil {
			s.fail(fmt.Errorf("robot control connection: %w", err))
			return
		}
		logging.Logger.Debug("robot event", "kind", f.Kind, "script", s.name)

		switch f.Kind {
		case KindPrepared:
			deliver(s.prepared, f.Body)
		case KindStarted:
			s.startOnce.Do(func() { close(s.started) })
		case KindFinished:
			deliver(s.finished, f.Body)
			return
		case KindError:
			s.fail(&robot.ScriptError{
				Script:      s.name,
				Summary:     f.Header(headerSummary),
				Description: f.Body,
			})
			return
		default:
			logging.Logger.Warn("ignoring unknown robot event", "kind", f.Kind)
		}
	}
}

func deliver[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func (s *session) fail(err error) {
	deliver(s.failed, err)
}

func (s *session) send(f *Frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return WriteFrame(s.conn, f)
}

func (s *session) join(ctx context.Context) error {
	s.joinOnce.Do(func() {
		s.joinErr = s.start(ctx)
	})
	return s.joinErr
}

func (s *session) start(ctx context.Context) error {
	if err := s.send(&Frame{Kind: KindStart, Headers: map[string]string{headerName: s.name}}); err != nil {
		return fmt.Errorf("failed to send %s: %w", KindStart, err)
	}

	select {
	case <-s.started:
		return nil
	case <-s.done:
		select {
		case <-s.started:
			return nil
		default:
		}
		return fmt.Errorf("robot ended %s before it started", s.name)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *session) abort() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(abortWriteTimeout))
	if err := WriteFrame(s.conn, &Frame{Kind: KindAbort, Headers: map[string]string{headerName: s.name}}); err != nil {
		logging.Logger.Debug("failed to send abort", "script", s.name, "error", err)
	}
}

func (s *session) close() {
	_ = s.conn.Close()
	<-s.done
}
