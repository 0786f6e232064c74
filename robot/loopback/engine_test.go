package loopback

import (
	"context"
	"errors"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zinc-sig/robotharness/robot"
)

func TestScriptName(t *testing.T) {
	assert.Equal(t, "serverEcho", ScriptName("/home/user/scripts/serverEcho.rpt"))
	assert.Equal(t, "self", ScriptName("self"))
	assert.Equal(t, "a.b", ScriptName("dir/a.b.rpt"))
}

func TestExecuteRecordsTrace(t *testing.T) {
	e := New()
	e.Register("greet", Script{
		Expected: "accepted\nread \"hi\"\n",
		Peer: func(ctx context.Context, tr *Trace) error {
			tr.Printf("accepted")
			tr.Printf("read %q", "hi")
			return nil
		},
	})

	res, err := e.Execute(context.Background(), "/scripts/greet.rpt", nil, 0)
	require.NoError(t, err)
	defer res.Release()

	assert.True(t, res.Matches(), "expected %q, got %q", res.Expected, res.Actual)
}

func TestExecuteNilPeer(t *testing.T) {
	e := New()
	e.Register("empty", Script{})

	res, err := e.Execute(context.Background(), "empty.rpt", nil, time.Second)
	require.NoError(t, err)
	defer res.Release()

	assert.Equal(t, "", res.Actual)
	assert.True(t, res.Matches())
}

func TestExecuteUnknownScript(t *testing.T) {
	_, err := New().Execute(context.Background(), "/scripts/nope.rpt", nil, 0)
	assert.ErrorIs(t, err, robot.ErrScriptNotFound)
}

func TestFailingPeerTruncatesTrace(t *testing.T) {
	e := New()
	e.Register("echo", Script{
		Expected: "connected\nwrite \"x\"\nread \"x\"\n",
		Peer: func(ctx context.Context, tr *Trace) error {
			tr.Printf("connected")
			return errors.New("connection reset by peer")
		},
	})

	res, err := e.Execute(context.Background(), "echo.rpt", nil, 0)
	require.NoError(t, err)
	defer res.Release()

	assert.False(t, res.Matches())
	assert.Equal(t, "connected\n", res.Actual)
}

func TestClientJoinsBeforePeerRuns(t *testing.T) {
	e := New()
	joined := make(chan struct{})
	e.Register("ordered", Script{
		Peer: func(ctx context.Context, tr *Trace) error {
			select {
			case <-joined:
			default:
				tr.Printf("peer ran before join returned")
			}
			return nil
		},
	})

	client := func(ctx context.Context) error {
		// Give a misbehaving engine a chance to start the peer early.
		time.Sleep(10 * time.Millisecond)
		close(joined)
		return e.Join(ctx)
	}

	res, err := e.Execute(context.Background(), "ordered.rpt", client, 5*time.Second)
	require.NoError(t, err)
	defer res.Release()
	assert.Empty(t, res.Actual)
}

func TestClientError(t *testing.T) {
	e := New()
	e.Register("s", Script{})

	boom := errors.New("bind: address already in use")
	_, err := e.Execute(context.Background(), "s.rpt", func(context.Context) error { return boom }, 0)
	assert.ErrorIs(t, err, boom)
}

func TestExecuteTimeoutFakeClock(t *testing.T) {
	fc := fakeclock.NewFakeClock(time.Now())
	e := New(WithClock(fc))

	peerCancelled := make(chan struct{})
	e.Register("slow", Script{
		Peer: func(ctx context.Context, tr *Trace) error {
			// The script needs 5 seconds of robot time.
			select {
			case <-fc.After(5 * time.Second):
				tr.Printf("finished")
				return nil
			case <-ctx.Done():
				close(peerCancelled)
				return ctx.Err()
			}
		},
	})

	go fc.WaitForNWatchersAndIncrement(time.Second, 2)

	_, err := e.Execute(context.Background(), "slow.rpt", nil, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, robot.ErrTimeout)

	select {
	case <-peerCancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("peer context was not cancelled after the timeout")
	}
}

func TestExecuteTimeoutRealClock(t *testing.T) {
	e := New()
	e.Register("slow", Script{
		Peer: func(ctx context.Context, tr *Trace) error {
			select {
			case <-time.After(5 * time.Second):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})

	start := time.Now()
	_, err := e.Execute(context.Background(), "slow.rpt", nil, 100*time.Millisecond)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, robot.ErrTimeout)
	assert.Less(t, elapsed, 2*time.Second, "timeout must not wait for the whole script")
}

func TestOutstandingResults(t *testing.T) {
	e := New()
	e.Register("s", Script{})

	res, err := e.Execute(context.Background(), "s.rpt", nil, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, e.Outstanding())

	res.Release()
	res.Release()
	assert.EqualValues(t, 0, e.Outstanding())
}

func TestJoinWithoutSession(t *testing.T) {
	assert.ErrorIs(t, New().Join(context.Background()), robot.ErrNoSession)
}
