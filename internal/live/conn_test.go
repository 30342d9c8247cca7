package live

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"pkt.systems/pslog"
)

func TestRetryDelayDoubling(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second}, // capped
		{7, 30 * time.Second},
		{100, 30 * time.Second},
		{0, 1 * time.Second}, // clamped to the first attempt
	}
	for _, tc := range cases {
		if got := RetryDelay(tc.attempt); got != tc.want {
			t.Fatalf("RetryDelay(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

// fakeConn is a scriptable wsConn. Reads block until a payload or error is
// queued.
type fakeConn struct {
	reads chan readResult

	mu     sync.Mutex
	wrote  []any
	closed bool
}

type readResult struct {
	payload []byte
	err     error
}

func newFakeConn() *fakeConn {
	return &fakeConn{reads: make(chan readResult, 16)}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	r, ok := <-c.reads
	if !ok {
		return 0, nil, io.EOF
	}
	return 1, r.payload, r.err
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wrote = append(c.wrote, v)
	return nil
}

func (c *fakeConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	return nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.reads)
	}
	return nil
}

func (c *fakeConn) written() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]any, len(c.wrote))
	copy(out, c.wrote)
	return out
}

func testManager(dial Dialer) *Manager {
	m := NewManager("ws://test/ws", pslog.NewWithOptions(io.Discard, pslog.Options{NoColor: true}))
	m.dial = dial
	// Timers fire almost immediately so backoff does not slow the test down.
	m.after = func(d time.Duration) <-chan time.Time {
		return time.After(time.Millisecond)
	}
	return m
}

func nextState(t *testing.T, m *Manager, want ConnState) StateEvent {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-m.Events():
			if st, ok := ev.(StateEvent); ok && st.State == want {
				return st
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %q", want)
		}
	}
}

func TestManagerConnectDeliversFrames(t *testing.T) {
	conn := newFakeConn()
	m := testManager(func(ctx context.Context, url string) (wsConn, error) {
		return conn, nil
	})
	defer m.Close()

	m.Connect()
	nextState(t, m, StateConnecting)
	nextState(t, m, StateConnected)

	conn.reads <- readResult{payload: []byte(`{"type":"stream_start","session_id":"s1"}`)}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-m.Events():
			if fe, ok := ev.(FrameEvent); ok {
				if fe.Frame.Type != FrameStreamStart || fe.Frame.SessionID != "s1" {
					t.Fatalf("frame = %+v", fe.Frame)
				}
				return
			}
		case <-deadline:
			t.Fatal("no frame delivered")
		}
	}
}

func TestManagerGivesUpAfterBudget(t *testing.T) {
	var mu sync.Mutex
	dials := 0
	m := testManager(func(ctx context.Context, url string) (wsConn, error) {
		mu.Lock()
		dials++
		mu.Unlock()
		return nil, errors.New("refused")
	})
	defer m.Close()

	m.Connect()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-m.Events():
			st, ok := ev.(StateEvent)
			if !ok || !st.GaveUp {
				continue
			}
			mu.Lock()
			n := dials
			mu.Unlock()
			// Initial attempt plus the automatic retry budget.
			if n < 8 {
				t.Fatalf("gave up after only %d dials", n)
			}
			return
		case <-deadline:
			t.Fatal("manager never gave up")
		}
	}
}

func TestManagerManualConnectReArmsAfterGiveUp(t *testing.T) {
	var mu sync.Mutex
	fail := true
	conn := newFakeConn()
	m := testManager(func(ctx context.Context, url string) (wsConn, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return nil, errors.New("refused")
		}
		return conn, nil
	})
	defer m.Close()

	m.Connect()
	for {
		ev := <-m.Events()
		if st, ok := ev.(StateEvent); ok && st.GaveUp {
			break
		}
	}

	mu.Lock()
	fail = false
	mu.Unlock()

	m.Connect()
	st := nextState(t, m, StateConnected)
	if st.GaveUp {
		t.Fatal("connected event still flagged as given up")
	}
}

func TestManagerAttemptCounterResetsOnSuccess(t *testing.T) {
	var mu sync.Mutex
	failures := 2
	conns := make(chan *fakeConn, 4)
	m := testManager(func(ctx context.Context, url string) (wsConn, error) {
		mu.Lock()
		defer mu.Unlock()
		if failures > 0 {
			failures--
			return nil, errors.New("refused")
		}
		c := newFakeConn()
		conns <- c
		return c, nil
	})
	defer m.Close()

	m.Connect()
	nextState(t, m, StateConnected)

	// Drop the live connection; the next automatic attempt starts at 1.
	c := <-conns
	c.reads <- readResult{err: errors.New("connection reset")}

	nextState(t, m, StateDisconnected)
	st := nextState(t, m, StateConnecting)
	if st.Attempt != 1 {
		t.Fatalf("first attempt after a successful connection = %d, want 1", st.Attempt)
	}
}

func TestManagerSendMessageRequiresConnection(t *testing.T) {
	m := testManager(func(ctx context.Context, url string) (wsConn, error) {
		return nil, errors.New("refused")
	})
	defer m.Close()

	if err := m.SendMessage("hello", "warehouse", ""); err == nil {
		t.Fatal("expected an error while disconnected")
	}
}

func TestManagerSendMessageCarriesSessionID(t *testing.T) {
	conn := newFakeConn()
	m := testManager(func(ctx context.Context, url string) (wsConn, error) {
		return conn, nil
	})
	defer m.Close()

	m.Connect()
	nextState(t, m, StateConnected)

	if err := m.SendMessage("analyze these", "warehouse", "sess-7"); err != nil {
		t.Fatal(err)
	}

	var frame Frame
	found := false
	for _, w := range conn.written() {
		f, ok := w.(Frame)
		if ok && f.Type == FrameMessage {
			frame = f
			found = true
		}
	}
	if !found {
		t.Fatalf("no message frame written: %v", conn.written())
	}
	if frame.SessionID != "sess-7" {
		t.Fatalf("session id = %q, want sess-7", frame.SessionID)
	}
}
