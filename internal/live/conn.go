package live

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"pkt.systems/pslog"
)

// Connection lifecycle states.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
)

const (
	handshakeTimeout  = 10 * time.Second
	writeTimeout      = 10 * time.Second
	keepAliveInterval = 25 * time.Second

	backoffBase = 1 * time.Second
	backoffCap  = 30 * time.Second
	maxAttempts = 8
)

// RetryDelay returns the reconnect delay for the 1-indexed attempt n:
// min(base * 2^(n-1), cap).
func RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 30 {
		return backoffCap
	}
	d := backoffBase << (attempt - 1)
	if d > backoffCap {
		return backoffCap
	}
	return d
}

// Event is one item on the manager's ordered delivery channel.
type Event interface{ connEvent() }

// StateEvent reports a connection state transition. GaveUp is set once the
// automatic retry budget is exhausted.
type StateEvent struct {
	State   ConnState
	Attempt int
	GaveUp  bool
}

// FrameEvent carries one decoded inbound frame.
type FrameEvent struct {
	Frame Frame
}

// ErrEvent carries a non-fatal transport error.
type ErrEvent struct {
	Err error
}

func (StateEvent) connEvent() {}
func (FrameEvent) connEvent() {}
func (ErrEvent) connEvent()   {}

// wsConn is the slice of *websocket.Conn the manager uses; tests substitute
// a fake.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v any) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Dialer opens the streaming transport.
type Dialer func(ctx context.Context, url string) (wsConn, error)

func defaultDialer(ctx context.Context, url string) (wsConn, error) {
	d := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := d.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial stream: %w", err)
	}
	return conn, nil
}

// Manager owns the streaming channel lifecycle: connect, keepalive,
// reconnect with backoff, teardown. All operations return immediately;
// results arrive on Events(). One Manager per view, disposed with Close,
// never a shared singleton.
type Manager struct {
	url   string
	dial  Dialer
	log   pslog.Logger
	now   func() time.Time
	after func(d time.Duration) <-chan time.Time

	events chan Event

	mu       sync.Mutex
	conn     wsConn
	state    ConnState
	attempts int
	gaveUp   bool
	closed   bool
	genID    int // invalidates keepalive/reconnect of torn-down connections

	writeMu sync.Mutex

	quit chan struct{}
}

func NewManager(url string, log pslog.Logger) *Manager {
	return &Manager{
		url:    url,
		dial:   defaultDialer,
		log:    log,
		now:    time.Now,
		after:  func(d time.Duration) <-chan time.Time { return time.After(d) },
		events: make(chan Event, 256),
		state:  StateDisconnected,
		quit:   make(chan struct{}),
	}
}

// Events is the single ordered queue the view consumes.
func (m *Manager) Events() <-chan Event {
	return m.events
}

func (m *Manager) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect starts a connection attempt. It is idempotent: while an attempt is
// in flight or a connection is open it does nothing. A manual Connect after
// the retry budget was exhausted re-arms automatic reconnection.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.closed || m.state != StateDisconnected {
		m.mu.Unlock()
		return
	}
	if m.gaveUp {
		m.gaveUp = false
		m.attempts = 0
	}
	m.state = StateConnecting
	attempt := m.attempts + 1
	m.mu.Unlock()

	m.emit(StateEvent{State: StateConnecting, Attempt: attempt})
	go m.connectOnce()
}

func (m *Manager) connectOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
	defer cancel()

	conn, err := m.dial(ctx, m.url)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		m.state = StateDisconnected
		m.mu.Unlock()
		m.log.Warn("stream connect failed", "err", err)
		m.emit(ErrEvent{Err: err})
		m.scheduleReconnect()
		return
	}

	m.conn = conn
	m.state = StateConnected
	m.attempts = 0
	m.genID++
	gen := m.genID
	m.mu.Unlock()

	m.log.Info("stream connected", "url", m.url)
	m.emit(StateEvent{State: StateConnected})

	go m.keepAlive(gen)
	go m.readLoop(conn, gen)
}

func (m *Manager) readLoop(conn wsConn, gen int) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			m.onDisconnect(gen, err)
			return
		}
		frame, err := DecodeFrame(payload)
		if err != nil {
			m.emit(ErrEvent{Err: err})
			continue
		}
		m.emit(FrameEvent{Frame: frame})
	}
}

func (m *Manager) keepAlive(gen int) {
	for {
		select {
		case <-m.after(keepAliveInterval):
		case <-m.quit:
			return
		}
		m.mu.Lock()
		live := !m.closed && m.genID == gen && m.state == StateConnected
		m.mu.Unlock()
		if !live {
			return
		}
		if err := m.send(Frame{Type: FramePing}); err != nil {
			return
		}
	}
}

func (m *Manager) onDisconnect(gen int, cause error) {
	m.mu.Lock()
	if m.closed || m.genID != gen {
		m.mu.Unlock()
		return
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.state = StateDisconnected
	m.genID++
	m.mu.Unlock()

	if !websocket.IsCloseError(cause, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		m.log.Warn("stream closed", "err", cause)
	}
	m.emit(StateEvent{State: StateDisconnected})
	m.scheduleReconnect()
}

func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	if m.closed || m.gaveUp || m.state != StateDisconnected {
		m.mu.Unlock()
		return
	}
	m.attempts++
	attempt := m.attempts
	if attempt > maxAttempts {
		m.gaveUp = true
		m.mu.Unlock()
		m.log.Warn("stream reconnect abandoned", "attempts", maxAttempts)
		m.emit(StateEvent{State: StateDisconnected, Attempt: attempt, GaveUp: true})
		return
	}
	m.state = StateConnecting
	m.mu.Unlock()

	delay := RetryDelay(attempt)
	m.emit(StateEvent{State: StateConnecting, Attempt: attempt})
	go func() {
		select {
		case <-m.after(delay):
		case <-m.quit:
			return
		}
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()
		m.connectOnce()
	}()
}

// SendMessage sends the user message frame carrying the current session id.
func (m *Manager) SendMessage(text, profile, sessionID string) error {
	return m.send(NewMessageFrame(text, profile, sessionID))
}

func (m *Manager) send(f Frame) error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("stream is not connected")
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := conn.SetWriteDeadline(m.now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteJSON(f); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Close tears the manager down: no further reconnects, keepalive stopped,
// socket closed with a normal-closure handshake.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	conn := m.conn
	m.conn = nil
	m.state = StateDisconnected
	m.mu.Unlock()

	close(m.quit)
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			m.now().Add(500*time.Millisecond))
		_ = conn.Close()
	}
	return nil
}

func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
		// The view stopped draining; drop rather than block the transport.
		m.log.Warn("dropping stream event, consumer is behind")
	}
}
