package wsconn

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// State is the lifecycle state of the current session.
type State string

const (
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosed     State = "closed"
)

var (
	ErrNotConnected = errf("websocket not connected")
	ErrStopped      = errf("websocket manager stopped")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error { return staticErr(s) }

const (
	defaultDialTimeout  = 10 * time.Second
	defaultWriteTimeout = 5 * time.Second
	pingTimeout         = 3 * time.Second
	readLimit           = 4 << 20
)

// FrameCallback receives one raw inbound text frame.
type FrameCallback func(raw []byte)

// StateCallback receives lifecycle transitions. session is empty while closed.
type StateCallback func(state State, session string)

// Session is one connection attempt. It is replaced, never reused, on reconnect.
type Session struct {
	ID        uuid.UUID
	StartedAt time.Time

	conn *websocket.Conn
	done chan struct{}
}

// Manager owns the websocket channel: it connects, detects closure and reconnects after
// a fixed delay for as long as it is not closed. It is the only creator of channel handles.
type Manager struct {
	url            string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	dialTimeout    time.Duration
	writeTimeout   time.Duration

	mu           sync.Mutex
	state        State
	session      *Session
	reconnecting bool

	frameCbs []FrameCallback
	stateCbs []StateCallback
	cbM      sync.RWMutex

	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	rootCtx    context.Context
	rootCancel context.CancelFunc

	logger *zap.Logger
}

func NewManager(url string, reconnectDelay, pingInterval time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reconnectDelay <= 0 {
		reconnectDelay = time.Second
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		url:            url,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		dialTimeout:    defaultDialTimeout,
		writeTimeout:   defaultWriteTimeout,
		state:          StateClosed,
		stopCh:         make(chan struct{}),
		rootCtx:        ctx,
		rootCancel:     cancel,
		logger:         logger,
	}
}

// OnFrame registers a callback for inbound frames. Callbacks run on the read goroutine in
// receipt order.
func (m *Manager) OnFrame(cb FrameCallback) {
	m.cbM.Lock()
	defer m.cbM.Unlock()
	m.frameCbs = append(m.frameCbs, cb)
}

func (m *Manager) OnStateChange(cb StateCallback) {
	m.cbM.Lock()
	defer m.cbM.Unlock()
	m.stateCbs = append(m.stateCbs, cb)
}

// Connect dials the server. It is a no-op while a session is open or connecting. A failed
// dial schedules the next attempt before returning the error.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.isStopping() {
		m.mu.Unlock()
		return ErrStopped
	}
	if m.state == StateOpen || m.state == StateConnecting {
		m.mu.Unlock()
		return nil
	}
	m.state = StateConnecting
	m.mu.Unlock()
	m.notify(StateConnecting, "")
	m.logger.Info("ws_connecting", zap.String("url", m.url))

	dialCtx, cancel := context.WithTimeout(ctx, m.dialTimeout)
	conn, _, err := websocket.Dial(dialCtx, m.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	cancel()
	if err != nil {
		m.mu.Lock()
		m.state = StateClosed
		m.mu.Unlock()
		m.notify(StateClosed, "")
		m.logger.Warn("ws_dial_failed", zap.String("url", m.url), zap.Error(err))
		m.scheduleReconnect()
		return fmt.Errorf("dial %s: %w", m.url, err)
	}
	conn.SetReadLimit(readLimit)

	s := &Session{ID: uuid.New(), StartedAt: time.Now(), conn: conn, done: make(chan struct{})}
	m.mu.Lock()
	if m.isStopping() {
		m.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "close")
		return ErrStopped
	}
	m.session = s
	m.state = StateOpen
	m.wg.Add(2)
	m.mu.Unlock()

	m.logger.Info("ws_connected", zap.String("session", s.ID.String()))
	m.notify(StateOpen, s.ID.String())

	go m.listen(s)
	go m.pingLoop(s)
	return nil
}

func (m *Manager) listen(s *Session) {
	defer m.wg.Done()
	for {
		typ, data, err := s.conn.Read(m.rootCtx)
		if err != nil {
			m.drop(s, websocket.StatusGoingAway, "read: "+err.Error())
			return
		}
		if typ != websocket.MessageText {
			m.logger.Debug("ws_non_text_frame", zap.String("session", s.ID.String()), zap.Int("bytes", len(data)))
			continue
		}

		m.cbM.RLock()
		callbacks := make([]FrameCallback, len(m.frameCbs))
		copy(callbacks, m.frameCbs)
		m.cbM.RUnlock()
		for _, cb := range callbacks {
			cb(data)
		}
	}
}

func (m *Manager) pingLoop(s *Session) {
	defer m.wg.Done()
	t := time.NewTicker(m.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-m.stopCh:
			return
		case <-s.done:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(m.rootCtx, pingTimeout)
			err := s.conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			m.logger.Warn("ws_ping_failed", zap.String("session", s.ID.String()), zap.Int("failures", failures), zap.Error(err))
			if failures >= 2 {
				m.drop(s, websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}

// drop retires s once. Later calls for the same session are ignored.
func (m *Manager) drop(s *Session, code websocket.StatusCode, reason string) {
	m.mu.Lock()
	if m.session != s {
		m.mu.Unlock()
		return
	}
	m.session = nil
	m.state = StateClosed
	close(s.done)
	m.mu.Unlock()

	_ = s.conn.Close(code, "")
	m.logger.Info("ws_disconnected", zap.String("session", s.ID.String()), zap.String("reason", reason))
	m.notify(StateClosed, "")
	m.scheduleReconnect()
}

// scheduleReconnect arms a single fixed-delay timer. There is no retry limit.
func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	if m.reconnecting || m.isStopping() {
		m.mu.Unlock()
		return
	}
	m.reconnecting = true
	m.wg.Add(1)
	m.mu.Unlock()

	m.logger.Debug("ws_reconnect_scheduled", zap.Duration("delay", m.reconnectDelay))
	go func() {
		defer m.wg.Done()
		t := time.NewTimer(m.reconnectDelay)
		defer t.Stop()
		select {
		case <-m.stopCh:
			return
		case <-t.C:
		}
		m.mu.Lock()
		m.reconnecting = false
		m.mu.Unlock()
		_ = m.Connect(m.rootCtx)
	}()
}

// Send writes v as one JSON text frame. With no open channel it logs and returns
// ErrNotConnected.
func (m *Manager) Send(ctx context.Context, v any) error {
	m.mu.Lock()
	s := m.session
	m.mu.Unlock()
	if s == nil {
		m.logger.Error("ws_send_rejected", zap.Error(ErrNotConnected))
		return ErrNotConnected
	}
	wctx, cancel := context.WithTimeout(ctx, m.writeTimeout)
	defer cancel()
	if err := wsjson.Write(wctx, s.conn, v); err != nil {
		m.logger.Warn("ws_send_failed", zap.String("session", s.ID.String()), zap.Error(err))
		return fmt.Errorf("ws send: %w", err)
	}
	return nil
}

// Connected reports whether a session is open.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateOpen
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SessionID returns the open session's id, "" when closed.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ""
	}
	return m.session.ID.String()
}

// Close stops reconnecting, closes the open session and waits for the manager's
// goroutines.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.stopOnce.Do(func() { close(m.stopCh) })
	s := m.session
	m.mu.Unlock()
	if s != nil {
		m.drop(s, websocket.StatusNormalClosure, "close")
	}
	m.rootCancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (m *Manager) isStopping() bool {
	select {
	case <-m.stopCh:
		return true
	default:
		return false
	}
}

func (m *Manager) notify(state State, session string) {
	m.cbM.RLock()
	callbacks := make([]StateCallback, len(m.stateCbs))
	copy(callbacks, m.stateCbs)
	m.cbM.RUnlock()
	for _, cb := range callbacks {
		cb(state, session)
	}
}
