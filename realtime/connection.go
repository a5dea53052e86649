package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"shelftalk/domain"
	"shelftalk/wire"
)

// Conn is one established websocket. The production implementation wraps
// gorilla/websocket; tests substitute their own.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Dialer opens a connection to the given endpoint URL.
type Dialer interface {
	Dial(endpoint string) (Conn, error)
}

// Config tunes the reconnection behavior. The zero value gets the
// defaults below.
type Config struct {
	// BaseDelay is the first reconnection delay; each consecutive
	// failure doubles it up to CapDelay. There is deliberately no
	// jitter: the schedule is deterministic, at the cost of synchronized
	// retries when many clients lose the same server.
	BaseDelay   time.Duration
	CapDelay    time.Duration
	MaxAttempts int
	Dialer      Dialer
}

func (c *Config) defaults() {
	if c.BaseDelay == 0 {
		c.BaseDelay = time.Second
	}
	if c.CapDelay == 0 {
		c.CapDelay = 5 * time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 5
	}
	if c.Dialer == nil {
		c.Dialer = wsDialer{}
	}
}

// Manager owns the lifecycle of one logical connection: opening, closing,
// bounded automatic reconnection, and frame encode/decode. Decoded events
// are fanned out through the attached EventBus. Exactly one Manager is
// active per logical client session.
type Manager struct {
	log      *slog.Logger
	endpoint string
	bus      *EventBus
	cfg      Config

	// afterFunc schedules the reconnection timer; tests replace it to
	// observe the backoff without sleeping.
	afterFunc func(time.Duration, func()) *time.Timer

	mu       sync.Mutex
	wmu      sync.Mutex
	status   domain.ConnectionStatus
	attempts int
	token    string
	conn     Conn
	timer    *time.Timer
	gen      uint64
}

func NewManager(log *slog.Logger, endpoint string, bus *EventBus, cfg Config) *Manager {
	cfg.defaults()
	return &Manager{
		log:       log,
		endpoint:  endpoint,
		bus:       bus,
		cfg:       cfg,
		afterFunc: time.AfterFunc,
		status:    domain.StatusIdle,
	}
}

// Bus returns the event bus fed by this connection.
func (m *Manager) Bus() *EventBus { return m.bus }

// State returns a snapshot of the connection state.
func (m *Manager) State() domain.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.ConnectionState{Status: m.status, ReconnectAttempts: m.attempts}
}

// Connect tears down any prior socket and opens a new one with the token
// carried as a query parameter. On success the reconnection budget is
// reset. A failed dial consumes one reconnection attempt, exactly like an
// unexpected close.
func (m *Manager) Connect(token string) error {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.stopTimerLocked()
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.status = domain.StatusConnecting
	m.token = token
	m.mu.Unlock()

	conn, err := m.cfg.Dialer.Dial(m.endpoint + "?token=" + url.QueryEscape(token))

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		// Superseded by a newer Connect or a Disconnect while dialing.
		if conn != nil {
			_ = conn.Close()
		}
		return nil
	}
	if err != nil {
		m.status = domain.StatusClosed
		m.scheduleReconnectLocked()
		return fmt.Errorf("dial %s: %w", m.endpoint, err)
	}
	m.conn = conn
	m.status = domain.StatusOpen
	m.attempts = 0
	m.log.Info(fmt.Sprintf("Connected to %s", m.endpoint))
	go m.readLoop(conn)
	return nil
}

// Send transmits the command when the connection is open. From any other
// state the command is dropped with a warning: there is no outbound
// queue and no retry.
func (m *Manager) Send(cmd wire.Outbound) error {
	m.mu.Lock()
	conn := m.conn
	status := m.status
	m.mu.Unlock()

	if status != domain.StatusOpen || conn == nil {
		m.log.Warn(fmt.Sprintf("Dropping %T, connection is %s", cmd, status))
		return nil
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode %T: %w", cmd, err)
	}
	m.wmu.Lock()
	defer m.wmu.Unlock()
	if err := conn.WriteMessage(data); err != nil {
		return fmt.Errorf("write %T: %w", cmd, err)
	}
	return nil
}

// Disconnect is idempotent: it cancels any pending reconnection, closes
// the socket if present, clears the event bus, and leaves the connection
// closed until an explicit Connect.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.gen++
	m.stopTimerLocked()
	conn := m.conn
	m.conn = nil
	m.status = domain.StatusClosed
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	m.bus.Clear()
}

func (m *Manager) readLoop(conn Conn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			m.handleClose(conn, err)
			return
		}
		evt, derr := wire.DecodeServerEvent(data)
		if derr != nil {
			// Decode faults never cost the connection.
			m.log.Warn(fmt.Sprintf("Dropping inbound frame: %v", derr))
			continue
		}
		m.bus.Dispatch(evt)
	}
}

func (m *Manager) handleClose(conn Conn, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != conn {
		// A stale read loop; this socket was already replaced or torn
		// down on purpose.
		return
	}
	m.conn = nil
	m.status = domain.StatusClosed
	m.log.Warn(fmt.Sprintf("Connection closed unexpectedly: %v", err))
	m.scheduleReconnectLocked()
}

func (m *Manager) scheduleReconnectLocked() {
	if m.attempts >= m.cfg.MaxAttempts {
		m.log.Error(fmt.Sprintf("Reconnection budget exhausted after %d attempts, staying closed", m.attempts))
		return
	}
	delay := backoffDelay(m.cfg.BaseDelay, m.cfg.CapDelay, m.attempts)
	m.attempts++
	m.log.Info(fmt.Sprintf("Reconnecting in %v (attempt %d/%d)", delay, m.attempts, m.cfg.MaxAttempts))

	token := m.token
	gen := m.gen
	m.timer = m.afterFunc(delay, func() {
		m.mu.Lock()
		stale := m.gen != gen
		m.mu.Unlock()
		if stale {
			return
		}
		_ = m.Connect(token)
	})
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// backoffDelay returns min(base * 2^attempt, cap).
func backoffDelay(base, capDelay time.Duration, attempt int) time.Duration {
	delay := base << uint(attempt)
	if delay > capDelay || delay <= 0 {
		return capDelay
	}
	return delay
}

// wsDialer is the production Dialer on top of gorilla/websocket.
type wsDialer struct{}

func (wsDialer) Dial(endpoint string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) WriteMessage(data []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
