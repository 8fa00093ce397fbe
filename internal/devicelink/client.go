// Package devicelink keeps the control channel to the actuator board.
//
// The board runs a WebSocket server and understands plain-text commands
// ("open_door", "turn_on_lamp", ...).  It also broadcasts sensor readings on
// the same socket; the client keeps the most recent one.
package devicelink

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

const defaultTimeout = 3 * time.Second

type Config struct {
	URL string // e.g. ws://192.168.1.50/ws

	// Timeout bounds both the dial and every write.
	Timeout time.Duration
}

// Telemetry is the last text frame the board pushed to us.
type Telemetry struct {
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"received_at"`
}

// Client is a two-state (connected / disconnected) link.  It never retries
// in the background: Send reconnects on demand, and a failed write drops the
// connection so the next Send dials again.
type Client struct {
	url     string
	timeout time.Duration
	logger  logrus.FieldLogger

	// mu covers the whole check -> connect -> write sequence.
	mu       sync.Mutex
	conn     *websocket.Conn
	stopRead context.CancelFunc

	connected atomic.Bool

	telemetryMu sync.RWMutex
	telemetry   Telemetry
}

func NewClient(cfg Config, logger logrus.FieldLogger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url:     cfg.URL,
		timeout: timeout,
		logger:  logger.WithField("device_link", cfg.URL),
	}
}

// Connect dials the board if not already connected.  Failures are logged
// and reported as false.
func (c *Client) Connect(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

// Send transmits command verbatim as one text frame.  It returns false when
// the board cannot be reached or the write fails; it never returns an error.
func (c *Client) Send(ctx context.Context, command string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil && !c.connectLocked(ctx) {
		return false
	}

	wctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// An already expired deadline counts as a failed write.
	err := wctx.Err()
	if err == nil {
		err = c.conn.Write(wctx, websocket.MessageText, []byte(command))
	}
	if err != nil {
		c.logger.WithError(err).WithField("command", command).Warn("device link send failed, disconnecting")
		c.dropLocked()
		return false
	}

	c.logger.WithField("command", command).Info("sent command")
	return true
}

// IsConnected reports the current state.  It never dials and never waits
// for an in-flight Send.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// LastTelemetry returns the most recent board message, if any arrived.
func (c *Client) LastTelemetry() (Telemetry, bool) {
	c.telemetryMu.RLock()
	defer c.telemetryMu.RUnlock()
	return c.telemetry, !c.telemetry.ReceivedAt.IsZero()
}

// Close drops the connection.  A later Send dials again.
func (c *Client) Close() error {
	c.mu.Lock()
	conn, stop := c.conn, c.stopRead
	c.conn, c.stopRead = nil, nil
	c.connected.Store(false)
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	err := conn.Close(websocket.StatusNormalClosure, "client closing")
	stop()
	return err
}

func (c *Client) connectLocked(ctx context.Context) bool {
	if c.conn != nil {
		return true
	}

	dctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, _, err := websocket.Dial(dctx, c.url, nil)
	if err != nil {
		c.logger.WithError(err).Warn("device link connect failed")
		c.connected.Store(false)
		return false
	}

	readCtx, stop := context.WithCancel(context.Background())
	c.conn = conn
	c.stopRead = stop
	c.connected.Store(true)
	go c.readLoop(readCtx, conn)

	c.logger.Info("device link connected")
	return true
}

// dropLocked discards the current handle; it is never reused.
func (c *Client) dropLocked() {
	if c.conn == nil {
		return
	}
	c.stopRead()
	_ = c.conn.CloseNow()
	c.conn, c.stopRead = nil, nil
	c.connected.Store(false)
}

// readLoop drains board frames for one connection.  A read error on the
// connection that is still current demotes the client to disconnected.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.logger.WithError(err).Warn("device link lost")
				c.dropLocked()
			}
			c.mu.Unlock()
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		c.telemetryMu.Lock()
		c.telemetry = Telemetry{Message: string(data), ReceivedAt: time.Now().UTC()}
		c.telemetryMu.Unlock()
	}
}
