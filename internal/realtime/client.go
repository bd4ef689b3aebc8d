package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"televault/internal/domain"
	"televault/internal/domain/events"
)

// Status is the connection state of a Client.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

const (
	maxReconnectAttempts = 5
	reconnectInterval    = 3 * time.Second
)

// Client maintains one WebSocket subscription for an account and feeds every
// decoded event into the view. A dropped connection is retried on a fixed
// interval up to maxReconnectAttempts; a deliberate Close is never retried.
type Client struct {
	serverURL string
	accountID string
	view      *View
	logger    *slog.Logger
	dialer    *websocket.Dialer

	mu     sync.Mutex
	status Status
	ws     *websocket.Conn
	closed bool
	done   chan struct{}
}

// NewClient creates a client for serverURL (e.g. "ws://localhost:8080"). The
// view may be nil when the caller only wants the raw stream via OnEvent.
func NewClient(serverURL, accountID string, view *View, logger *slog.Logger) *Client {
	return &Client{
		serverURL: serverURL,
		accountID: accountID,
		view:      view,
		logger:    logger,
		dialer:    websocket.DefaultDialer,
		status:    StatusDisconnected,
		done:      make(chan struct{}),
	}
}

// Status returns the current connection state.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Client) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

// Run connects and pumps events until the context is cancelled, Close is
// called, or the retry budget is spent. It returns nil after a clean
// shutdown and the last dial or read error otherwise.
func (c *Client) Run(ctx context.Context) error {
	attempts := 0

	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil
		}
		c.status = StatusConnecting
		c.mu.Unlock()

		ws, err := c.dial(ctx)
		if err != nil {
			attempts++
			c.logger.Warn("dial failed",
				"account_id", c.accountID,
				"attempt", attempts,
				"error", err,
			)
			if attempts >= maxReconnectAttempts {
				c.setStatus(StatusError)
				return fmt.Errorf("connect after %d attempts (%v): %w", attempts, err, domain.ErrTransportUnavailable)
			}
			if err := c.wait(ctx); err != nil {
				c.setStatus(StatusDisconnected)
				return err
			}
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			ws.Close()
			return nil
		}
		c.ws = ws
		c.status = StatusConnected
		c.mu.Unlock()

		attempts = 0
		c.logger.Info("connected", "account_id", c.accountID)

		err = c.readLoop(ctx, ws)

		c.mu.Lock()
		c.ws = nil
		closed := c.closed
		c.mu.Unlock()
		ws.Close()

		if closed || ctx.Err() != nil {
			c.setStatus(StatusDisconnected)
			return nil
		}
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			// The server ended the session deliberately; do not retry.
			c.setStatus(StatusDisconnected)
			return nil
		}

		attempts++
		c.logger.Warn("connection lost",
			"account_id", c.accountID,
			"attempt", attempts,
			"error", err,
		)
		if attempts >= maxReconnectAttempts {
			c.setStatus(StatusError)
			return fmt.Errorf("connection lost after %d attempts (%v): %w", attempts, err, domain.ErrTransportUnavailable)
		}
		if err := c.wait(ctx); err != nil {
			c.setStatus(StatusDisconnected)
			return err
		}
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"account_id": {c.accountID}}.Encode()

	ws, resp, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", u.String(), err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}
	return ws, nil
}

func (c *Client) readLoop(ctx context.Context, ws *websocket.Conn) error {
	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			return err
		}

		var ev events.Event
		if err := json.Unmarshal(message, &ev); err != nil {
			c.logger.Warn("malformed event", "error", err)
			continue
		}

		if c.view != nil {
			c.view.Apply(ctx, ev)
		}
	}
}

// wait sleeps out the reconnect interval, honoring cancellation and Close.
func (c *Client) wait(ctx context.Context) error {
	timer := time.NewTimer(reconnectInterval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return nil
	}
}

// Close ends the session with a normal close frame. Run returns without
// reconnecting.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	ws := c.ws
	close(c.done)
	c.mu.Unlock()

	if ws != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		ws.WriteMessage(websocket.CloseMessage, msg)
		return ws.Close()
	}
	return nil
}
