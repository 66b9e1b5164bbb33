// Package wsconn provides a WebSocket client with automatic reconnection.
package wsconn

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/routefi/exchange-router/internal/apperror"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	ReadLimit      int64
	// OnReconnect, if set, runs after a dropped connection has been
	// re-established. The server may have state the client missed.
	OnReconnect func()
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0, // infinite
		ReadLimit:      1 << 20,
	}
}

// Client is a WebSocket client that keeps a connection alive and surfaces
// incoming messages on a channel.
type Client struct {
	config   Config
	state    State
	stateMu  sync.RWMutex
	conn     *websocket.Conn
	connMu   sync.Mutex
	messages chan []byte
	done     chan struct{}
	closeOnce sync.Once
}

// New creates a new WebSocket client.
func New(config Config) *Client {
	return &Client{
		config:   config,
		state:    StateDisconnected,
		messages: make(chan []byte, 100),
		done:     make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and starts the read loop.
// The read loop reconnects with exponential backoff until Close is called
// or the reconnect budget is exhausted.
func (c *Client) Connect(ctx context.Context) error {
	c.setState(StateConnecting)

	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected)
		return apperror.External(apperror.CodeWebSocketConnectionError, c.config.URL, err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	c.setState(StateConnected)

	go c.readLoop(ctx)

	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, c.config.URL, nil)
	if err != nil {
		return nil, err
	}
	if c.config.ReadLimit > 0 {
		conn.SetReadLimit(c.config.ReadLimit)
	}
	return conn, nil
}

func (c *Client) readLoop(ctx context.Context) {
	backoff := c.config.InitialBackoff
	reconnects := 0

	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn != nil {
			_, data, err := conn.Read(ctx)
			if err == nil {
				backoff = c.config.InitialBackoff
				select {
				case c.messages <- data:
				case <-c.done:
					return
				case <-ctx.Done():
					return
				}
				continue
			}

			conn.Close(websocket.StatusAbnormalClosure, "read failed")
		}

		// Connection lost; reconnect with backoff.
		reconnects++
		if c.config.MaxReconnects > 0 && reconnects > c.config.MaxReconnects {
			c.setState(StateDisconnected)
			return
		}

		c.setState(StateReconnecting)

		select {
		case <-time.After(backoff):
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}

		backoff *= 2
		if backoff > c.config.MaxBackoff {
			backoff = c.config.MaxBackoff
		}

		newConn, err := c.dial(ctx)
		if err != nil {
			continue
		}

		c.connMu.Lock()
		c.conn = newConn
		c.connMu.Unlock()
		c.setState(StateConnected)

		if c.config.OnReconnect != nil {
			go c.config.OnReconnect()
		}
	}
}

// Send sends a text message through the WebSocket.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()

	if conn == nil {
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.config.URL))
	}

	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		return apperror.External(apperror.CodeWebSocketConnectionError, c.config.URL, err)
	}
	return nil
}

// Messages returns the channel of incoming messages.
func (c *Client) Messages() <-chan []byte {
	return c.messages
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Close terminates the connection and stops the read loop.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)

		c.connMu.Lock()
		if c.conn != nil {
			c.conn.Close(websocket.StatusNormalClosure, "client closed")
		}
		c.connMu.Unlock()

		c.setState(StateDisconnected)
	})
}

func (c *Client) setState(s State) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}
