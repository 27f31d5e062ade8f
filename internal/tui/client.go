package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/doomscroll/doomscroll/internal/logging"
	"github.com/doomscroll/doomscroll/internal/ws"
	"github.com/doomscroll/doomscroll/pkg/models"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	pongTimeout        = 60 * time.Second
	pingInterval       = 30 * time.Second
)

// Client follows the daemon's reading stream over a websocket.
type Client struct {
	url    string
	logger *slog.Logger

	mu       sync.Mutex
	writeMu  sync.Mutex
	conn     *websocket.Conn
	stopPing context.CancelFunc
}

// NewClient builds a client for ws://addr/ws. A non-empty token is sent as
// the token query parameter.
func NewClient(addr, token string, logger *slog.Logger) *Client {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	if token != "" {
		u.RawQuery = url.Values{"token": {token}}.Encode()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{url: u.String(), logger: logger}
}

// URL returns the websocket endpoint the client dials.
func (c *Client) URL() string {
	return c.url
}

// ConnectedMsg is sent when the websocket connects.
type ConnectedMsg struct{}

// DisconnectedMsg is sent when the connection drops.
type DisconnectedMsg struct{ Err error }

// ReadingMsg delivers a snapshot or a fresh reading.
type ReadingMsg struct {
	Type    ws.MessageType
	Reading models.Reading
}

// Listen dials until connected or ctx ends, backing off between attempts.
func (c *Client) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		delay := reconnectBaseDelay
		for {
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
			if err == nil {
				c.attach(ctx, conn)
				return ConnectedMsg{}
			}
			c.logger.Debug("ws dial failed", "url", c.url, "error", err, "retry", delay)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			delay = min(delay*2, reconnectMaxDelay)
		}
	}
}

func (c *Client) attach(ctx context.Context, conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopPing != nil {
		c.stopPing()
	}
	pingCtx, cancel := context.WithCancel(ctx)
	c.conn = conn
	c.stopPing = cancel
	go c.pingLoop(pingCtx, conn)
}

// ReadLoop returns the next reading from the connection. It should be
// reissued after every ReadingMsg.
func (c *Client) ReadLoop() tea.Cmd {
	return func() tea.Msg {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return DisconnectedMsg{Err: fmt.Errorf("no connection")}
		}

		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongTimeout))
		})
		_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				c.drop(conn)
				return DisconnectedMsg{Err: err}
			}

			var msg ws.Message
			if err := json.Unmarshal(data, &msg); err != nil {
				c.logger.Debug("ws frame skipped", "error", err)
				continue
			}
			switch msg.Type {
			case ws.MsgSnapshot, ws.MsgReading:
				return ReadingMsg{Type: msg.Type, Reading: msg.Payload}
			}
		}
	}
}

func (c *Client) drop(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		if c.stopPing != nil {
			c.stopPing()
			c.stopPing = nil
		}
	}
	c.mu.Unlock()
	conn.Close()
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Close drops the current connection, if any.
func (c *Client) Close() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		c.drop(conn)
	}
}
