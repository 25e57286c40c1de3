// Package observer is a client for the simulation's read-only observer feed.
package observer

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/farmlife/internal/core/observability/log"
	"github.com/zeusync/farmlife/internal/server"
)

type Config struct {
	// URL is the feed endpoint, e.g. ws://localhost:8080/observe.
	URL            string
	Token          string
	ConnectTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:            "ws://localhost:8080/observe",
		ConnectTimeout: 10 * time.Second,
	}
}

// FrameHandler is called after each frame has been applied to the replica.
type FrameHandler func(f server.Frame, changed bool)

// Client keeps a Replica in sync with one observer connection.
type Client struct {
	cfg     Config
	replica *Replica
	log     log.Log

	mu     sync.Mutex
	conn   *websocket.Conn
	closed atomic.Bool
}

func NewClient(cfg Config, logger log.Log) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConfig().ConnectTimeout
	}
	return &Client{
		cfg:     cfg,
		replica: NewReplica(),
		log:     log.OrNop(logger).With(log.String("component", "observer")),
	}
}

func (c *Client) Replica() *Replica { return c.replica }

// Connect dials the feed.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return ErrAlreadyConnected
	}

	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.cfg.URL, header)
	if err != nil {
		c.log.Error("failed to connect", log.String("url", c.cfg.URL), log.Error(err))
		return err
	}
	c.conn = conn
	c.log.Info("connected", log.String("url", c.cfg.URL))
	return nil
}

// Run applies frames until ctx ends, the server closes the feed, or a frame
// cannot be applied. A normal close by either side returns nil.
func (c *Client) Run(ctx context.Context, handle FrameHandler) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	for {
		var f server.Frame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() != nil || c.closed.Load() ||
				websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		changed, err := c.replica.Apply(f)
		if errors.Is(err, ErrServerRejected) {
			c.log.Warn("server rejected message", log.String("reason", f.Error))
		} else if err != nil {
			return err
		}
		if handle != nil {
			handle(f, changed)
		}
	}
}

// Send writes a raw message to the server. The feed is read-only, so the
// server answers with an error frame; Send exists to exercise that path.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close ends the connection. Multiple calls are safe.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}
