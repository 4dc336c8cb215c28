package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

// ErrNotConnected is returned once the client has been closed
var ErrNotConnected = errors.New("not connected")

// Client wraps a NATS connection for publishing JSON payloads
type Client struct {
	conn       *nats.Conn
	mu         sync.Mutex
	reconnects atomic.Int64
	connected  atomic.Bool
}

// Config holds NATS configuration
type Config struct {
	URL            string
	Name           string
	ReconnectWait  time.Duration
	MaxReconnects  int
	ConnectTimeout time.Duration
}

// DefaultConfig returns a Config for url with conservative reconnect settings
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		Name:           "paymentsengine",
		ReconnectWait:  time.Second,
		MaxReconnects:  5,
		ConnectTimeout: 5 * time.Second,
	}
}

func (cfg Config) options(c *Client) []nats.Option {
	opts := []nats.Option{
		nats.ReconnectHandler(func(*nats.Conn) {
			c.reconnects.Add(1)
			c.connected.Store(true)
		}),
		nats.DisconnectErrHandler(func(*nats.Conn, error) {
			c.connected.Store(false)
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			c.connected.Store(false)
		}),
	}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	if cfg.ReconnectWait > 0 {
		opts = append(opts, nats.ReconnectWait(cfg.ReconnectWait))
	}
	if cfg.MaxReconnects != 0 {
		opts = append(opts, nats.MaxReconnects(cfg.MaxReconnects))
	}
	if cfg.ConnectTimeout > 0 {
		opts = append(opts, nats.Timeout(cfg.ConnectTimeout))
	}
	return opts
}

// NewClient connects to the server at cfg.URL
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url is required")
	}

	client := &Client{}
	conn, err := nats.Connect(cfg.URL, cfg.options(client)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	client.conn = conn
	client.connected.Store(true)
	return client, nil
}

// Publish marshals data as JSON and publishes it on subject
func (c *Client) Publish(ctx context.Context, subject string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	if err := conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Flush waits until the server has processed everything published so far
func (c *Client) Flush(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
	}
	if err := conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	return c.connected.Load() && conn != nil && conn.IsConnected()
}

// Reconnects returns number of reconnections
func (c *Client) Reconnects() int {
	return int(c.reconnects.Load())
}

// Close flushes pending messages and closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	err := c.conn.Drain()
	if err != nil {
		c.conn.Close()
	}
	c.conn = nil
	c.connected.Store(false)
	return err
}
