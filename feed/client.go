package feed

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/zxbridge/zxbridge/hidkey"
)

// ClientConfig controls dial and write behavior for a feed client.
type ClientConfig struct {
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	Key          string
}

func defaultClientConfig() ClientConfig {
	return ClientConfig{
		DialTimeout:  3 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

// Client streams keyboard snapshots to a bridge's feed server.
type Client struct {
	conn net.Conn
	cfg  ClientConfig
	mu   sync.Mutex
}

// Dial connects to a feed server and, when a key is configured, runs
// the authentication handshake.
func Dial(ctx context.Context, addr string, cfg *ClientConfig) (*Client, error) {
	c := defaultClientConfig()
	if cfg != nil {
		if cfg.DialTimeout > 0 {
			c.DialTimeout = cfg.DialTimeout
		}
		if cfg.WriteTimeout > 0 {
			c.WriteTimeout = cfg.WriteTimeout
		}
		c.Key = cfg.Key
	}

	d := &net.Dialer{Timeout: c.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}

	if c.Key != "" {
		key, err := DeriveKey(c.Key)
		if err != nil {
			conn.Close()
			return nil, err
		}
		if c.WriteTimeout > 0 {
			_ = conn.SetDeadline(time.Now().Add(c.WriteTimeout))
		}
		if err := clientHandshake(conn, key); err != nil {
			conn.Close()
			return nil, err
		}
		_ = conn.SetDeadline(time.Time{})
	}

	return &Client{conn: conn, cfg: c}, nil
}

// Send delivers one snapshot frame. Frames are small enough that a
// partial write only happens on a dying connection, which the write
// deadline turns into an error.
func (c *Client) Send(snap hidkey.Snapshot) error {
	data, err := snap.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("send snapshot: %w", err)
	}
	return nil
}

// Close shuts the feed connection down.
func (c *Client) Close() error {
	return c.conn.Close()
}
