// Package valkey holds the shared-state pieces used when several scheduler
// instances run against the same database: the sweep lease and the
// websocket relay channel.
package valkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	valkeylib "github.com/valkey-io/valkey-go"
)

const defaultDialTimeout = 5 * time.Second

type Config struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
	// DialTimeout bounds the startup ping. Zero means five seconds.
	DialTimeout time.Duration
}

// Client is a valkey-go client plus the key namespace of this deployment.
type Client struct {
	inner  valkeylib.Client
	prefix string
}

// NewClient connects and pings once so a misconfigured address fails at
// startup rather than on the first sweep.
func NewClient(cfg Config) (*Client, error) {
	inner, err := valkeylib.NewClient(valkeylib.ClientOption{
		InitAddress: []string{cfg.Address},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("valkey %s: %w", cfg.Address, err)
	}

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := inner.Do(ctx, inner.B().Ping().Build()).Error(); err != nil {
		inner.Close()
		return nil, fmt.Errorf("valkey %s unreachable after %s: %w", cfg.Address, timeout, err)
	}

	return &Client{inner: inner, prefix: strings.TrimSuffix(cfg.KeyPrefix, ":")}, nil
}

func (c *Client) Inner() valkeylib.Client { return c.inner }

func (c *Client) Close() {
	if c.inner != nil {
		c.inner.Close()
	}
}

// Key joins parts under the deployment prefix: Key("lease", "sweep") gives
// "click:lease:sweep".
func (c *Client) Key(parts ...string) string {
	if c.prefix == "" {
		return strings.Join(parts, ":")
	}
	return strings.Join(append([]string{c.prefix}, parts...), ":")
}

// IsNil reports a valkey nil reply, e.g. a SET NX that lost the race.
func IsNil(err error) bool {
	return valkeylib.IsValkeyNil(err)
}
