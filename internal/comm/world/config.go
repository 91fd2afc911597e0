package world

import (
	"fmt"
	"os"
	"time"
)

// Default handshake timings; overridable from launcher configuration.
const (
	DefaultDialTimeout = 10 * time.Second
	DefaultJoinTimeout = 30 * time.Second
)

// Config describes one process's membership in a world. Rank 0 binds the
// rendezvous address and hosts the hub; every other rank dials it.
type Config struct {
	Size int
	Rank int

	// Addr is the rendezvous host:port. Required when Size > 1.
	Addr string

	DialTimeout time.Duration
	JoinTimeout time.Duration

	// Exit replaces os.Exit when a world is aborted. Tests inject this.
	Exit func(int)
}

func (c Config) withDefaults() Config {
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.JoinTimeout <= 0 {
		c.JoinTimeout = DefaultJoinTimeout
	}
	if c.Exit == nil {
		c.Exit = os.Exit
	}
	return c
}

func (c Config) validate() error {
	if c.Size < 1 {
		return fmt.Errorf("world size %d is not positive", c.Size)
	}
	if c.Rank < 0 || c.Rank >= c.Size {
		return fmt.Errorf("rank %d outside world of size %d", c.Rank, c.Size)
	}
	if c.Size > 1 && c.Addr == "" {
		return fmt.Errorf("world of size %d has no rendezvous address", c.Size)
	}
	return nil
}
