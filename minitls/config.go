package minitls

import (
	"fmt"
	"math"
)

// DynamicRecordSizingDisabled as BytesOutThreshold keeps a connection at
// DefaultFragmentLength for its whole lifetime.
const DynamicRecordSizingDisabled = math.MaxUint32

// Config controls dynamic record sizing for a connection. NewConn copies it,
// so later changes to a Config do not affect established connections.
type Config struct {
	// BytesOutThreshold is the number of application bytes sent at the
	// default fragment length before records grow to MaxFragmentSize.
	// Zero grows on the first Send.
	BytesOutThreshold uint32

	// IdleMillisThreshold is how long a connection at MaxFragmentSize may
	// stay idle before records shrink back to the default fragment length.
	// Zero shrinks on every Send.
	IdleMillisThreshold uint32

	// MaxFragmentSize caps the plaintext carried by one record.
	MaxFragmentSize uint16
}

// DefaultConfig returns the configuration used when NewConn is given nil.
// Dynamic record sizing is off.
func DefaultConfig() *Config {
	return &Config{
		BytesOutThreshold:   DynamicRecordSizingDisabled,
		IdleMillisThreshold: 1000,
		MaxFragmentSize:     MaxFragmentLength,
	}
}

// Validate checks the configuration against protocol limits.
func (c *Config) Validate() error {
	if c.MaxFragmentSize == 0 || c.MaxFragmentSize > MaxFragmentLength {
		return fmt.Errorf("max fragment size %d out of range [1, %d]: %w",
			c.MaxFragmentSize, MaxFragmentLength, ErrRecordTooLarge)
	}
	return nil
}

func (c *Config) growthEnabled() bool {
	return c.BytesOutThreshold != DynamicRecordSizingDisabled
}
