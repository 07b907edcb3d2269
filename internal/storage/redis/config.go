package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// Unit lock settings. The lock expires after UnitLockTTL so a crashed
	// writer cannot block ingestion forever.
	UnitLockTTL  time.Duration
	UnitLockWait time.Duration
	UnitLockPoll time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		UnitLockTTL:  30 * time.Second,
		UnitLockWait: 10 * time.Second,
		UnitLockPoll: 50 * time.Millisecond,
	}
}
