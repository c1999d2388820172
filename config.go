package groupstream

import (
	"fmt"

	"github.com/arloliu/groupstream/types"
)

// DefaultPrefetch is the initial upstream credit used when Config.Prefetch
// is left zero. It is a moderate buffer: large enough to keep values flowing
// into already-open groups while the group-level consumer is slow, small
// enough to bound in-flight memory.
const DefaultPrefetch int64 = 256

// Config is the configuration for a group-by operator.
type Config struct {
	// Prefetch is the credit requested from upstream on subscription and
	// replenished as elements are consumed. Upstream demand is driven
	// purely by element consumption, never by the group-level consumer's
	// own demand for new groups.
	//
	// Set to Unbounded to disable backpressure toward upstream: the very
	// first request becomes the maximum representable demand.
	//
	// Default: 256.
	Prefetch int64 `yaml:"prefetch"`

	// GroupBuffer is the capacity of each per-key value queue. 0 means the
	// queue grows without bound, favoring liveness under slow group
	// consumers over strict memory bounds. A positive bound turns queue
	// exhaustion into a fatal overflow that terminates the whole operator.
	//
	// Default: 0 (unbounded).
	GroupBuffer int `yaml:"groupBuffer"`

	// NewGroupBuffer is the capacity of the queue holding newly discovered
	// groups not yet delivered to the group-level consumer. Exceeding it is
	// a fatal overflow: it means more distinct keys arrived within one
	// prefetch window than the consumer is prepared to accept.
	//
	// Default: Prefetch (or 256 when Prefetch is unbounded).
	NewGroupBuffer int `yaml:"newGroupBuffer"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		Prefetch:       DefaultPrefetch,
		GroupBuffer:    0,
		NewGroupBuffer: int(DefaultPrefetch),
	}
}

// SetDefaults fills in missing configuration values with defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Prefetch == 0 {
		cfg.Prefetch = defaults.Prefetch
	}
	if cfg.NewGroupBuffer == 0 {
		if cfg.Prefetch == types.Unbounded {
			cfg.NewGroupBuffer = defaults.NewGroupBuffer
		} else {
			cfg.NewGroupBuffer = int(cfg.Prefetch)
		}
	}
	// Note: GroupBuffer of 0 is valid (unbounded growth), so we don't apply a default
}

// Validate checks configuration constraints and returns an error for invalid values.
//
// Rules:
//   - Prefetch > 0 (Unbounded is valid)
//   - GroupBuffer >= 0
//   - NewGroupBuffer > 0 (the new-group queue is always bounded)
//
// Returns:
//   - error: Validation error wrapping ErrInvalidConfig, nil if valid
func (cfg *Config) Validate() error {
	if cfg.Prefetch <= 0 {
		return fmt.Errorf("%w: Prefetch must be positive, got %d", ErrInvalidConfig, cfg.Prefetch)
	}

	if cfg.GroupBuffer < 0 {
		return fmt.Errorf("%w: GroupBuffer must be >= 0, got %d", ErrInvalidConfig, cfg.GroupBuffer)
	}

	if cfg.NewGroupBuffer <= 0 {
		return fmt.Errorf("%w: NewGroupBuffer must be positive, got %d", ErrInvalidConfig, cfg.NewGroupBuffer)
	}

	return nil
}

// TestConfig returns a configuration with tiny buffers for deterministic
// overflow and backpressure tests. Use DefaultConfig for production.
//
// Returns:
//   - Config: Configuration with small buffers
func TestConfig() Config {
	return Config{
		Prefetch:       4,
		GroupBuffer:    8,
		NewGroupBuffer: 4,
	}
}
