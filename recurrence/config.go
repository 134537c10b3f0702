package recurrence

import (
	"time"

	"github.com/cyp0633/librecur/rrule"
)

// EngineConfig holds configuration options for the recurrence engine
type EngineConfig struct {
	// Cache configuration
	CacheEnabled bool
	CacheConfig  CacheConfig

	// Expansion limits
	MaxOccurrences int           // Cap applied when ExpansionOptions.MaxOccurrences is 0
	MaxTimeSpan    time.Duration // Cap applied when ExpansionOptions.MaxTimeSpan is 0 (0 = unlimited)
	MaxSkips       int           // Consecutive excluded candidates tolerated per iteration
}

// DefaultEngineConfig provides sensible defaults for production use
var DefaultEngineConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig:  DefaultCacheConfig,

	MaxOccurrences: rrule.DefaultLimit,
	MaxSkips:       rrule.DefaultMaxSkips,
}

// HighPerformanceConfig is optimized for high-traffic scenarios
var HighPerformanceConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             30 * time.Minute, // Longer cache TTL
		MaxEntries:      5000,             // More cache entries
		CleanupInterval: 10 * time.Minute, // Less frequent cleanup
	},

	MaxOccurrences: 200,
	MaxTimeSpan:    365 * 24 * time.Hour,
	MaxSkips:       10_000,
}

// LowMemoryConfig is optimized for memory-constrained environments
var LowMemoryConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             5 * time.Minute, // Shorter cache TTL
		MaxEntries:      100,             // Fewer cache entries
		CleanupInterval: 2 * time.Minute, // More frequent cleanup
	},

	MaxOccurrences: 100,
	MaxTimeSpan:    180 * 24 * time.Hour,
	MaxSkips:       rrule.DefaultMaxSkips,
}

// DisabledCacheConfig turns off caching entirely
var DisabledCacheConfig = EngineConfig{
	CacheEnabled: false,
	CacheConfig:  CacheConfig{}, // Not used

	MaxOccurrences: rrule.DefaultLimit,
	MaxSkips:       rrule.DefaultMaxSkips,
}
