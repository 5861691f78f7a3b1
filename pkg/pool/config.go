package pool

import (
	"time"

	"go.uber.org/zap"

	errs "github.com/ajitpratap0/stockpile/pkg/errors"
	"github.com/ajitpratap0/stockpile/pkg/expire"
	"github.com/ajitpratap0/stockpile/pkg/metrics"
)

// Defaults applied by Config.withDefaults.
const (
	// DefaultSize is the initial target size when none is configured.
	DefaultSize = 10
	// DefaultMaxSize caps how far SetTargetSize may grow a pool when no
	// explicit maximum is configured. It also sizes the live channel.
	DefaultMaxSize = 4096

	defaultSpreadLower = 8 * time.Minute
	defaultSpreadUpper = 10 * time.Minute
)

// Config carries everything needed to build a pool. Factory is the only
// required field; the zero value of every other field selects a sensible
// default.
type Config[T any] struct {
	// Name identifies the pool in logs and metrics.
	Name string

	// Size is the initial target size. Zero selects DefaultSize;
	// negative values are rejected.
	Size int

	// MaxSize bounds SetTargetSize and sizes the live channel. Zero
	// selects the larger of DefaultMaxSize and Size.
	MaxSize int

	// Factory creates and destroys pooled objects. Required.
	Factory Factory[T]

	// Expiration decides when objects reach end-of-life. Nil selects a
	// time-spread policy over 8 to 10 minutes.
	Expiration expire.Expiration

	// AllocatorName is a cosmetic tag attached to the allocator
	// goroutine's log entries.
	AllocatorName string

	// Logger receives the pool's structured log output. Nil disables
	// logging.
	Logger *zap.Logger

	// Metrics receives the pool's Prometheus metrics. Nil disables them.
	Metrics *metrics.Collector
}

// withDefaults validates the configuration and fills in defaults,
// returning the effective configuration. Nonsense (a missing factory, a
// negative size) is a structural failure at construction time.
func (c Config[T]) withDefaults() (Config[T], error) {
	if c.Factory == nil {
		return c, errs.New(errs.KindStructural, "pool config requires a factory")
	}
	if c.Size < 0 {
		return c, errs.New(errs.KindStructural, "pool size must be at least 1").
			WithDetail("size", c.Size)
	}
	if c.Size == 0 {
		c.Size = DefaultSize
	}
	if c.MaxSize == 0 {
		c.MaxSize = DefaultMaxSize
		if c.Size > c.MaxSize {
			c.MaxSize = c.Size
		}
	}
	if c.MaxSize < c.Size {
		return c, errs.New(errs.KindStructural, "pool max size must not be below the initial size").
			WithDetail("size", c.Size).
			WithDetail("max_size", c.MaxSize)
	}
	if c.Expiration == nil {
		exp, err := expire.TimeSpread(defaultSpreadLower, defaultSpreadUpper)
		if err != nil {
			return c, err
		}
		c.Expiration = exp
	}
	if c.Name == "" {
		c.Name = "pool"
	}
	if c.AllocatorName == "" {
		c.AllocatorName = c.Name + "-allocator"
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c, nil
}
