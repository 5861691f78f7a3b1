// Package config provides the configuration system for stockpile's
// tooling. It defines a Settings structure covering the pool itself,
// the bench workload, and observability, with defaults that work
// unmodified for local runs.
//
// Settings load from a YAML file through viper, with environment
// variables (prefix STOCKPILE_) overriding file values, so the same
// file serves dev and CI. Only keys present in the file can be
// overridden this way.
//
// Example usage:
//
//	settings, err := config.Load("poolbench.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := settings.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	errs "github.com/ajitpratap0/stockpile/pkg/errors"
)

// Settings is the root configuration for the poolbench tool.
type Settings struct {
	// Pool configures the object pool under test
	Pool PoolSettings `yaml:"pool" json:"pool" mapstructure:"pool"`

	// Workload configures the synthetic claim/release load
	Workload WorkloadSettings `yaml:"workload" json:"workload" mapstructure:"workload"`

	// Observability configures logging and metrics
	Observability ObservabilitySettings `yaml:"observability" json:"observability" mapstructure:"observability"`
}

// PoolSettings mirrors the pool's recognised construction options.
type PoolSettings struct {
	// Name identifies the pool in logs and metrics
	Name string `yaml:"name" json:"name" mapstructure:"name"`
	// Size is the initial target size
	Size int `yaml:"size" json:"size" mapstructure:"size"`
	// MaxSize bounds dynamic resizing
	MaxSize int `yaml:"max_size" json:"max_size" mapstructure:"max_size"`
	// AllocatorName tags the allocator goroutine's log output
	AllocatorName string `yaml:"allocator_name" json:"allocator_name" mapstructure:"allocator_name"`
	// ExpireLower is the lower bound of the time-spread expiration
	ExpireLower time.Duration `yaml:"expire_lower" json:"expire_lower" mapstructure:"expire_lower"`
	// ExpireUpper is the upper bound of the time-spread expiration
	ExpireUpper time.Duration `yaml:"expire_upper" json:"expire_upper" mapstructure:"expire_upper"`
}

// WorkloadSettings shapes the synthetic load the bench tool applies.
type WorkloadSettings struct {
	// Goroutines is the number of concurrent claimers
	Goroutines int `yaml:"goroutines" json:"goroutines" mapstructure:"goroutines"`
	// Duration is how long the load runs
	Duration time.Duration `yaml:"duration" json:"duration" mapstructure:"duration"`
	// ClaimTimeout is the per-claim deadline
	ClaimTimeout time.Duration `yaml:"claim_timeout" json:"claim_timeout" mapstructure:"claim_timeout"`
	// HoldTime simulates per-claim work on the object
	HoldTime time.Duration `yaml:"hold_time" json:"hold_time" mapstructure:"hold_time"`
	// CreateDelay simulates factory construction cost
	CreateDelay time.Duration `yaml:"create_delay" json:"create_delay" mapstructure:"create_delay"`
	// ResizeTo, when positive, resizes the pool mid-run
	ResizeTo int `yaml:"resize_to" json:"resize_to" mapstructure:"resize_to"`
}

// ObservabilitySettings configures logging and metrics output.
type ObservabilitySettings struct {
	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	// LogEncoding is json or console
	LogEncoding string `yaml:"log_encoding" json:"log_encoding" mapstructure:"log_encoding"`
	// EnableMetrics registers Prometheus collectors for the pool
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics" mapstructure:"enable_metrics"`
}

// NewSettings returns Settings with production-ready defaults.
func NewSettings() *Settings {
	return &Settings{
		Pool: PoolSettings{
			Name:        "poolbench",
			Size:        10,
			MaxSize:     4096,
			ExpireLower: 8 * time.Minute,
			ExpireUpper: 10 * time.Minute,
		},
		Workload: WorkloadSettings{
			Goroutines:   runtime.NumCPU(),
			Duration:     10 * time.Second,
			ClaimTimeout: time.Second,
			HoldTime:     100 * time.Microsecond,
		},
		Observability: ObservabilitySettings{
			LogLevel:      "info",
			LogEncoding:   "console",
			EnableMetrics: true,
		},
	}
}

// Load reads settings from the given YAML file, applying defaults for
// unset fields and STOCKPILE_* environment overrides on top. Environment
// overrides apply only to keys that appear in the file; fields left to
// their defaults are not read from the environment. An empty path
// returns pure defaults.
func Load(path string) (*Settings, error) {
	settings := NewSettings()

	v := viper.New()
	v.SetEnvPrefix("STOCKPILE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.Wrap(err, errs.KindConfig, "failed to read config file")
		}
	}

	if err := v.Unmarshal(settings); err != nil {
		return nil, errs.Wrap(err, errs.KindConfig, "failed to decode config")
	}

	return settings, nil
}

// Validate checks the settings for correctness. Tools should call this
// after loading to catch errors before building the pool.
func (s *Settings) Validate() error {
	if s.Pool.Name == "" {
		return errs.New(errs.KindConfig, "pool name is required")
	}
	if s.Pool.Size < 1 {
		return errs.New(errs.KindConfig, "pool size must be at least 1").
			WithDetail("size", s.Pool.Size)
	}
	if s.Pool.MaxSize < s.Pool.Size {
		return errs.New(errs.KindConfig, "pool max_size must not be below size").
			WithDetail("size", s.Pool.Size).
			WithDetail("max_size", s.Pool.MaxSize)
	}
	if s.Pool.ExpireLower <= 0 || s.Pool.ExpireUpper < s.Pool.ExpireLower {
		return errs.New(errs.KindConfig, "expiration bounds must satisfy 0 < lower <= upper").
			WithDetail("lower", s.Pool.ExpireLower).
			WithDetail("upper", s.Pool.ExpireUpper)
	}
	if s.Workload.Goroutines < 1 {
		return errs.New(errs.KindConfig, "workload goroutines must be at least 1")
	}
	if s.Workload.Duration <= 0 {
		return errs.New(errs.KindConfig, "workload duration must be positive")
	}
	if s.Workload.ClaimTimeout <= 0 {
		return errs.New(errs.KindConfig, "workload claim_timeout must be positive")
	}
	if s.Workload.ResizeTo < 0 || s.Workload.ResizeTo > s.Pool.MaxSize {
		return errs.New(errs.KindConfig, "workload resize_to must be within [0, max_size]").
			WithDetail("resize_to", s.Workload.ResizeTo)
	}
	switch s.Observability.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errs.New(errs.KindConfig, "log_level must be one of debug, info, warn, error").
			WithDetail("log_level", s.Observability.LogLevel)
	}
	switch s.Observability.LogEncoding {
	case "json", "console":
	default:
		return errs.New(errs.KindConfig, "log_encoding must be json or console").
			WithDetail("log_encoding", s.Observability.LogEncoding)
	}
	return nil
}
