package tablesync

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"
)

// Config is the run configuration for one sync: what to match on, how to
// chunk, and how hard to lean on the remote API.
type Config struct {
	Mode            SyncMode
	KeyColumn       string
	BatchSize       int           // rows per write chunk
	ColumnBatchSize int           // columns per grid band
	InterCallDelay  time.Duration // pause after each successful chunk
	Columns         []string      // selective sync; empty = all columns

	Retry     RetryConfig
	RateLimit LimitConfig
}

// DefaultConfig mirrors the defaults of the YAML surface.
func DefaultConfig() *Config {
	return &Config{
		Mode:            SyncFull,
		BatchSize:       500,
		ColumnBatchSize: 80,
		InterCallDelay:  50 * time.Millisecond,
		Retry: RetryConfig{
			Kind:         RetryExponential,
			InitialDelay: 500 * time.Millisecond,
			MaxRetries:   3,
			Multiplier:   2,
		},
		RateLimit: LimitConfig{
			Kind:  LimitFixedWait,
			Delay: 100 * time.Millisecond,
		},
	}
}

// Validate rejects configurations the engine would fail on later. It runs
// before any remote call.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return NewConfigError("batch_size", "must be positive")
	}
	if c.ColumnBatchSize <= 0 {
		return NewConfigError("column_batch_size", "must be positive")
	}
	if c.Mode == SyncOverwrite && c.KeyColumn == "" {
		return NewConfigError("key_column", "overwrite mode requires a key column")
	}
	switch c.Mode {
	case SyncFull, SyncIncremental, SyncOverwrite, SyncClone:
	default:
		return NewConfigError("sync_mode", fmt.Sprintf("unknown mode %d", c.Mode))
	}
	return nil
}

// Controller builds the run's request controller from the retry and
// rate-limit settings.
func (c *Config) Controller(logger zerolog.Logger) (*RequestController, error) {
	policy, err := NewRetryPolicy(c.Retry)
	if err != nil {
		return nil, err
	}
	limiter, err := NewLimiter(c.RateLimit)
	if err != nil {
		return nil, err
	}
	return NewRequestController(
		WithRetry(policy),
		WithLimiter(limiter),
		WithLogger(logger),
	), nil
}

func (c *Config) columnFilter() ColumnFilter {
	return ColumnFilter{Columns: c.Columns, KeyColumn: c.KeyColumn, IncludeKey: true}
}

// fileConfig is the YAML surface of Config. Delays and windows are seconds
// as floats, matching the task files users already write.
type fileConfig struct {
	SyncMode        string   `yaml:"sync_mode"`
	KeyColumn       string   `yaml:"key_column"`
	BatchSize       int      `yaml:"batch_size"`
	ColumnBatchSize int      `yaml:"column_batch_size"`
	RateLimitDelay  *float64 `yaml:"rate_limit_delay"`
	Columns         []string `yaml:"columns"`

	Retry struct {
		Strategy     string   `yaml:"strategy"`
		InitialDelay *float64 `yaml:"initial_delay"`
		MaxRetries   *int     `yaml:"max_retries"`
		MaxWaitTime  *float64 `yaml:"max_wait_time"`
		Multiplier   *float64 `yaml:"multiplier"`
		Increment    *float64 `yaml:"increment"`
	} `yaml:"retry"`

	RateLimit struct {
		Strategy    string   `yaml:"strategy"`
		Delay       *float64 `yaml:"delay"`
		WindowSize  *float64 `yaml:"window_size"`
		MaxRequests *int     `yaml:"max_requests"`
	} `yaml:"rate_limit"`
}

// LoadConfig reads a YAML task file and resolves it against the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig resolves YAML data against the defaults.
func ParseConfig(data []byte) (*Config, error) {
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg := DefaultConfig()

	if file.SyncMode != "" {
		mode, err := ParseSyncMode(file.SyncMode)
		if err != nil {
			return nil, err
		}
		cfg.Mode = mode
	}
	cfg.KeyColumn = file.KeyColumn
	cfg.Columns = file.Columns
	if file.BatchSize > 0 {
		cfg.BatchSize = file.BatchSize
	}
	if file.ColumnBatchSize > 0 {
		cfg.ColumnBatchSize = file.ColumnBatchSize
	}
	if file.RateLimitDelay != nil {
		cfg.InterCallDelay = seconds(*file.RateLimitDelay)
	}

	if file.Retry.Strategy != "" {
		kind, err := ParseRetryKind(file.Retry.Strategy)
		if err != nil {
			return nil, err
		}
		cfg.Retry.Kind = kind
	}
	if file.Retry.InitialDelay != nil {
		cfg.Retry.InitialDelay = seconds(*file.Retry.InitialDelay)
	}
	if file.Retry.MaxRetries != nil {
		cfg.Retry.MaxRetries = *file.Retry.MaxRetries
	}
	if file.Retry.MaxWaitTime != nil {
		cfg.Retry.MaxWait = seconds(*file.Retry.MaxWaitTime)
	}
	if file.Retry.Multiplier != nil {
		cfg.Retry.Multiplier = *file.Retry.Multiplier
	}
	if file.Retry.Increment != nil {
		cfg.Retry.Increment = seconds(*file.Retry.Increment)
	}

	if file.RateLimit.Strategy != "" {
		kind, err := ParseLimitKind(file.RateLimit.Strategy)
		if err != nil {
			return nil, err
		}
		cfg.RateLimit.Kind = kind
	}
	if file.RateLimit.Delay != nil {
		cfg.RateLimit.Delay = seconds(*file.RateLimit.Delay)
	}
	if file.RateLimit.WindowSize != nil {
		cfg.RateLimit.Window = seconds(*file.RateLimit.WindowSize)
	}
	if file.RateLimit.MaxRequests != nil {
		cfg.RateLimit.MaxRequests = *file.RateLimit.MaxRequests
	}

	if cfg.RateLimit.Kind != LimitFixedWait {
		if cfg.RateLimit.Window == 0 {
			cfg.RateLimit.Window = time.Second
		}
		if cfg.RateLimit.MaxRequests == 0 {
			cfg.RateLimit.MaxRequests = 10
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// seconds converts a float seconds value from the YAML surface into a
// duration without losing sub-second precision.
func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
