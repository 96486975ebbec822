package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"DivDash/pkg/logger"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production test"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"2s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Logger  logger.Config `yaml:"logger"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Backend struct {
		BaseURL  string        `yaml:"base_url" validate:"required,url"`
		APIToken string        `yaml:"api_token"`
		Timeout  time.Duration `yaml:"timeout" default:"15s"`
		Breaker  struct {
			MaxRequests  uint32        `yaml:"max_requests" default:"5"`
			Interval     time.Duration `yaml:"interval" default:"1m"`
			Timeout      time.Duration `yaml:"timeout" default:"30s"`
			FailureRatio float64       `yaml:"failure_ratio" default:"0.6" validate:"gt=0,lte=1"`
			MinRequests  uint32        `yaml:"min_requests" default:"5"`
		} `yaml:"breaker"`
	} `yaml:"backend"`
	Query struct {
		StaleTime  time.Duration `yaml:"stale_time" default:"5m" validate:"gte=0"`
		GCTime     time.Duration `yaml:"gc_time" default:"10m" validate:"gte=0"`
		Retry      int           `yaml:"retry" default:"1" validate:"gte=0,lte=1"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"1s" validate:"gte=0"`
		GCSchedule string        `yaml:"gc_schedule" default:"@every 1m" validate:"required"`
	} `yaml:"query"`
	// Refetch throttles forced refetches per client address.
	Refetch struct {
		Burst     float64       `yaml:"burst" default:"5" validate:"gte=1"`
		PerSecond float64       `yaml:"per_second" default:"0.5" validate:"gt=0"`
		IdleAfter time.Duration `yaml:"idle_after" default:"10m" validate:"gt=0"`
	} `yaml:"refetch"`
	Diagnostics struct {
		Capacity int `yaml:"capacity" default:"256" validate:"min=1"`
	} `yaml:"diagnostics"`
}

// Load reads a YAML configuration file on top of the defaults. An empty path
// yields the defaults alone.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads a .env file if present, then the YAML file, then applies
// DIVDASH_* environment overrides before validating.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func read(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	if path == "" {
		return &c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DIVDASH_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("DIVDASH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DIVDASH_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("DIVDASH_LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	if v := os.Getenv("DIVDASH_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("DIVDASH_API_TOKEN"); v != "" {
		c.Backend.APIToken = v
	}
	if v := os.Getenv("DIVDASH_STALE_TIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DIVDASH_STALE_TIME: %w", err)
		}
		c.Query.StaleTime = d
	}
	if v := os.Getenv("DIVDASH_GC_TIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DIVDASH_GC_TIME: %w", err)
		}
		c.Query.GCTime = d
	}
	return nil
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
