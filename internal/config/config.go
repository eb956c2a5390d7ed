// Package config loads service configuration from the environment. A local
// .env file is honored when present so dev setups need no exported vars.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/KirkDiggler/expedition-api/internal/errors"
)

// Config holds all service settings
type Config struct {
	// GRPCPort is the server role's listen port
	GRPCPort int `env:"GRPC_PORT" envDefault:"50051"`

	// RedisAddr is the shared store and queue endpoint
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	// JobTimeout bounds one simulation job; a stuck job is killed at this
	// deadline
	JobTimeout time.Duration `env:"JOB_TIMEOUT" envDefault:"5m"`

	// EventCadence spaces narrative event delivery times
	EventCadence time.Duration `env:"EVENT_CADENCE" envDefault:"5s"`

	// ScarcityEnabled turns on scarcity-weighted loot draws
	ScarcityEnabled bool `env:"SCARCITY_ENABLED" envDefault:"true"`

	// SweepInterval paces the worker's cleanup sweeps (delivered flags,
	// stale locks)
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`

	// LockTTLMultiplier scales the hero lock TTL relative to JobTimeout;
	// must leave a safety margin above 1
	LockTTLMultiplier int `env:"LOCK_TTL_MULTIPLIER" envDefault:"3"`
}

// Load reads configuration from .env (if present) and the environment
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would undermine the concurrency model
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.GRPCPort <= 0 || c.GRPCPort > 65535 {
		vb.Fieldf("GRPCPort", "must be a valid port, got %d", c.GRPCPort)
	}
	if c.RedisAddr == "" {
		vb.RequiredField("RedisAddr")
	}
	if c.JobTimeout <= 0 {
		vb.Field("JobTimeout", "must be positive")
	}
	if c.LockTTLMultiplier < 2 {
		vb.Field("LockTTLMultiplier", "must be at least 2 so locks outlive stuck jobs")
	}

	return vb.Build()
}

// LockTTL is how long an acquired hero lock survives a crashed worker
func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLMultiplier) * c.JobTimeout
}
