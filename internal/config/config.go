// Package config handles runtime settings for the fieldops server:
// defaults, environment overlay, and command-line flags, in that order.
package config

import (
	"encoding/hex"
	"flag"
	"os"
	"time"

	"github.com/go-playground/errors/v5"
	"github.com/gorilla/securecookie"
)

// Environment selects the hardening profile the server runs under.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

const (
	defaultAddr          = ":8080"
	defaultSessionTTL    = 24 * time.Hour
	defaultRememberMeTTL = 30 * 24 * time.Hour
	defaultSweepInterval = time.Hour
)

// Config holds runtime settings for the fieldops server.
//
// An empty DatabaseDSN selects the in-memory stores; anything else is a
// PostgreSQL DSN (pgx). The session keys are hex-encoded securecookie keys;
// they must be stable across restarts for sessions to survive them, and
// production refuses to start without them.
type Config struct {
	Addr            string
	DatabaseDSN     string
	SessionHashKey  string
	SessionBlockKey string
	Environment     Environment
	SecureCookies   bool
	SessionTTL      time.Duration
	RememberMeTTL   time.Duration
	SweepInterval   time.Duration
}

func defaults() *Config {
	return &Config{
		Addr:          defaultAddr,
		Environment:   EnvDevelopment,
		SecureCookies: true,
		SessionTTL:    defaultSessionTTL,
		RememberMeTTL: defaultRememberMeTTL,
		SweepInterval: defaultSweepInterval,
	}
}

// Load builds a Config by applying defaults, then the FIELDOPS_* environment
// variables, then the command-line flags in args.
func Load(args []string) (*Config, error) {
	cfg := defaults()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.parseFlags(args); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("FIELDOPS_ADDRESS"); ok {
		c.Addr = v
	}
	if v, ok := os.LookupEnv("FIELDOPS_DATABASE_DSN"); ok {
		c.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("FIELDOPS_SESSION_HASH_KEY"); ok {
		c.SessionHashKey = v
	}
	if v, ok := os.LookupEnv("FIELDOPS_SESSION_BLOCK_KEY"); ok {
		c.SessionBlockKey = v
	}
	if v, ok := os.LookupEnv("FIELDOPS_ENVIRONMENT"); ok {
		c.Environment = Environment(v)
	}
	if v, ok := os.LookupEnv("FIELDOPS_SECURE_COOKIES"); ok {
		c.SecureCookies = v != "false"
	}

	for _, d := range []struct {
		name string
		dst  *time.Duration
	}{
		{"FIELDOPS_SESSION_TTL", &c.SessionTTL},
		{"FIELDOPS_REMEMBER_ME_TTL", &c.RememberMeTTL},
		{"FIELDOPS_SWEEP_INTERVAL", &c.SweepInterval},
	} {
		v, ok := os.LookupEnv(d.name)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "parsing %s", d.name)
		}
		*d.dst = parsed
	}

	return nil
}

func (c *Config) parseFlags(args []string) error {
	fs := flag.NewFlagSet("fieldops", flag.ContinueOnError)

	fs.StringVar(&c.Addr, "a", c.Addr, "address and port to run server")
	fs.StringVar(&c.DatabaseDSN, "d", c.DatabaseDSN, "database DSN (empty for in-memory stores)")
	fs.StringVar(&c.SessionHashKey, "hash-key", c.SessionHashKey, "hex-encoded session cookie hash key")
	fs.StringVar(&c.SessionBlockKey, "block-key", c.SessionBlockKey, "hex-encoded session cookie block key")
	env := fs.String("e", string(c.Environment), "environment (development or production)")
	fs.BoolVar(&c.SecureCookies, "secure-cookies", c.SecureCookies, "set the Secure attribute on cookies")
	fs.DurationVar(&c.SessionTTL, "session-ttl", c.SessionTTL, "session lifetime")
	fs.DurationVar(&c.RememberMeTTL, "remember-me-ttl", c.RememberMeTTL, "session lifetime with rememberMe")
	fs.DurationVar(&c.SweepInterval, "sweep-interval", c.SweepInterval, "expired session sweep interval")

	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "flag.FlagSet.Parse()")
	}
	c.Environment = Environment(*env)

	return nil
}

func (c *Config) validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return errors.Newf("unknown environment %q", c.Environment)
	}

	if c.Environment == EnvProduction {
		if c.SessionHashKey == "" {
			return errors.New("production requires a session hash key")
		}
		if c.DatabaseDSN == "" {
			return errors.New("production requires a database DSN")
		}
	}

	if c.SessionTTL <= 0 || c.RememberMeTTL <= 0 {
		return errors.New("session lifetimes must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("sweep interval must be positive")
	}

	return nil
}

// SessionKeys returns the securecookie hash and block keys. Configured keys
// are hex-decoded and length-checked. In development with no configured
// keys, random keys are generated; sessions then die with the process.
func (c *Config) SessionKeys() (hashKey, blockKey []byte, err error) {
	if c.SessionHashKey == "" {
		return securecookie.GenerateRandomKey(64), securecookie.GenerateRandomKey(32), nil
	}

	hashKey, err = hex.DecodeString(c.SessionHashKey)
	if err != nil {
		return nil, nil, errors.Wrap(err, "decoding session hash key")
	}
	if len(hashKey) != 32 && len(hashKey) != 64 {
		return nil, nil, errors.Newf("session hash key must be 32 or 64 bytes, got %d", len(hashKey))
	}

	if c.SessionBlockKey == "" {
		return hashKey, nil, nil
	}

	blockKey, err = hex.DecodeString(c.SessionBlockKey)
	if err != nil {
		return nil, nil, errors.Wrap(err, "decoding session block key")
	}
	switch len(blockKey) {
	case 16, 24, 32:
	default:
		return nil, nil, errors.Newf("session block key must be 16, 24, or 32 bytes, got %d", len(blockKey))
	}

	return hashKey, blockKey, nil
}
