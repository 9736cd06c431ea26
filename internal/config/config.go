package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Second-factor verifiers the server can run.
const (
	TwoFactorFixture  = "fixture"
	TwoFactorTOTP     = "totp"
	TwoFactorDispatch = "dispatch"
)

// Config contains server configuration parameters.
type Config struct {
	LogLevel  int       `env:"LOG_LEVEL" envDefault:"0"`
	GRPC      GRPC      `envPrefix:"GRPC_"`
	Database  Database  `envPrefix:"DATABASE_"`
	Redis     Redis     `envPrefix:"REDIS_"`
	KDF       KDF       `envPrefix:"KDF_"`
	JWT       JWT       `envPrefix:"JWT_"`
	Simulator Simulator `envPrefix:"SIMULATOR_"`
	TwoFactor TwoFactor `envPrefix:"TWO_FACTOR_"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
}

// KDF contains argon2id parameters for password hashes.
type KDF struct {
	Time   uint32 `env:"TIME" envDefault:"3"`
	MemKiB uint32 `env:"MEM" envDefault:"65536"`
	Par    uint8  `env:"PAR" envDefault:"2"`
}

// GRPC contains gRPC server parameters.
type GRPC struct {
	Port               string `env:"PORT" envDefault:"50051"`
	EnableHTTPS        bool   `env:"ENABLE_HTTPS" envDefault:"false"`
	CertFileName       string `env:"CERT_FILE_NAME" envDefault:"cert.pem"`
	PrivateKeyFileName string `env:"PRIVATE_KEY_FILE_NAME" envDefault:"key.pem"`
}

// Database contains database connection parameters. An empty DSN keeps the
// directory in memory.
type Database struct {
	DSN string `env:"DSN"`
}

// Redis holds pending challenges and revoked tokens when Addr is set.
type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// JWT contains JWT-related parameters.
type JWT struct {
	Secret string `env:"SECRET" envDefault:"devsecret"`
}

// Simulator controls injected latency and failures.
type Simulator struct {
	Enabled bool    `env:"ENABLED" envDefault:"true"`
	Scale   float64 `env:"SCALE" envDefault:"1"`
	Seed    uint64  `env:"SEED" envDefault:"0"`
}

// TwoFactor selects the code verifier. MaxAttempts bounds wrong codes per
// challenge; zero leaves them unlimited.
type TwoFactor struct {
	Mode        string `env:"MODE" envDefault:"fixture"`
	MaxAttempts int    `env:"MAX_ATTEMPTS" envDefault:"0"`
}

// RateLimit bounds the request rate across all callers. A non-positive
// PerSecond disables it.
type RateLimit struct {
	PerSecond float64 `env:"PER_SECOND" envDefault:"20"`
	Burst     int     `env:"BURST" envDefault:"40"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.TwoFactor.Mode {
	case TwoFactorFixture, TwoFactorTOTP, TwoFactorDispatch:
	default:
		errs = append(errs, fmt.Errorf("unknown two-factor mode %q", c.TwoFactor.Mode))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt secret is empty"))
	}
	if c.Simulator.Scale < 0 {
		errs = append(errs, errors.New("simulator scale is negative"))
	}
	if c.KDF.Time == 0 || c.KDF.MemKiB == 0 || c.KDF.Par == 0 {
		errs = append(errs, errors.New("kdf parameters must be positive"))
	}

	return errors.Join(errs...)
}
