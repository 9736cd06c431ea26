package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Session backends of the terminal client.
const (
	SessionSQLite = "sqlite"
	SessionMinio  = "minio"
	SessionMemory = "memory"
)

// ClientEnvPrefix prefixes every client environment variable.
const ClientEnvPrefix = "AUTHFLOW_"

// ClientConfig configures the terminal client. Values come from defaults,
// then the TOML file named by AUTHFLOW_CONFIG, then AUTHFLOW_* variables.
type ClientConfig struct {
	LogLevel int    `toml:"log_level" env:"LOG_LEVEL"`
	LogFile  string `toml:"log_file" env:"LOG_FILE"`

	// ServerAddr selects a remote backend; empty runs one in-process.
	ServerAddr string `toml:"server_addr" env:"SERVER_ADDR"`
	ServerTLS  bool   `toml:"server_tls" env:"SERVER_TLS"`

	Session Session `toml:"session" envPrefix:"SESSION_"`
	Minio   Minio   `toml:"minio" envPrefix:"MINIO_"`
	Retry   Retry   `toml:"retry" envPrefix:"RETRY_"`
}

// Session selects where the durable half of the session lives.
type Session struct {
	Backend string `toml:"backend" env:"BACKEND"`
	Path    string `toml:"path" env:"PATH"`
}

// Minio contains object storage parameters for the minio session backend.
type Minio struct {
	Endpoint  string `toml:"endpoint" env:"ENDPOINT"`
	AccessKey string `toml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `toml:"secret_key" env:"SECRET_KEY"`
	Bucket    string `toml:"bucket" env:"BUCKET_NAME"`
	Prefix    string `toml:"prefix" env:"PREFIX"`
	UseSSL    bool   `toml:"use_ssl" env:"USE_SSL"`
}

// Retry bounds automatic retries of transport failures.
type Retry struct {
	MaxRetries      int      `toml:"max_retries" env:"MAX_RETRIES"`
	InitialInterval Duration `toml:"initial_interval" env:"INITIAL_INTERVAL"`
	MaxInterval     Duration `toml:"max_interval" env:"MAX_INTERVAL"`
}

// Duration reads "1s" style values from TOML and the environment.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultClientConfig returns the settings used when nothing overrides them.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Session: Session{
			Backend: SessionSQLite,
			Path:    defaultSessionPath(),
		},
		Minio: Minio{
			Endpoint:  "localhost:9000",
			AccessKey: "authflow-access-key",
			SecretKey: "authflow-secret-key",
			Bucket:    "authflow-sessions",
			Prefix:    "session/",
		},
		Retry: Retry{
			MaxRetries:      2,
			InitialInterval: Duration{time.Second},
			MaxInterval:     Duration{10 * time.Second},
		},
	}
}

// NewClientConfig loads the client configuration.
func NewClientConfig() (*ClientConfig, error) {
	return LoadClientConfig(os.Getenv(ClientEnvPrefix+"CONFIG"), nil)
}

// LoadClientConfig reads path (if non-empty) and overlays environ. A nil
// environ means the process environment. A missing file is not an error.
func LoadClientConfig(path string, environ map[string]string) (*ClientConfig, error) {
	cfg := DefaultClientConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	opts := env.Options{Prefix: ClientEnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects unusable settings.
func (c *ClientConfig) Validate() error {
	switch c.Session.Backend {
	case SessionSQLite:
		if c.Session.Path == "" {
			return errors.New("sqlite session backend needs a path")
		}
	case SessionMinio:
		if c.Minio.Endpoint == "" || c.Minio.Bucket == "" {
			return errors.New("minio session backend needs an endpoint and a bucket")
		}
	case SessionMemory:
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	if c.Retry.MaxRetries < 0 {
		return errors.New("retry count is negative")
	}
	return nil
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "authflow", "session.db")
	}
	return filepath.Join(dir, "authflow", "session.db")
}
