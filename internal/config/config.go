package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete poolmond configuration: the admin/demo server
// wrapping a respool.Pool, plus the pool's own settings.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Pool    PoolConfig    `yaml:"pool"`
	Demo    DemoConfig    `yaml:"demo"`
	WS      WSConfig      `yaml:"websocket"`
	Logging LogConfig     `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Watch   WatchConfig   `yaml:"watch"`
}

type ServerConfig struct {
	Address      string    `yaml:"address"`
	HTTP2        bool      `yaml:"http2"`
	HTTP3        bool      `yaml:"http3"`
	TLS          TLSConfig `yaml:"tls"`
	HTTPRedirect bool      `yaml:"http_redirect"`
}

type TLSConfig struct {
	Auto bool       `yaml:"auto"`
	Cert string     `yaml:"cert"`
	Key  string     `yaml:"key"`
	ACME ACMEConfig `yaml:"acme"`
}

type ACMEConfig struct {
	Email    string   `yaml:"email"`
	Domains  []string `yaml:"domains"`
	CacheDir string   `yaml:"cache_dir"`
	Staging  bool     `yaml:"staging"`
}

// PoolConfig maps directly onto pool.Config plus AcquireTimeout, a checkout
// bound in the shape of pool.GetTimeout that sits above the core library;
// cmd/poolmond does not read it. The demo manager's dial timeout is in
// DemoConfig.
type PoolConfig struct {
	PoolSize       uint32   `yaml:"pool_size"`
	HelperThreads  uint32   `yaml:"helper_threads"`
	TestOnCheckOut bool     `yaml:"test_on_check_out"`
	AcquireTimeout Duration `yaml:"acquire_timeout"`
}

// DemoConfig configures the built-in tcpmanager.Manager used by cmd/poolmond
// when no other Manager is wired in: it pools TCP connections to Target.
type DemoConfig struct {
	Target      string   `yaml:"target"`
	DialTimeout Duration `yaml:"dial_timeout"`
}

type WSConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Path           string `yaml:"path"`
	MaxConnections int    `yaml:"max_connections"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type WatchConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Dirs     []string `yaml:"dirs"`
	Interval Duration `yaml:"interval"`
}

// Duration is a time.Duration that supports YAML string unmarshaling.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads config from a YAML file, applying defaults for missing values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Pool.PoolSize < 1 {
		return fmt.Errorf("pool.pool_size must be >= 1, got %d", c.Pool.PoolSize)
	}
	if c.Pool.HelperThreads < 1 {
		return fmt.Errorf("pool.helper_threads must be >= 1, got %d", c.Pool.HelperThreads)
	}
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.Demo.Target == "" {
		return fmt.Errorf("demo.target is required")
	}
	if c.WS.Enabled && c.WS.Path == "" {
		return fmt.Errorf("websocket.path is required when websocket is enabled")
	}
	return nil
}
