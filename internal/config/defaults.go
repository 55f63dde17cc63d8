package config

import "time"

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "0.0.0.0:8080",
			TLS:     TLSConfig{Auto: false},
			HTTP3:   false,
		},
		Pool: PoolConfig{
			PoolSize:       8,
			HelperThreads:  4,
			TestOnCheckOut: false,
			AcquireTimeout: Duration(5 * time.Second),
		},
		Demo: DemoConfig{
			Target:      "127.0.0.1:6379",
			DialTimeout: Duration(2 * time.Second),
		},
		WS: WSConfig{
			Enabled:        true,
			Path:           "/ws",
			MaxConnections: 1000,
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Watch: WatchConfig{
			Enabled:  false,
			Dirs:     []string{},
			Interval: Duration(2 * time.Second),
		},
	}
}
