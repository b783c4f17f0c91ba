package config

import "time"

type Config struct {
	// SoftBounce demotes all permanent failures to temporary ones:
	// bounce records become defer records and no bounce mail is sent.
	// Used to dry-run delivery policy.
	SoftBounce bool           `yaml:"soft_bounce"`
	Services   ServicesConfig `yaml:"services"`
	Logging    LoggingConfig  `yaml:"logging"`
}

type ServicesConfig struct {
	BounceSocket string        `yaml:"bounce_socket"`
	DeferSocket  string        `yaml:"defer_socket"`
	TraceSocket  string        `yaml:"trace_socket"`
	VerifySocket string        `yaml:"verify_socket"`
	Timeout      time.Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		SoftBounce: false,
		Services: ServicesConfig{
			BounceSocket: "/var/run/golubbounced/bounce.sock",
			DeferSocket:  "/var/run/golubbounced/defer.sock",
			TraceSocket:  "/var/run/golubbounced/trace.sock",
			VerifySocket: "/var/run/golubbounced/verify.sock",
			Timeout:      30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
