package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

func Load(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath == "" {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Services.BounceSocket == "" {
		return fmt.Errorf("bounce_socket cannot be empty")
	}

	if config.Services.DeferSocket == "" {
		return fmt.Errorf("defer_socket cannot be empty")
	}

	if config.Services.TraceSocket == "" {
		return fmt.Errorf("trace_socket cannot be empty")
	}

	if config.Services.VerifySocket == "" {
		return fmt.Errorf("verify_socket cannot be empty")
	}

	if config.Services.Timeout <= 0 {
		return fmt.Errorf("services timeout must be positive: %v", config.Services.Timeout)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[config.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true, "pretty": true,
	}
	if !validLogFormats[config.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", config.Logging.Format)
	}

	return nil
}
