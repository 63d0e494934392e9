package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fresh-tools/e2e-runner-go/pkg/errors"
	"github.com/fresh-tools/e2e-runner-go/pkg/monitoring"
)

// Environment keys recognized by Load. Every key is optional; environment
// values override file values, which override the built-in defaults.
const (
	EnvBuildCmd        = "BUILD_CMD"
	EnvServeCmd        = "SERVE_CMD"
	EnvTaskCmd         = "TASK_CMD"
	EnvTestCmd         = "TEST_CMD"
	EnvDevHost         = "FRESH_DEV_HOST"
	EnvDevPort         = "FRESH_DEV_PORT"
	EnvServerTimeoutMS = "SERVER_TIMEOUT_MS"
	EnvHealthPath      = "HEALTH_PATH"
	EnvHealthProbe     = "HEALTH_PROBE"
	EnvGracePeriodMS   = "GRACE_PERIOD_MS"
)

// Config is the resolved runner configuration. Resolved once at startup and
// immutable thereafter.
type Config struct {
	BuildCmd string `yaml:"build_cmd,omitempty"`
	ServeCmd string `yaml:"serve_cmd,omitempty"`
	TaskCmd  string `yaml:"task_cmd,omitempty"`
	TestCmd  string `yaml:"test_cmd,omitempty"`

	Host       string               `yaml:"host,omitempty"`
	Port       int                  `yaml:"port,omitempty"`
	HealthPath string               `yaml:"health_path,omitempty"`
	ProbeType  monitoring.ProbeType `yaml:"probe_type,omitempty"`

	ServerTimeout time.Duration `yaml:"server_timeout,omitempty"`
	GracePeriod   time.Duration `yaml:"grace_period,omitempty"`
}

// Default returns the built-in configuration, tuned for the standard dev
// server workflow.
func Default() Config {
	return Config{
		TaskCmd:       "deno task serve",
		TestCmd:       "deno task test:e2e",
		Host:          "127.0.0.1",
		Port:          8000,
		HealthPath:    "/",
		ProbeType:     monitoring.ProbeTypeHTTP,
		ServerTimeout: 30 * time.Second,
		GracePeriod:   5 * time.Second,
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides, in that order. The lookup function is usually
// os.Getenv; tests inject their own.
func Load(filename string, lookup func(string) string) (*Config, error) {
	config := Default()

	if filename != "" {
		if err := loadFile(filename, &config); err != nil {
			return nil, err
		}
	}

	if lookup != nil {
		if err := applyEnvironment(&config, lookup); err != nil {
			return nil, err
		}
	}

	if err := ValidateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func loadFile(filename string, config *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.NewIOError("failed to read configuration file", err).WithContext("filename", filename)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return errors.NewConfigurationError("failed to parse YAML configuration", err).WithContext("filename", filename)
	}

	return nil
}

func applyEnvironment(config *Config, lookup func(string) string) error {
	if value := lookup(EnvBuildCmd); value != "" {
		config.BuildCmd = value
	}
	if value := lookup(EnvServeCmd); value != "" {
		config.ServeCmd = value
	}
	if value := lookup(EnvTaskCmd); value != "" {
		config.TaskCmd = value
	}
	if value := lookup(EnvTestCmd); value != "" {
		config.TestCmd = value
	}
	if value := lookup(EnvDevHost); value != "" {
		config.Host = value
	}
	if value := lookup(EnvHealthPath); value != "" {
		config.HealthPath = value
	}
	if value := lookup(EnvHealthProbe); value != "" {
		config.ProbeType = monitoring.ProbeType(value)
	}

	if value := lookup(EnvDevPort); value != "" {
		port, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return errors.NewConfigurationError("invalid port value", err).WithContext("key", EnvDevPort).WithContext("value", value)
		}
		config.Port = port
	}

	timeout, err := millisecondsFromEnv(lookup, EnvServerTimeoutMS)
	if err != nil {
		return err
	}
	if timeout > 0 {
		config.ServerTimeout = timeout
	}

	grace, err := millisecondsFromEnv(lookup, EnvGracePeriodMS)
	if err != nil {
		return err
	}
	if grace > 0 {
		config.GracePeriod = grace
	}

	return nil
}

func millisecondsFromEnv(lookup func(string) string, key string) (time.Duration, error) {
	value := lookup(key)
	if value == "" {
		return 0, nil
	}

	ms, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, errors.NewConfigurationError("invalid milliseconds value", err).WithContext("key", key).WithContext("value", value)
	}

	return time.Duration(ms) * time.Millisecond, nil
}
