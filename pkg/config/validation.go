package config

import (
	"github.com/fresh-tools/e2e-runner-go/pkg/errors"
	"github.com/fresh-tools/e2e-runner-go/pkg/monitoring"
)

// ValidateConfig validates the resolved configuration values. Command
// strings are validated separately by ResolveCommands.
func ValidateConfig(config *Config) error {
	if config == nil {
		return errors.NewValidationError("configuration cannot be nil", nil)
	}

	if config.Host == "" {
		return errors.NewConfigurationError("host cannot be empty", nil)
	}

	if config.Port <= 0 || config.Port > 65535 {
		return errors.NewConfigurationError("port must be between 1 and 65535", nil).WithContext("port", config.Port)
	}

	switch config.ProbeType {
	case monitoring.ProbeTypeHTTP, monitoring.ProbeTypeTCP, monitoring.ProbeTypeGRPC:
	default:
		return errors.NewConfigurationError("unsupported probe type: "+string(config.ProbeType), nil)
	}

	if config.ServerTimeout <= 0 {
		return errors.NewConfigurationError("server timeout must be positive", nil).WithContext("timeout", config.ServerTimeout)
	}

	if config.GracePeriod <= 0 {
		return errors.NewConfigurationError("grace period must be positive", nil).WithContext("grace_period", config.GracePeriod)
	}

	return nil
}
