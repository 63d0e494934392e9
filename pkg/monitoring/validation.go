package monitoring

import (
	"strings"

	"github.com/fresh-tools/e2e-runner-go/pkg/errors"
)

// ValidateProbeConfig validates readiness probe configuration
func ValidateProbeConfig(config ProbeConfig) error {
	switch config.Type {
	case ProbeTypeHTTP:
		if config.Path != "" && !strings.HasPrefix(config.Path, "/") {
			return errors.NewValidationError("health path must start with '/'", nil).WithContext("path", config.Path)
		}
	case ProbeTypeTCP, ProbeTypeGRPC:
		// Address-only probes, nothing beyond host/port to check.
	default:
		return errors.NewValidationError("unsupported probe type: "+string(config.Type), nil)
	}

	if config.Host == "" {
		return errors.NewValidationError("probe host cannot be empty", nil)
	}

	if config.Port <= 0 || config.Port > 65535 {
		return errors.NewValidationError("probe port must be between 1 and 65535", nil).WithContext("port", config.Port)
	}

	if config.Timeout <= 0 {
		return errors.NewValidationError("probe timeout must be positive", nil).WithContext("timeout", config.Timeout)
	}

	if config.AttemptTimeout < 0 {
		return errors.NewValidationError("probe attempt timeout cannot be negative", nil)
	}

	return nil
}
