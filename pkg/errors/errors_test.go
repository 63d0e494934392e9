package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_TypeClassification(t *testing.T) {
	tests := []struct {
		name         string
		err          *DomainError
		expectedType ErrorType
	}{
		{"configuration", NewConfigurationError("missing serve command", nil), ErrorTypeConfiguration},
		{"spawn", NewSpawnError("executable not found", fmt.Errorf("no such file")), ErrorTypeSpawn},
		{"timeout", NewTimeoutError("server not ready", nil), ErrorTypeTimeout},
		{"process", NewProcessError("wait failed", nil), ErrorTypeProcess},
		{"cancelled", NewCancelledError("interrupted", nil), ErrorTypeCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedType, tt.err.Type)
			assert.Equal(t, tt.expectedType, GetErrorType(tt.err))
		})
	}
}

func TestDomainError_ErrorMessage(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewNetworkError("probe failed", cause)

	assert.Contains(t, err.Error(), "network")
	assert.Contains(t, err.Error(), "probe failed")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, cause, err.Unwrap())
}

func TestDomainError_WithContext(t *testing.T) {
	err := NewSpawnError("failed to start the process", nil).
		WithContext("id", "server").
		WithContext("program", "deno")

	require.NotNil(t, err.Context)
	assert.Equal(t, "server", err.Context["id"])
	assert.Equal(t, "deno", err.Context["program"])
}

func TestDomainError_WrappedClassification(t *testing.T) {
	inner := NewTimeoutError("server not ready", nil)
	wrapped := fmt.Errorf("readiness: %w", inner)

	assert.True(t, IsTimeoutError(wrapped))
	assert.False(t, IsConfigurationError(wrapped))
	assert.Equal(t, ErrorTypeInternal, GetErrorType(fmt.Errorf("plain error")))
}
