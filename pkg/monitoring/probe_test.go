package monitoring

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/phayes/freeport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/fresh-tools/e2e-runner-go/pkg/errors"
)

type testLogger struct{}

func (l *testLogger) Debugf(msg string, args ...interface{}) {}
func (l *testLogger) Infof(msg string, args ...interface{})  {}
func (l *testLogger) Warnf(msg string, args ...interface{})  {}
func (l *testLogger) Errorf(msg string, args ...interface{}) {}

func hostPortOf(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func TestWaitUntilReady_HTTPImmediate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	host, port := hostPortOf(t, server.Listener.Addr().String())

	err := WaitUntilReady(context.Background(), ProbeConfig{
		Type:    ProbeTypeHTTP,
		Host:    host,
		Port:    port,
		Path:    "/",
		Timeout: 5 * time.Second,
	}, &testLogger{})
	assert.NoError(t, err)
}

func TestWaitUntilReady_HTTPDelayedReadiness(t *testing.T) {
	port, err := freeport.GetFreePort()
	require.NoError(t, err)

	const readyAfter = 600 * time.Millisecond

	var listener net.Listener
	listenerReady := make(chan struct{})
	go func() {
		time.Sleep(readyAfter)
		l, listenErr := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if listenErr != nil {
			close(listenerReady)
			return
		}
		listener = l
		close(listenerReady)
		http.Serve(l, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
	}()
	defer func() {
		<-listenerReady
		if listener != nil {
			listener.Close()
		}
	}()

	started := time.Now()
	err = WaitUntilReady(context.Background(), ProbeConfig{
		Type:    ProbeTypeHTTP,
		Host:    "127.0.0.1",
		Port:    port,
		Path:    "/",
		Timeout: 10 * time.Second,
	}, &testLogger{})
	require.NoError(t, err)

	elapsed := time.Since(started)
	assert.GreaterOrEqual(t, elapsed, readyAfter-100*time.Millisecond,
		"prober should not report ready before the server listens")
	assert.Less(t, elapsed, 5*time.Second)
}

func TestWaitUntilReady_Timeout(t *testing.T) {
	port, err := freeport.GetFreePort()
	require.NoError(t, err)

	const timeout = 700 * time.Millisecond

	started := time.Now()
	err = WaitUntilReady(context.Background(), ProbeConfig{
		Type:    ProbeTypeHTTP,
		Host:    "127.0.0.1",
		Port:    port,
		Path:    "/",
		Timeout: timeout,
	}, &testLogger{})
	elapsed := time.Since(started)

	require.Error(t, err)
	assert.True(t, errors.IsTimeoutError(err))
	// Bounded by the timeout plus at most one backoff interval.
	assert.Less(t, elapsed, timeout+maxProbeInterval+time.Second)
}

func TestWaitUntilReady_HTTPServerErrorNotReady(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	host, port := hostPortOf(t, server.Listener.Addr().String())

	err := WaitUntilReady(context.Background(), ProbeConfig{
		Type:    ProbeTypeHTTP,
		Host:    host,
		Port:    port,
		Path:    "/",
		Timeout: 600 * time.Millisecond,
	}, &testLogger{})
	require.Error(t, err)
	assert.True(t, errors.IsTimeoutError(err))
}

func TestWaitUntilReady_TCP(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	host, port := hostPortOf(t, listener.Addr().String())

	err = WaitUntilReady(context.Background(), ProbeConfig{
		Type:    ProbeTypeTCP,
		Host:    host,
		Port:    port,
		Timeout: 5 * time.Second,
	}, &testLogger{})
	assert.NoError(t, err)
}

func TestWaitUntilReady_GRPC(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	go grpcServer.Serve(listener)
	defer grpcServer.Stop()

	host, port := hostPortOf(t, listener.Addr().String())

	err = WaitUntilReady(context.Background(), ProbeConfig{
		Type:    ProbeTypeGRPC,
		Host:    host,
		Port:    port,
		Timeout: 5 * time.Second,
	}, &testLogger{})
	assert.NoError(t, err)
}

func TestWaitUntilReady_Cancellation(t *testing.T) {
	port, err := freeport.GetFreePort()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(300 * time.Millisecond)
		cancel()
	}()

	err = WaitUntilReady(ctx, ProbeConfig{
		Type:    ProbeTypeHTTP,
		Host:    "127.0.0.1",
		Port:    port,
		Path:    "/",
		Timeout: 30 * time.Second,
	}, &testLogger{})
	require.Error(t, err)
	assert.True(t, errors.IsCancelledError(err))
}

func TestValidateProbeConfig(t *testing.T) {
	tests := []struct {
		name        string
		config      ProbeConfig
		expectError bool
	}{
		{
			name:        "valid_http",
			config:      ProbeConfig{Type: ProbeTypeHTTP, Host: "127.0.0.1", Port: 8000, Path: "/", Timeout: time.Second},
			expectError: false,
		},
		{
			name:        "valid_tcp_no_path",
			config:      ProbeConfig{Type: ProbeTypeTCP, Host: "127.0.0.1", Port: 8000, Timeout: time.Second},
			expectError: false,
		},
		{
			name:        "unknown_type",
			config:      ProbeConfig{Type: "smoke-signal", Host: "127.0.0.1", Port: 8000, Timeout: time.Second},
			expectError: true,
		},
		{
			name:        "relative_path",
			config:      ProbeConfig{Type: ProbeTypeHTTP, Host: "127.0.0.1", Port: 8000, Path: "health", Timeout: time.Second},
			expectError: true,
		},
		{
			name:        "zero_port",
			config:      ProbeConfig{Type: ProbeTypeHTTP, Host: "127.0.0.1", Path: "/", Timeout: time.Second},
			expectError: true,
		},
		{
			name:        "missing_timeout",
			config:      ProbeConfig{Type: ProbeTypeHTTP, Host: "127.0.0.1", Port: 8000, Path: "/"},
			expectError: true,
		},
		{
			name:        "empty_host",
			config:      ProbeConfig{Type: ProbeTypeHTTP, Port: 8000, Path: "/", Timeout: time.Second},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProbeConfig(tt.config)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
