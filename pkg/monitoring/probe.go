package monitoring

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/fresh-tools/e2e-runner-go/pkg/errors"
	"github.com/fresh-tools/e2e-runner-go/pkg/logging"
)

type ProbeType string

const (
	ProbeTypeHTTP ProbeType = "http"
	ProbeTypeTCP  ProbeType = "tcp"
	ProbeTypeGRPC ProbeType = "grpc"
)

// ProbeConfig describes the readiness probe issued against the server until
// it accepts connections or the overall timeout elapses.
type ProbeConfig struct {
	Type ProbeType `yaml:"type,omitempty"`
	Host string    `yaml:"host,omitempty"`
	Port int       `yaml:"port,omitempty"`

	// HTTP probes only
	Path string `yaml:"path,omitempty"`

	// Timeout is the overall readiness budget; AttemptTimeout bounds a
	// single probe round trip.
	Timeout        time.Duration `yaml:"timeout,omitempty"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout,omitempty"`
}

// Backoff schedule between probe attempts: fast initial retries that slow
// down to a fixed ceiling.
const (
	initialProbeInterval = 200 * time.Millisecond
	probeBackoffRate     = 1.25
	maxProbeInterval     = 2000 * time.Millisecond

	// Attempts between "still waiting" progress lines.
	progressEvery = 5
)

// WaitUntilReady blocks until a probe succeeds or the configured timeout
// elapses. Network errors are treated as "not yet ready", never as fatal.
//
// The prober does not watch the server process itself: a server that crashed
// before becoming ready is only observed through the eventual timeout.
func WaitUntilReady(ctx context.Context, config ProbeConfig, logger logging.Logger) error {
	if ctx == nil {
		return errors.NewValidationError("context cannot be nil", nil)
	}
	if err := ValidateProbeConfig(config); err != nil {
		return err
	}

	attemptTimeout := config.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = maxProbeInterval
	}

	target := probeTarget(config)
	logger.Infof("Waiting for server readiness, target: %s, type: %s, timeout: %v",
		target, config.Type, config.Timeout)

	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = initialProbeInterval
	schedule.Multiplier = probeBackoffRate
	schedule.MaxInterval = maxProbeInterval
	schedule.MaxElapsedTime = config.Timeout
	schedule.RandomizationFactor = 0
	schedule.Reset()

	attempt := 0
	for {
		ready, message := probeOnce(ctx, config, attemptTimeout)
		attempt++
		if ready {
			logger.Infof("Server is ready, target: %s, attempts: %d, detail: %s", target, attempt, message)
			return nil
		}

		if attempt%progressEvery == 0 {
			logger.Infof("Still waiting for server, target: %s, attempts: %d, last: %s", target, attempt, message)
		} else {
			logger.Debugf("Server not ready yet, target: %s, attempt: %d, last: %s", target, attempt, message)
		}

		interval := schedule.NextBackOff()
		if interval == backoff.Stop {
			return errors.NewTimeoutError(
				fmt.Sprintf("server not ready within %v", config.Timeout), nil).
				WithContext("target", target).
				WithContext("attempts", attempt)
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return errors.NewCancelledError("readiness wait cancelled", ctx.Err()).WithContext("target", target)
		}
	}
}

func probeTarget(config ProbeConfig) string {
	address := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	if config.Type == ProbeTypeHTTP {
		return "http://" + address + config.Path
	}
	return address
}

func probeOnce(ctx context.Context, config ProbeConfig, attemptTimeout time.Duration) (bool, string) {
	switch config.Type {
	case ProbeTypeHTTP:
		return checkHTTP(ctx, config, attemptTimeout)
	case ProbeTypeTCP:
		return checkTCP(config, attemptTimeout)
	case ProbeTypeGRPC:
		return checkGRPC(ctx, config, attemptTimeout)
	default:
		return false, "unknown probe type: " + string(config.Type)
	}
}

func checkHTTP(ctx context.Context, config ProbeConfig, attemptTimeout time.Duration) (bool, string) {
	client := &http.Client{
		Timeout: attemptTimeout,
	}

	url := probeTarget(config)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, fmt.Sprintf("failed to create HTTP request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Sprintf("HTTP request failed: %v", err)
	}
	defer resp.Body.Close()

	// Redirects count as ready: the server is up and routing.
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return true, fmt.Sprintf("HTTP probe passed: %s", resp.Status)
	}

	return false, fmt.Sprintf("HTTP probe failed: %s", resp.Status)
}

func checkTCP(config ProbeConfig, attemptTimeout time.Duration) (bool, string) {
	address := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))

	conn, err := net.DialTimeout("tcp", address, attemptTimeout)
	if err != nil {
		return false, fmt.Sprintf("TCP connection failed: %v", err)
	}
	defer conn.Close()

	return true, fmt.Sprintf("TCP connection successful to %s", address)
}

func checkGRPC(ctx context.Context, config ProbeConfig, attemptTimeout time.Duration) (bool, string) {
	address := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))

	attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
	defer cancel()

	conn, err := grpc.DialContext(attemptCtx, address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock())
	if err != nil {
		return false, fmt.Sprintf("gRPC connection failed: %v", err)
	}
	defer conn.Close()

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(attemptCtx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		return false, fmt.Sprintf("gRPC health check failed: %v", err)
	}

	if resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		return false, fmt.Sprintf("gRPC health status: %s", resp.Status)
	}

	return true, fmt.Sprintf("gRPC health check passed for %s", address)
}
