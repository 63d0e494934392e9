package supervisor

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/atomic"

	"github.com/fresh-tools/e2e-runner-go/pkg/config"
	"github.com/fresh-tools/e2e-runner-go/pkg/logging"
	"github.com/fresh-tools/e2e-runner-go/pkg/monitoring"
	"github.com/fresh-tools/e2e-runner-go/pkg/process"
	"github.com/fresh-tools/e2e-runner-go/pkg/processstate"
)

const (
	defaultGracePeriod = 5 * time.Second

	// Pause after a force kill so the OS can reclaim the process entry
	// and the bound port before the supervisor exits.
	killReclaimPause = 200 * time.Millisecond
)

// Options configures a Supervisor run.
type Options struct {
	Commands    *config.ResolvedCommands
	Probe       monitoring.ProbeConfig
	GracePeriod time.Duration
}

// Supervisor owns the server child process for its whole lifetime and
// sequences build -> serve -> wait-until-ready -> test -> cleanup. Cleanup
// runs at most once no matter how many exit paths race into it.
type Supervisor struct {
	options Options
	logger  logging.Logger

	// Server process handle, set at most once on spawn. The done channel
	// receives the result of the wait goroutine.
	mutex             sync.Mutex
	serverProcess     *os.Process
	processDoneSignal chan error

	cleaned *atomic.Bool

	// exit terminates the host process; tests inject their own.
	exit func(code int)
}

func NewSupervisor(options Options, logger logging.Logger) *Supervisor {
	return &Supervisor{
		options: options,
		logger:  logger,
		cleaned: atomic.NewBool(false),
		exit:    os.Exit,
	}
}

// Run executes the whole sequence and does not return: every path, including
// an external interrupt, funnels into Shutdown which terminates the process.
func (s *Supervisor) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.installSignalHandlers()
	s.Shutdown(s.execute(ctx))
}

// execute runs the ordered sequence and returns the intended exit code. It
// never cleans up itself; the caller owns the funnel into Shutdown.
func (s *Supervisor) execute(ctx context.Context) int {
	commands := s.options.Commands
	if commands == nil {
		s.logger.Errorf("No resolved commands")
		return 1
	}

	if commands.Mode == config.ModeDirect && !commands.Build.IsZero() {
		code, err := s.runBuild(ctx, commands.Build)
		if err != nil {
			s.logger.Errorf("Build failed: %v", err)
			return 1
		}
		if code != 0 {
			s.logger.Errorf("Build failed, exit code: %d", code)
			return 1
		}
	}

	if err := s.startServer(ctx, commands.Serve); err != nil {
		s.logger.Errorf("Failed to start server: %v", err)
		return 1
	}

	if err := monitoring.WaitUntilReady(ctx, s.options.Probe, s.logger); err != nil {
		s.logger.Errorf("Server never became ready: %v", err)
		return 1
	}

	code, err := s.runTests(ctx, commands.Test)
	if err != nil {
		s.logger.Errorf("Failed to run tests: %v", err)
		return 1
	}
	if code != 0 {
		s.logger.Errorf("Tests failed, exit code: %d", code)
		return 1
	}

	s.logger.Infof("Tests passed")
	return 0
}

func (s *Supervisor) runBuild(ctx context.Context, cmd config.Command) (int, error) {
	s.logger.Infof("Running build: %s", cmd)
	return process.Run(ctx, process.ExecutionConfig{Program: cmd.Program, Args: cmd.Args}, "build", s.logger)
}

func (s *Supervisor) runTests(ctx context.Context, cmd config.Command) (int, error) {
	s.logger.Infof("Running tests: %s", cmd)
	return process.Run(ctx, process.ExecutionConfig{Program: cmd.Program, Args: cmd.Args}, "test", s.logger)
}

// startServer spawns the serve-or-task command and returns immediately; the
// server is expected to run until Shutdown stops it. A goroutine waits on
// the child so cleanup can race its exit against the grace period.
func (s *Supervisor) startServer(ctx context.Context, cmd config.Command) error {
	s.logger.Infof("Starting server: %s", cmd)

	serverProcess, err := process.Start(ctx, process.ExecutionConfig{Program: cmd.Program, Args: cmd.Args}, "server", s.logger)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		state, err := serverProcess.Wait()
		if err != nil {
			s.logger.Warnf("Server PID %d wait failed: %v", serverProcess.Pid, err)
			done <- err
			return
		}
		s.logger.Infof("Server PID %d exited with status: %v", serverProcess.Pid, state)
		done <- nil
	}()

	s.mutex.Lock()
	s.serverProcess = serverProcess
	s.processDoneSignal = done
	s.mutex.Unlock()

	return nil
}

// installSignalHandlers routes an external interrupt into the same cleanup
// entry point used by the normal failure paths.
func (s *Supervisor) installSignalHandlers() {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-signalChan
		s.logger.Warnf("Received signal %v, shutting down", sig)
		s.Shutdown(1)
	}()
}

// Shutdown tears the server down at most once and terminates the host
// process with the given code. The check-and-set guard makes later callers
// no-ops that still exit, so a signal racing a failure cleanup is safe.
func (s *Supervisor) Shutdown(code int) {
	if s.cleaned.CAS(false, true) {
		s.teardown()
	} else {
		s.logger.Debugf("Cleanup already performed")
	}

	s.logger.Infof("Exiting with code %d", code)
	s.exit(code)
}

// teardown stops the server: graceful signal first, force kill if the grace
// period elapses. Errors are logged and swallowed; cleanup never changes the
// intended exit code.
func (s *Supervisor) teardown() {
	s.mutex.Lock()
	serverProcess := s.serverProcess
	done := s.processDoneSignal
	s.mutex.Unlock()

	if serverProcess == nil {
		// Spawn never happened, nothing to stop.
		return
	}

	pid := serverProcess.Pid
	s.logger.Infof("Stopping server PID %d", pid)

	if err := process.SendTerminationSignal(pid); err != nil {
		s.logger.Warnf("Failed to send termination signal to PID %d: %v", pid, err)
	}

	gracePeriod := s.options.GracePeriod
	if gracePeriod <= 0 {
		gracePeriod = defaultGracePeriod
	}

	select {
	case err := <-done:
		if err != nil {
			s.logger.Warnf("Server PID %d terminated with wait error: %v", pid, err)
		} else {
			s.logger.Infof("Server PID %d terminated gracefully", pid)
		}
		return
	case <-time.After(gracePeriod):
		s.logger.Warnf("Server PID %d did not terminate within %v, force killing", pid, gracePeriod)
	}

	if err := process.ForceKill(pid); err != nil {
		s.logger.Warnf("Failed to force kill PID %d: %v", pid, err)
	}

	time.Sleep(killReclaimPause)

	// Best-effort: collect the exit status if the wait goroutine already
	// observed it, and report if the process somehow survived.
	select {
	case err := <-done:
		if err != nil {
			s.logger.Warnf("Server PID %d force terminated with wait error: %v", pid, err)
		} else {
			s.logger.Infof("Server PID %d force terminated", pid)
		}
	default:
	}

	if running, _ := processstate.IsProcessRunning(pid); running {
		s.logger.Warnf("Server PID %d still running after force kill", pid)
	}
}
