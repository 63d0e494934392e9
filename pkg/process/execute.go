package process

import (
	"context"
	stderrors "errors"
	"os"
	"os/exec"

	"github.com/fresh-tools/e2e-runner-go/pkg/errors"
	"github.com/fresh-tools/e2e-runner-go/pkg/logging"
)

// ExecutionConfig describes a child process to launch. Standard output and
// error are always inherited from the supervisor so child logs stay visible
// to the operator.
type ExecutionConfig struct {
	Program          string
	Args             []string
	Environment      []string
	WorkingDirectory string
}

func newCmd(ctx context.Context, execution ExecutionConfig) *exec.Cmd {
	cmd := exec.CommandContext(ctx, execution.Program, execution.Args...)
	cmd.Dir = execution.WorkingDirectory

	env := os.Environ()
	env = append(env, execution.Environment...)
	cmd.Env = env

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	// Platform-specific setup is handled in execute_unix.go / execute_windows.go
	setupProcessAttributes(cmd)

	return cmd
}

func validateExecution(ctx context.Context, execution ExecutionConfig, id string) error {
	if ctx == nil {
		return errors.NewValidationError("context cannot be nil", nil).WithContext("id", id)
	}
	if execution.Program == "" {
		return errors.NewValidationError("program cannot be empty", nil).WithContext("id", id)
	}
	return nil
}

// Start launches the process and returns immediately without waiting. The
// child is placed in its own process group so the whole tree can be signaled
// later. Spawn failures become spawn errors, never panics.
func Start(ctx context.Context, execution ExecutionConfig, id string, logger logging.Logger) (*os.Process, error) {
	if err := validateExecution(ctx, execution, id); err != nil {
		logger.Errorf("Execution validation failed, id: %s, error: %v", id, err)
		return nil, err
	}

	logger.Debugf("Starting process, id: %s, program: '%s', args: %v", id, execution.Program, execution.Args)

	cmd := newCmd(ctx, execution)
	if err := cmd.Start(); err != nil {
		return nil, errors.NewSpawnError("failed to start the process", err).
			WithContext("id", id).
			WithContext("program", execution.Program)
	}

	logger.Infof("Process started, id: %s, PID: %d", id, cmd.Process.Pid)

	return cmd.Process, nil
}

// Run launches the process and waits synchronously for it to finish,
// returning its exit code. A non-zero exit is not an error here; callers
// decide what it means.
func Run(ctx context.Context, execution ExecutionConfig, id string, logger logging.Logger) (int, error) {
	if err := validateExecution(ctx, execution, id); err != nil {
		logger.Errorf("Execution validation failed, id: %s, error: %v", id, err)
		return -1, err
	}

	logger.Debugf("Running process to completion, id: %s, program: '%s', args: %v", id, execution.Program, execution.Args)

	cmd := newCmd(ctx, execution)
	if err := cmd.Start(); err != nil {
		return -1, errors.NewSpawnError("failed to start the process", err).
			WithContext("id", id).
			WithContext("program", execution.Program)
	}

	logger.Infof("Process running, id: %s, PID: %d", id, cmd.Process.Pid)

	err := cmd.Wait()
	if err == nil {
		logger.Infof("Process finished, id: %s, exit code: 0", id)
		return 0, nil
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		logger.Infof("Process finished, id: %s, exit code: %d", id, exitErr.ExitCode())
		return exitErr.ExitCode(), nil
	}

	return -1, errors.NewProcessError("failed to wait for process", err).WithContext("id", id)
}
