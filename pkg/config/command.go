package config

import (
	"strings"

	"github.com/fresh-tools/e2e-runner-go/pkg/errors"
)

// Mode selects how the server is brought up: explicit build-then-serve
// commands, or a single composite task that does both.
type Mode string

const (
	ModeDirect Mode = "direct"
	ModeTask   Mode = "task"
)

// Command is a program name plus its arguments, derived from a raw
// configuration string split on whitespace. Quoting is not supported:
// arguments containing spaces cannot be expressed.
type Command struct {
	Program string
	Args    []string
}

// SplitCommand tokenizes a raw command string on runs of whitespace,
// discarding empty tokens. An empty or blank string yields a zero Command.
func SplitCommand(raw string) Command {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return Command{}
	}
	return Command{
		Program: tokens[0],
		Args:    tokens[1:],
	}
}

// IsZero reports whether the command resolved to nothing.
func (c Command) IsZero() bool {
	return c.Program == ""
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Program}, c.Args...), " ")
}

// ResolvedCommands is the output of command resolution: the mode plus the
// concrete build, serve-or-task and test commands.
type ResolvedCommands struct {
	Mode  Mode
	Build Command // optional, direct mode only
	Serve Command // SERVE_CMD in direct mode, TASK_CMD in task mode
	Test  Command
}

// ResolveCommands derives the commands and mode from the configuration.
// Direct mode is selected when either the build or serve command override is
// present; the serve command is then mandatory. In task mode the composite
// task command both builds and serves.
func (c *Config) ResolveCommands() (*ResolvedCommands, error) {
	buildRaw := strings.TrimSpace(c.BuildCmd)
	serveRaw := strings.TrimSpace(c.ServeCmd)

	resolved := &ResolvedCommands{
		Test: SplitCommand(c.TestCmd),
	}

	if buildRaw != "" || serveRaw != "" {
		resolved.Mode = ModeDirect
		resolved.Build = SplitCommand(buildRaw)
		resolved.Serve = SplitCommand(serveRaw)
		if resolved.Serve.IsZero() {
			return nil, errors.NewConfigurationError(
				"serve command is required in direct mode (set "+EnvServeCmd+")", nil)
		}
	} else {
		resolved.Mode = ModeTask
		resolved.Serve = SplitCommand(c.TaskCmd)
		if resolved.Serve.IsZero() {
			return nil, errors.NewConfigurationError(
				"task command is required in task mode (set "+EnvTaskCmd+")", nil)
		}
	}

	if resolved.Test.IsZero() {
		return nil, errors.NewConfigurationError(
			"test command is required (set "+EnvTestCmd+")", nil)
	}

	return resolved, nil
}
