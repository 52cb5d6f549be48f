package tabula

import (
	"bytes"
	"context"
	"os/exec"
)

// CommandExecutor defines an interface for running external commands.
// This abstraction is crucial for enabling unit tests to mock command execution.
type CommandExecutor interface {
	// Run executes a command and returns its standard output and standard
	// error separately.
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
	// RunCombined executes a command and returns its combined standard output
	// and standard error.
	RunCombined(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewDefaultExecutor returns the executor used by production clients. It runs
// commands with os/exec.
func NewDefaultExecutor() CommandExecutor {
	return &defaultExecutor{}
}

// defaultExecutor implements the CommandExecutor interface using the standard
// os/exec package.
// This is the implementation used in the production application.
type defaultExecutor struct{}

// Run is the production implementation for executing a command.
func (executor *defaultExecutor) Run(
	ctx context.Context,
	name string,
	args ...string,
) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	return stdout.Bytes(), stderr.Bytes(), runErr
}

// RunCombined is the production implementation for executing a command and
// capturing all output.
func (executor *defaultExecutor) RunCombined(
	ctx context.Context,
	name string,
	args ...string,
) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}
