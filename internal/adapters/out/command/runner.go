// Package command runs external control-plane executables.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Runner executes a command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExitError is returned when a command ran but exited non-zero.
type ExitError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *ExitError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Command, e.ExitCode, out)
}

// ExecRunner runs commands with os/exec, optionally through sudo.
type ExecRunner struct {
	// Sudo prefixes commands with "sudo -n" unless the process already runs
	// as root.
	Sudo bool
}

// waitDelay bounds how long Run waits for the output pipes after the command
// was killed, in case a process outside its group still holds them.
const waitDelay = 2 * time.Second

// Run executes name with args. When ctx is done the command's whole process
// group is killed, so children forked by sudo or a shell go with it, and
// the context error is returned wrapped.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Sudo && os.Geteuid() != 0 {
		args = append([]string{"-n", name}, args...)
		name = "sudo"
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out.Bytes(), fmt.Errorf("%s: %w", commandLine(name, args), ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out.Bytes(), &ExitError{
				Command:  commandLine(name, args),
				ExitCode: exitErr.ExitCode(),
				Output:   out.String(),
			}
		}
		return out.Bytes(), fmt.Errorf("failed to run %s: %w", commandLine(name, args), err)
	}
	return out.Bytes(), nil
}

func commandLine(name string, args []string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}
