package interp

import (
	"bytes"
	"io"
	"os/exec"
)

// Executor runs a shell evaluation for the e command. The engine
// takes one so tests can substitute a fake.
type Executor interface {
	// Execute runs command and returns its captured standard output
	// and exit code. A non-zero exit code is not an error; err is
	// reserved for failures to run the command at all.
	Execute(command string) (stdout string, exitCode int, err error)
}

var defaultShellCommand = []string{"sh", "-c"}

// shellExecutor runs commands under a real shell, forwarding the
// command's standard error to stderr.
type shellExecutor struct {
	shell  []string
	stderr io.Writer
}

func (e *shellExecutor) Execute(command string) (string, int, error) {
	shell := e.shell
	if len(shell) == 0 {
		shell = defaultShellCommand
	}
	cmd := exec.Command(shell[0], append(shell[1:], command)...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = e.stderr
	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return out.String(), exitErr.ProcessState.ExitCode(), nil
		}
		return "", -1, err
	}
	return out.String(), 0, nil
}
