package tools

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strings"
)

// ExitNotFound is reported when the executable could not be started at all.
const ExitNotFound int32 = 127

// CommandRunner abstracts shell command execution for converter strategies.
type CommandRunner interface {
	Run(name string, args ...string) ([]byte, []byte, int32, error)
}

// ExecRunner executes commands on the local host.
// Env entries are appended to the inherited environment.
type ExecRunner struct {
	Dir string
	Env []string
}

// tools command-runner implementation backed by os/exec.
func (r ExecRunner) Run(name string, args ...string) ([]byte, []byte, int32, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), stderr.Bytes(), 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), int32(exitErr.ExitCode()), err
	}

	exitCode := int32(1)
	var execErr *exec.Error
	if errors.As(err, &execErr) || errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		exitCode = ExitNotFound
	}
	return stdout.Bytes(), stderr.Bytes(), exitCode, err
}

// WithEnv returns a copy of the runner with extra environment entries.
// Runners that are not an ExecRunner are returned unchanged.
func WithEnv(r CommandRunner, env ...string) CommandRunner {
	er, ok := r.(ExecRunner)
	if !ok || len(env) == 0 {
		return r
	}
	er.Env = append(append([]string{}, er.Env...), env...)
	return er
}

// CommandLine renders name and args for log lines.
func CommandLine(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
