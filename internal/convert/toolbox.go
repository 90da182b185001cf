package convert

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/meshu3d/internal/toolchain"
	"github.com/danmuck/meshu3d/internal/tools"
	"github.com/rs/zerolog/log"
)

// Toolbox gives strategies cached tool discovery and a runner whose
// processes get the pinned locale.
type Toolbox struct {
	finder *toolchain.Finder
	runner tools.CommandRunner
	found  map[string]lookup
}

type lookup struct {
	tool toolchain.Tool
	err  error
}

// NewToolbox wraps finder. locale is forwarded to tools.LocaleEnv.
func NewToolbox(finder *toolchain.Finder, locale string) *Toolbox {
	if finder == nil {
		finder = toolchain.NewFinder(nil, nil)
	}
	return &Toolbox{
		finder: finder,
		runner: tools.WithEnv(finder.Runner(), tools.LocaleEnv(locale)...),
		found:  make(map[string]lookup),
	}
}

// Tool locates a built-in tool once per toolbox. A missing tool is
// reported as ErrSkipped wrapping toolchain.ErrToolNotFound.
func (t *Toolbox) Tool(id string) (toolchain.Tool, error) {
	if hit, ok := t.found[id]; ok {
		return hit.tool, hit.err
	}
	tool, err := t.finder.LocateByID(id)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSkipped, err)
	}
	t.found[id] = lookup{tool: tool, err: err}
	return tool, err
}

// Run executes a converter process and folds a non-zero exit into an error.
func (t *Toolbox) Run(name string, args ...string) error {
	_, err := t.Output(name, args...)
	return err
}

// Output is Run returning trimmed stdout.
func (t *Toolbox) Output(name string, args ...string) (string, error) {
	log.Debug().Str("cmd", tools.CommandLine(name, args...)).Msg("convert.exec")
	stdout, stderr, exitCode, err := t.runner.Run(name, args...)
	out := strings.TrimSpace(string(stdout))
	if err == nil && exitCode == 0 {
		return out, nil
	}
	if err == nil {
		err = ErrCommandFailed
	}
	if exitCode == tools.ExitNotFound {
		err = errors.Join(ErrSkipped, err)
	}
	return out, &CommandError{
		Name:   name,
		Args:   args,
		Exit:   exitCode,
		Stdout: out,
		Stderr: strings.TrimSpace(string(stderr)),
		Err:    err,
	}
}

// CommandError is a converter process that failed to start or exited non-zero.
type CommandError struct {
	Name   string
	Args   []string
	Exit   int32
	Stdout string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf(
		"convert command failed cmd=%s args=%q exit=%d stdout=%q stderr=%q: %v",
		e.Name,
		strings.Join(e.Args, " "),
		e.Exit,
		clip(e.Stdout),
		clip(e.Stderr),
		e.Err,
	)
}

func (e *CommandError) Unwrap() error { return e.Err }

func clip(s string) string {
	const max = 400
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
