// Package pipeline wires mesh loading, IDTF serialization, the converter
// chains and PDF embedding into the flows each command runs.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/meshu3d/internal/convert"
	"github.com/danmuck/meshu3d/internal/toolchain"
	"github.com/danmuck/meshu3d/internal/tools"
)

var (
	ErrInvalidInput = errors.New("pipeline: invalid input")
	ErrNoConverter  = errors.New("pipeline: no converter produced output")
)

// Options configure a Converter.
type Options struct {
	Runner tools.CommandRunner
	// Pinned maps toolchain entry ids to explicit executable paths.
	Pinned map[string]string
	Locale string
	// WorkRoot is where temporary workspaces are created. Empty means os.TempDir.
	WorkRoot string
	// Keep leaves workspaces on disk after a run.
	Keep bool
	// IDTFOrder and STLOrder override the default strategy orders.
	IDTFOrder []string
	STLOrder  []string
	// Commands are extra strategies built from command templates.
	Commands map[string]string
}

// Converter runs the pipelines against one toolbox so tool discovery is
// shared across stages.
type Converter struct {
	tb        *convert.Toolbox
	reg       *convert.Registry
	idtfOrder []string
	stlOrder  []string
	workRoot  string
	keep      bool
}

func New(opts Options) (*Converter, error) {
	tb := convert.NewToolbox(toolchain.NewFinder(opts.Runner, opts.Pinned), opts.Locale)
	reg := convert.Builtin(tb)
	if err := reg.RegisterCommands(tb, opts.Commands); err != nil {
		return nil, err
	}
	c := &Converter{
		tb:        tb,
		reg:       reg,
		idtfOrder: orDefault(opts.IDTFOrder, convert.IDTFOrder),
		stlOrder:  orDefault(opts.STLOrder, convert.STLOrder),
		workRoot:  opts.WorkRoot,
		keep:      opts.Keep,
	}
	for _, order := range [][]string{c.idtfOrder, c.stlOrder} {
		if _, err := reg.Select(order); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Strategies lists every registered strategy.
func (c *Converter) Strategies() []convert.StrategyMetadata {
	return c.reg.ListMetadata()
}

// Toolbox exposes the shared tool discovery for info commands.
func (c *Converter) Toolbox() *convert.Toolbox {
	return c.tb
}

func (c *Converter) strategies(ids []string) []convert.Strategy {
	out, err := c.reg.Select(ids)
	if err != nil {
		// orders are validated in New
		panic(err)
	}
	return out
}

func (c *Converter) resolve(id string) convert.Strategy {
	return c.strategies([]string{id})[0]
}

// Result is what a pipeline produced.
type Result struct {
	U3D  string
	IDTF string
	STL  string
	PDF  string
	// Strategy is the converter that produced the U3D.
	Strategy    string
	Placeholder bool
	Attempts    []convert.Attempt
}

func (r *Result) absorb(res convert.Result) {
	r.Strategy = res.Strategy
	r.Placeholder = res.Placeholder
	r.Attempts = append(r.Attempts, res.Attempts...)
}

// Attempted lists the strategy ids tried, in order.
func (r Result) Attempted() []string {
	out := make([]string, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		if a.Outcome != "" {
			out = append(out, a.Strategy)
		}
	}
	return out
}

func orDefault(order, def []string) []string {
	if len(order) > 0 {
		return order
	}
	return append([]string{}, def...)
}

func requireFile(path string, exts ...string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s does not exist", ErrInvalidInput, path)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInvalidInput, path)
	}
	if len(exts) == 0 {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range exts {
		if ext == want {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is not a %s file", ErrInvalidInput, path, strings.Join(exts, "/"))
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func withExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// DefaultPath is <dir>/<sub>/<input stem><ext>, the layout the commands
// use when no explicit output is given.
func DefaultPath(dir, sub, input, ext string) string {
	return filepath.Join(dir, sub, stem(input)+ext)
}
