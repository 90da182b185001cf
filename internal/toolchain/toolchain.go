// Package toolchain locates the external converters a pipeline shells out to.
package toolchain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/danmuck/meshu3d/internal/tools"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog/log"
)

var ErrToolNotFound = errors.New("toolchain: tool not found")

// Entry describes how to find one external tool.
type Entry struct {
	ID          string
	Candidates  []string
	VersionArgs []string
	// Expect, when set, must appear in the version output.
	Expect string
}

// Tool is a located executable and what its version check printed.
type Tool struct {
	ID      string
	Path    string
	Output  string
	Version *semver.Version
}

// AtLeast reports whether the parsed version satisfies constraint.
// Unknown versions never satisfy a constraint.
func (t Tool) AtLeast(constraint string) bool {
	if t.Version == nil {
		return false
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false
	}
	return c.Check(t.Version)
}

// Finder locates entries through a command runner.
type Finder struct {
	runner tools.CommandRunner
	pinned map[string]string
}

func NewFinder(runner tools.CommandRunner, pinned map[string]string) *Finder {
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	p := make(map[string]string, len(pinned))
	for id, path := range pinned {
		if strings.TrimSpace(path) != "" {
			p[id] = strings.TrimSpace(path)
		}
	}
	return &Finder{runner: runner, pinned: p}
}

// Runner returns the command runner used for version checks.
func (f *Finder) Runner() tools.CommandRunner {
	return f.runner
}

// Locate returns the first candidate that passes the version check.
// A pinned path from config is tried before the built-in candidates.
func (f *Finder) Locate(entry Entry) (Tool, error) {
	candidates := entry.Candidates
	if pinned, ok := f.pinned[entry.ID]; ok {
		candidates = append([]string{pinned}, candidates...)
	}
	for _, raw := range candidates {
		for _, path := range expandCandidate(raw) {
			stdout, stderr, exitCode, err := f.runner.Run(path, entry.VersionArgs...)
			if err != nil || exitCode != 0 {
				log.Debug().Str("tool", entry.ID).Str("path", path).Int32("exit", exitCode).Msg("toolchain.candidate miss")
				continue
			}
			output := strings.TrimSpace(string(stdout))
			if output == "" {
				output = strings.TrimSpace(string(stderr))
			}
			if entry.Expect != "" && !strings.Contains(output, entry.Expect) {
				log.Debug().Str("tool", entry.ID).Str("path", path).Msg("toolchain.candidate unexpected output")
				continue
			}
			tool := Tool{ID: entry.ID, Path: path, Output: output, Version: ParseVersion(output)}
			log.Info().Str("tool", entry.ID).Str("path", path).Str("version", versionString(tool.Version)).Msg("toolchain.found")
			return tool, nil
		}
	}
	return Tool{}, fmt.Errorf("%w: %s", ErrToolNotFound, entry.ID)
}

// LocateByID resolves a built-in entry by id.
func (f *Finder) LocateByID(id string) (Tool, error) {
	entry, ok := BuiltinEntry(id)
	if !ok {
		return Tool{}, fmt.Errorf("%w: unknown tool %q", ErrToolNotFound, id)
	}
	return f.Locate(entry)
}

var versionPattern = regexp.MustCompile(`\d+\.\d+(\.\d+)?`)

// ParseVersion extracts the first dotted version token from tool output.
func ParseVersion(output string) *semver.Version {
	token := versionPattern.FindString(output)
	if token == "" {
		return nil
	}
	v, err := semver.NewVersion(token)
	if err != nil {
		return nil
	}
	return v
}

func versionString(v *semver.Version) string {
	if v == nil {
		return "unknown"
	}
	return v.String()
}

// expandCandidate resolves "~" and glob patterns. Plain command names are
// returned as-is so PATH lookup happens inside the runner.
func expandCandidate(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "~") {
		expanded, err := homedir.Expand(raw)
		if err != nil {
			return nil
		}
		raw = expanded
	}
	if !strings.ContainsAny(raw, "*?[") {
		return []string{raw}
	}
	matches, err := filepath.Glob(raw)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if isExecutable(m) {
			out = append(out, m)
		}
	}
	return out
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
