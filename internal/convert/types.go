package convert

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/meshu3d/internal/mesh"
)

var (
	// ErrSkipped marks a strategy that could not run at all, usually
	// because its tool is missing or the input is the wrong kind.
	ErrSkipped       = errors.New("convert: strategy skipped")
	ErrAllFailed     = errors.New("convert: all strategies failed")
	ErrCommandFailed = errors.New("convert: command failed")
	ErrInvalidJob    = errors.New("convert: invalid job")
)

// StrategyMetadata is the identity of one strategy.
type StrategyMetadata struct {
	ID          string
	Name        string
	Description string
	// Tools lists the toolchain entry ids the strategy shells out to.
	Tools []string
}

// Strategy converts Job.Input into Job.Output.
type Strategy interface {
	Metadata() StrategyMetadata
	Convert(job Job) error
}

// Job is one conversion request.
type Job struct {
	Input  string
	Output string
	// WorkDir receives scripts and intermediates. Defaults to the output directory.
	WorkDir string
	// Mesh is the parsed input when the caller already has it.
	Mesh *mesh.Mesh
}

func (j Job) workDir() string {
	if strings.TrimSpace(j.WorkDir) != "" {
		return j.WorkDir
	}
	return filepath.Dir(j.Output)
}

func (j Job) ensureWorkDir() (string, error) {
	dir := j.workDir()
	return dir, os.MkdirAll(dir, 0o755)
}

func (j Job) inputExt() string {
	return strings.ToLower(filepath.Ext(j.Input))
}

func (j Job) stem() string {
	base := filepath.Base(j.Input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (j Job) loadMesh() (*mesh.Mesh, error) {
	if j.Mesh != nil {
		return j.Mesh, nil
	}
	return mesh.Load(j.Input)
}
