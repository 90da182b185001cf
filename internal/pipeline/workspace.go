package pipeline

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Workspace is the per-run temporary directory.
type Workspace struct {
	Dir  string
	Keep bool
}

func NewWorkspace(root string, keep bool) (*Workspace, error) {
	if root != "" {
		if err := os.MkdirAll(root, 0o755); err != nil {
			return nil, err
		}
	}
	dir, err := os.MkdirTemp(root, "meshu3d-*")
	if err != nil {
		return nil, err
	}
	log.Debug().Str("dir", dir).Msg("pipeline.workspace created")
	return &Workspace{Dir: dir, Keep: keep}, nil
}

func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.Dir}, elem...)...)
}

// Cleanup removes the directory unless Keep is set. Failures are logged only.
func (w *Workspace) Cleanup() {
	if w == nil || w.Dir == "" {
		return
	}
	if w.Keep {
		log.Info().Str("dir", w.Dir).Msg("pipeline.workspace kept")
		return
	}
	if err := os.RemoveAll(w.Dir); err != nil {
		log.Warn().Err(err).Str("dir", w.Dir).Msg("pipeline.workspace cleanup failed")
		return
	}
	log.Debug().Str("dir", w.Dir).Msg("pipeline.workspace removed")
}

func (c *Converter) workspace() (*Workspace, error) {
	return NewWorkspace(c.workRoot, c.keep)
}
