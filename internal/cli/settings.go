package cli

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/meshu3d/internal/config"
)

// Overlay holds the per-command table, e.g. [mesh2pdf] simplify = 5000.
type Overlay struct {
	Clean       bool
	Simplify    int
	Verify      bool
	Preview     bool
	Placeholder bool
	NoFallback  bool
	NativeSTL   bool
	Yes         bool
	Title       string
}

// Settings is the resolved configuration for one command run.
type Settings struct {
	Config  config.Config
	Command Overlay

	// defined holds the keys present in the command's table.
	defined map[string]bool
}

// Defined reports whether the command's table set key, so a zero value in
// the file can be told apart from an absent key.
func (s Settings) Defined(key string) bool {
	return s.defined[key]
}

// overlayFile is the key mapping of a per-command table.
type overlayFile struct {
	OutputDir        string `toml:"output_dir"`
	KeepIntermediate bool   `toml:"keep_intermediate"`
	Locale           string `toml:"locale"`
	Clean            bool   `toml:"clean"`
	Simplify         int    `toml:"simplify"`
	Verify           bool   `toml:"verify"`
	Preview          bool   `toml:"preview"`
	Placeholder      bool   `toml:"placeholder"`
	NoFallback       bool   `toml:"no_fallback"`
	NativeSTL        bool   `toml:"native_stl"`
	Yes              bool   `toml:"yes"`
	Title            string `toml:"title"`
}

// Load reads the shared config and the [command] table from path. An empty
// path yields the defaults.
func Load(path, command string) (Settings, error) {
	s := Settings{Config: config.Default()}
	if strings.TrimSpace(path) == "" {
		return s, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return Settings{}, err
	}
	s.Config = cfg
	if err := applyOverlay(path, command, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func applyOverlay(path, command string, s *Settings) error {
	var tables map[string]toml.Primitive
	meta, err := toml.DecodeFile(path, &tables)
	if err != nil {
		return fmt.Errorf("load %s overlay: %w", command, err)
	}
	prim, ok := tables[command]
	if !ok || !meta.IsDefined(command) {
		return nil
	}
	var raw overlayFile
	if err := meta.PrimitiveDecode(prim, &raw); err != nil {
		return fmt.Errorf("parse [%s]: %w", command, err)
	}
	s.defined = make(map[string]bool)
	for _, key := range meta.Keys() {
		if len(key) == 2 && key[0] == command {
			s.defined[key[1]] = true
		}
	}

	if meta.IsDefined(command, "output_dir") {
		if dir := strings.TrimSpace(raw.OutputDir); dir != "" {
			s.Config.OutputDir = dir
		}
	}
	if meta.IsDefined(command, "keep_intermediate") {
		s.Config.KeepIntermediate = raw.KeepIntermediate
	}
	if meta.IsDefined(command, "locale") {
		if locale := strings.TrimSpace(raw.Locale); locale != "" {
			s.Config.Locale = locale
		}
	}
	if meta.IsDefined(command, "clean") {
		s.Command.Clean = raw.Clean
	}
	if meta.IsDefined(command, "simplify") {
		if raw.Simplify < 0 {
			return fmt.Errorf("parse [%s]: simplify must be >= 0", command)
		}
		s.Command.Simplify = raw.Simplify
	}
	if meta.IsDefined(command, "verify") {
		s.Command.Verify = raw.Verify
	}
	if meta.IsDefined(command, "preview") {
		s.Command.Preview = raw.Preview
	}
	if meta.IsDefined(command, "placeholder") {
		s.Command.Placeholder = raw.Placeholder
	}
	if meta.IsDefined(command, "no_fallback") {
		s.Command.NoFallback = raw.NoFallback
	}
	if meta.IsDefined(command, "native_stl") {
		s.Command.NativeSTL = raw.NativeSTL
	}
	if meta.IsDefined(command, "yes") {
		s.Command.Yes = raw.Yes
	}
	if meta.IsDefined(command, "title") {
		s.Command.Title = strings.TrimSpace(raw.Title)
	}
	return nil
}
