package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/danmuck/meshu3d/internal/toolchain"
	"github.com/pelletier/go-toml/v2"
)

var ErrInvalidConfig = errors.New("config: invalid")

// Config is the shared meshu3d.toml. Per-command tables are read separately
// by internal/cli.
type Config struct {
	OutputDir        string            `toml:"output_dir"`
	KeepIntermediate bool              `toml:"keep_intermediate"`
	Locale           string            `toml:"locale"`
	WorkRoot         string            `toml:"work_root"`
	MetricsTextfile  string            `toml:"metrics_textfile"`
	Tools            map[string]string `toml:"tools"`
	Convert          ConvertConfig     `toml:"convert"`
	PDF              PDFConfig         `toml:"pdf"`
	Preview          PreviewConfig     `toml:"preview"`
}

type ConvertConfig struct {
	IDTFOrder []string `toml:"idtf_order"`
	STLOrder  []string `toml:"stl_order"`
	// Commands maps a strategy id to a command template.
	Commands map[string]string `toml:"commands"`
}

type PDFConfig struct {
	Title  string  `toml:"title"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

type PreviewConfig struct {
	Size        int `toml:"size"`
	Supersample int `toml:"supersample"`
}

func Default() Config {
	return Config{
		OutputDir: "output",
		Locale:    "en_US.UTF-8",
		Tools:     map[string]string{},
		Convert:   ConvertConfig{Commands: map[string]string{}},
		PDF:       PDFConfig{Width: 612, Height: 792},
		Preview:   PreviewConfig{Size: 256, Supersample: 2},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := loadToml(path, &cfg); err != nil {
		return Config{}, err
	}
	fillDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func fillDefaults(cfg *Config) {
	def := Default()
	if strings.TrimSpace(cfg.OutputDir) == "" {
		cfg.OutputDir = def.OutputDir
	}
	if strings.TrimSpace(cfg.Locale) == "" {
		cfg.Locale = def.Locale
	}
	if cfg.Tools == nil {
		cfg.Tools = map[string]string{}
	}
	if cfg.Convert.Commands == nil {
		cfg.Convert.Commands = map[string]string{}
	}
	if cfg.PDF.Width == 0 && cfg.PDF.Height == 0 {
		cfg.PDF.Width, cfg.PDF.Height = def.PDF.Width, def.PDF.Height
	}
	if cfg.Preview.Size == 0 {
		cfg.Preview.Size = def.Preview.Size
	}
	if cfg.Preview.Supersample == 0 {
		cfg.Preview.Supersample = def.Preview.Supersample
	}
}

func Validate(cfg Config) error {
	known := make(map[string]struct{})
	for _, id := range toolchain.BuiltinIDs() {
		known[id] = struct{}{}
	}
	for _, id := range sortedKeys(cfg.Tools) {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: tools.%s is not a known tool (want one of %s)", ErrInvalidConfig, id, strings.Join(toolchain.BuiltinIDs(), ","))
		}
	}
	for _, id := range sortedKeys(cfg.Convert.Commands) {
		line := cfg.Convert.Commands[id]
		if strings.TrimSpace(line) == "" {
			return fmt.Errorf("%w: convert.commands.%s is empty", ErrInvalidConfig, id)
		}
		if !strings.Contains(line, "{output}") {
			return fmt.Errorf("%w: convert.commands.%s missing {output}", ErrInvalidConfig, id)
		}
	}
	for i, id := range cfg.Convert.IDTFOrder {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: convert.idtf_order[%d] is empty", ErrInvalidConfig, i)
		}
	}
	for i, id := range cfg.Convert.STLOrder {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: convert.stl_order[%d] is empty", ErrInvalidConfig, i)
		}
	}
	if cfg.PDF.Width < 0 || cfg.PDF.Height < 0 || (cfg.PDF.Width == 0) != (cfg.PDF.Height == 0) {
		return fmt.Errorf("%w: pdf width/height must both be positive", ErrInvalidConfig)
	}
	if cfg.Preview.Size < 16 || cfg.Preview.Size > 4096 {
		return fmt.Errorf("%w: preview.size=%d out of range 16..4096", ErrInvalidConfig, cfg.Preview.Size)
	}
	if cfg.Preview.Supersample < 1 || cfg.Preview.Supersample > 8 {
		return fmt.Errorf("%w: preview.supersample=%d out of range 1..8", ErrInvalidConfig, cfg.Preview.Supersample)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
