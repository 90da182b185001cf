package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meshu3d.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestTemplateLoadsAndValidates(t *testing.T) {
	path := writeConfig(t, Template())
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg.OutputDir != "output" || cfg.Locale != "en_US.UTF-8" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.PDF.Width != 612 || cfg.PDF.Height != 792 {
		t.Fatalf("pdf size=%vx%v", cfg.PDF.Width, cfg.PDF.Height)
	}
}

func TestLoadFillsDefaultsForPartialFile(t *testing.T) {
	path := writeConfig(t, "keep_intermediate = true\n[tools]\nblender = \"/opt/blender\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.KeepIntermediate {
		t.Fatalf("keep_intermediate not applied")
	}
	if cfg.Tools["blender"] != "/opt/blender" {
		t.Fatalf("tools=%v", cfg.Tools)
	}
	if cfg.Preview.Size != 256 || cfg.Preview.Supersample != 2 {
		t.Fatalf("preview defaults missing: %+v", cfg.Preview)
	}
	if cfg.Convert.Commands == nil {
		t.Fatalf("commands map should be initialised")
	}
}

func TestValidateRejectsUnknownTool(t *testing.T) {
	path := writeConfig(t, "[tools]\nmaya = \"/usr/bin/maya\"\n")
	_, err := Load(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if !strings.Contains(err.Error(), "tools.maya") {
		t.Fatalf("error should name the key: %v", err)
	}
}

func TestValidateRejectsCommandWithoutOutput(t *testing.T) {
	path := writeConfig(t, "[convert.commands]\n\"my.tool\" = \"mytool {input}\"\n")
	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateRejectsBadPreviewSize(t *testing.T) {
	cfg := Default()
	cfg.Preview.Size = 4
	if err := Validate(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil || !strings.Contains(err.Error(), "config load failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	path := writeConfig(t, "")
	if err := WriteTemplate(path, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}
