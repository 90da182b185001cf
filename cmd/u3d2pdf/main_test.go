package main

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/danmuck/meshu3d/internal/cli"
	"github.com/danmuck/meshu3d/internal/pdf3d"
	"github.com/danmuck/meshu3d/internal/testutil/testlog"
)

func TestRunDummyWritesVerifiedPDF(t *testing.T) {
	testlog.Start(t)
	t.Setenv(cli.EnvConfig, "")
	out := filepath.Join(t.TempDir(), "model_3d.pdf")
	if err := run([]string{"-dummy", "-verify", "-title", "Skittle", "model.u3d", out}); err != nil {
		t.Fatalf("run: %v", err)
	}
	report, err := pdf3d.Inspect(out)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if report.Pages != 1 || len(report.Annotations) != 1 {
		t.Fatalf("report: pages=%d annotations=%d", report.Pages, len(report.Annotations))
	}
}

func TestRunWithoutInputIsUsageError(t *testing.T) {
	testlog.Start(t)
	if err := run(nil); !errors.Is(err, cli.ErrUsage) {
		t.Fatalf("expected ErrUsage, got %v", err)
	}
}
