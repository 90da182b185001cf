package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/meshu3d/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	before := testutil.ToFloat64(convertAttempts.WithLabelValues("idtf.converter", OutcomeSuccess))
	RecordConvertAttempt("idtf.converter", OutcomeSuccess, 12*time.Millisecond)
	RecordConvertAttempt("gem.cli", OutcomeSkipped, 0)
	RecordPlaceholder("u3d")

	after := testutil.ToFloat64(convertAttempts.WithLabelValues("idtf.converter", OutcomeSuccess))
	if after != before+1 {
		t.Fatalf("attempt counter before=%v after=%v", before, after)
	}
}

func TestWriteTextfile(t *testing.T) {
	testlog.Start(t)
	RecordPlaceholder("idtf")

	path := filepath.Join(t.TempDir(), "metrics", "meshu3d.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `meshu3d_placeholder_total{kind="idtf"}`) {
		t.Fatalf("textfile missing placeholder counter:\n%s", data)
	}
}

func TestWriteTextfileEmptyPathIsNoop(t *testing.T) {
	testlog.Start(t)
	if err := WriteTextfile(""); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
