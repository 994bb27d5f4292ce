package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeStats struct{ pending, inFlight int }

func (f fakeStats) PendingCount() int  { return f.pending }
func (f fakeStats) InFlightCount() int { return f.inFlight }

func TestCollectorReportsWatcherState(t *testing.T) {
	c := NewCollector(nil, fakeStats{pending: 3, inFlight: 1})
	if n := testutil.CollectAndCount(c); n != 5 {
		t.Errorf("collected %d metrics, want 5", n)
	}
	expected := `
# HELP chaptr_ingest_pending_files Files waiting out the debounce window.
# TYPE chaptr_ingest_pending_files gauge
chaptr_ingest_pending_files 3
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected), "chaptr_ingest_pending_files"); err != nil {
		t.Error(err)
	}
}

func TestCollectorNilSources(t *testing.T) {
	c := NewCollector(nil, nil)
	if n := testutil.CollectAndCount(c); n != 5 {
		t.Errorf("collected %d metrics, want 5", n)
	}
}

func TestWriteFile(t *testing.T) {
	RunsTotal.WithLabelValues("fallback").Inc()
	path := filepath.Join(t.TempDir(), "chaptr.prom")
	if err := WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `chaptr_runs_total{outcome="fallback"}`) {
		t.Errorf("textfile missing runs counter:\n%s", data)
	}
}
