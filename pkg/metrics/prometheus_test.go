package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"pkg.jsn.cam/forge/pkg/forge"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveBuild("user", forge.ModeSync, 150*time.Microsecond)
	pr.IncStageFailure("user", forge.StageAfter)
	pr.IncTruncated("user")
	pr.AddPersisted("user", "document", 3)
	pr.AddPersisted("user", "document", 0)

	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) != 5 {
		t.Fatalf("expected 5 metric families, got %d", len(mfs))
	}

	if got := testutil.ToFloat64(pr.builds.WithLabelValues("user", forge.ModeSync)); got != 1 {
		t.Errorf("builds_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(pr.persisted.WithLabelValues("user", "document")); got != 3 {
		t.Errorf("persisted_total = %v, want 3", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveBuild("user", forge.ModeSync, time.Millisecond)
	pr.IncStageFailure("user", forge.StageBefore)
	pr.IncTruncated("user")
	pr.AddPersisted("user", "custom", 1)
}

func TestRecorderWiredIntoFactory(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	type node struct {
		Child *node
	}
	var f *forge.Factory[node]
	f = forge.New(func(c *forge.Capabilities[node], _ int) (node, error) {
		child, err := c.Build()
		if err != nil {
			return node{}, err
		}
		return node{Child: child}, nil
	}, forge.WithName("node"), forge.WithMaxDepth(2), forge.WithRecorder(pr))

	if _, err := f.Batch(2); err != nil {
		t.Fatalf("batch: %v", err)
	}
	failing := f.AfterBuild(func(node) (node, error) { return node{}, errors.New("boom") })
	if _, err := failing.BuildAsync(context.Background()); err == nil {
		t.Fatal("expected after hook failure")
	}

	// Each top-level build makes one nested build; the second level truncates.
	if got := testutil.ToFloat64(pr.builds.WithLabelValues("node", forge.ModeSync)); got != 4 {
		t.Errorf("sync builds = %v, want 4", got)
	}
	if got := testutil.ToFloat64(pr.truncations.WithLabelValues("node")); got < 2 {
		t.Errorf("truncations = %v, want at least 2", got)
	}
	if got := testutil.ToFloat64(pr.stageFailures.WithLabelValues("node", forge.StageAfter)); got != 1 {
		t.Errorf("after stage failures = %v, want 1", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncTruncated("category")

	path := filepath.Join(t.TempDir(), "forge.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `forge_depth_truncations_total{factory="category"} 1`) {
		t.Errorf("textfile missing truncation counter:\n%s", data)
	}
}
