package app

import (
	"context"
	"testing"

	"github.com/example/skb/internal/ports/primary"
)

func TestStats_CountsAndHealth(t *testing.T) {
	project := newMockStorage(map[string]string{
		"async.yaml": projectAsync,
	})
	shared := newMockStorage(map[string]string{
		"docker.yaml": sharedDocker,
		"broken.yaml": "version: [unclosed",
	})
	svc := NewMetricsService(project, shared, 2)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.Project.Entries != 1 {
		t.Errorf("expected 1 project entry, got %d", stats.Project.Entries)
	}
	if stats.Project.Errors != 1 || stats.Project.Patterns != 0 {
		t.Errorf("unexpected kind counts: %+v", stats.Project)
	}
	if stats.Project.BySeverity["high"] != 1 {
		t.Errorf("severity counts wrong: %v", stats.Project.BySeverity)
	}
	if stats.Project.ByVersion["1.0"] != 1 {
		t.Errorf("version counts wrong: %v", stats.Project.ByVersion)
	}

	if stats.Shared.InvalidFiles != 1 {
		t.Errorf("expected 1 invalid shared file, got %d", stats.Shared.InvalidFiles)
	}
	if stats.Shared.Entries != 1 {
		t.Errorf("invalid files must not contribute entries, got %d", stats.Shared.Entries)
	}

	// The combined view folds both tiers and carries one verdict.
	if stats.Combined == nil {
		t.Fatal("expected combined stats")
	}
	if stats.Combined.Files != 3 || stats.Combined.Entries != 2 {
		t.Errorf("unexpected combined totals: %+v", stats.Combined)
	}
	if stats.Combined.InvalidFiles != 1 {
		t.Errorf("combined view lost the invalid file count: %d", stats.Combined.InvalidFiles)
	}
	if stats.Combined.BySeverity["high"] != 2 {
		t.Errorf("combined severity counts wrong: %v", stats.Combined.BySeverity)
	}
	if stats.Combined.Health == "" {
		t.Error("combined view must carry a health verdict")
	}
}

func TestStats_HealthVerdicts(t *testing.T) {
	cases := []struct {
		avg     float64
		entries int
		want    string
	}{
		{80, 5, primary.HealthHealthy},
		{75, 5, primary.HealthHealthy},
		{74.9, 5, primary.HealthDegraded},
		{60, 5, primary.HealthDegraded},
		{59.9, 5, primary.HealthUnhealthy},
		{0, 0, primary.HealthHealthy},
	}
	for _, c := range cases {
		if got := healthVerdict(c.avg, c.entries); got != c.want {
			t.Errorf("healthVerdict(%.1f, %d) = %s, want %s", c.avg, c.entries, got, c.want)
		}
	}
}
