package domain

import (
	"strings"
	"testing"
)

func TestParseManifest_Valid(t *testing.T) {
	data := []byte(`version: "2.0"
last_updated: "2026-08-30T00:00:00Z"
total_entries: 12
entries_with_domains: 9
coverage_percentage: 75.0
domains:
  testing: 4
  docker: 5
related_domains:
  - [asyncio, testing]
`)
	m, err := ParseManifest(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Domains["testing"] != 4 || m.Domains["docker"] != 5 {
		t.Errorf("unexpected domain counts: %v", m.Domains)
	}
	if got := m.DomainNames(); got[0] != "docker" || got[1] != "testing" {
		t.Errorf("expected lexical order, got %v", got)
	}
}

func TestParseManifest_RejectsNestedDomains(t *testing.T) {
	// A nested value under a domain key must fail hard and name the key.
	data := []byte(`version: "2.0"
domains:
  testing:
    count: 4
    files: [a.yaml]
`)
	_, err := ParseManifest(data)
	if err == nil {
		t.Fatal("expected error for nested domain value")
	}
	if !strings.Contains(err.Error(), "domains.testing") {
		t.Errorf("error should name the offending key path, got: %v", err)
	}
}

func TestParseManifest_RoundTrip(t *testing.T) {
	m := &Manifest{
		Version:      ManifestVersion,
		TotalEntries: 3,
		Domains:      map[string]int{"api": 3},
	}
	data, err := m.Marshal()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), "coverage_percentage:") {
		t.Errorf("manifest must use the coverage_percentage key, got:\n%s", data)
	}
	again, err := ParseManifest(data)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if again.Domains["api"] != 3 {
		t.Errorf("round trip lost counts: %v", again.Domains)
	}
}
