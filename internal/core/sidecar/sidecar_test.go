package sidecar

import (
	"testing"
	"time"
)

func TestPathFor(t *testing.T) {
	cases := map[string]string{
		"kb/async.yaml":      "kb/async_meta.yaml",
		"docker-issues.yaml": "docker-issues_meta.yaml",
		"noext":              "noext_meta.yaml",
	}
	for in, want := range cases {
		if got := PathFor(in); got != want {
			t.Errorf("PathFor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNextCheckDue(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	cases := map[string]time.Time{
		"critical": from.AddDate(0, 0, 30),
		"high":     from.AddDate(0, 0, 60),
		"medium":   from.AddDate(0, 0, 90),
		"low":      from.AddDate(0, 0, 180),
		"":         from.AddDate(0, 0, 90),
	}
	for severity, want := range cases {
		if got := NextCheckDue(severity, from); !got.Equal(want) {
			t.Errorf("NextCheckDue(%q) = %v, want %v", severity, got, want)
		}
	}
}

func TestRecord_BumpsVersionAndAppendsHistory(t *testing.T) {
	sc := &Sidecar{Entries: map[string]*EntryMetadata{}}
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	sc.Record("metadata_initialized", "agent-1", "", []string{"ASYNC-001"}, now)
	sc.Record("version_checked", "agent-2", "quarterly sweep", []string{"ASYNC-001"}, now.Add(time.Hour))

	if sc.FileMetadata.Version != 2 {
		t.Fatalf("expected version 2 after two mutations, got %d", sc.FileMetadata.Version)
	}
	if len(sc.ChangeHistory) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(sc.ChangeHistory))
	}
	if sc.ChangeHistory[0].Action != "metadata_initialized" {
		t.Errorf("history order changed: %v", sc.ChangeHistory)
	}
	if sc.ChangeHistory[1].Reason != "quarterly sweep" {
		t.Errorf("reason lost: %+v", sc.ChangeHistory[1])
	}
}

func TestParseMarshal_RoundTrip(t *testing.T) {
	sc := &Sidecar{
		Version: "1.0",
		FileMetadata: FileMetadata{
			FileID:     "async.yaml",
			Version:    3,
			EntryCount: 1,
		},
		Entries: map[string]*EntryMetadata{
			"ASYNC-001": {
				EntryID:             "ASYNC-001",
				ValidationStatus:    StatusValidated,
				NextVersionCheckDue: "2026-10-01T00:00:00Z",
			},
		},
		ChangeHistory: []ChangeRecord{
			{Timestamp: "2026-08-30T12:00:00Z", Action: "metadata_initialized", Agent: "a"},
		},
	}

	data, err := sc.Marshal()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	again, err := Parse(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if again.FileMetadata.Version != 3 {
		t.Errorf("version lost: %d", again.FileMetadata.Version)
	}
	if again.Entries["ASYNC-001"].ValidationStatus != StatusValidated {
		t.Errorf("entry metadata lost: %+v", again.Entries["ASYNC-001"])
	}
	if len(again.ChangeHistory) != 1 {
		t.Errorf("history lost: %v", again.ChangeHistory)
	}
}
