// Package sidecar models the per-file metadata companion (`foo_meta.yaml`)
// that tracks mutable state for entries without altering them. Sidecars
// are regenerable from entry content plus a monotonic timeline; loss of a
// sidecar is recoverable, loss of an entry is not.
package sidecar

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Validation statuses for tracked entries.
const (
	StatusNeedsReview = "needs_review"
	StatusValidated   = "validated"
	StatusOutdated    = "outdated"
	StatusDeprecated  = "deprecated"
)

// CheckIntervals maps entry severity to the days until the next version
// check is due.
var CheckIntervals = map[string]int{
	"critical": 30,
	"high":     60,
	"medium":   90,
	"low":      180,
}

// DefaultCheckInterval applies when severity is unknown or absent.
const DefaultCheckInterval = 90

// NextCheckDue computes the next version-check deadline for a severity.
func NextCheckDue(severity string, from time.Time) time.Time {
	days, ok := CheckIntervals[severity]
	if !ok {
		days = DefaultCheckInterval
	}
	return from.AddDate(0, 0, days)
}

// EntryMetadata is the tracked state for one entry id.
type EntryMetadata struct {
	EntryID             string            `yaml:"entry_id"`
	CreatedAt           string            `yaml:"created_at"`
	LastModified        string            `yaml:"last_modified"`
	LastAnalyzedAt      string            `yaml:"last_analyzed_at,omitempty"`
	QualityScore        *int              `yaml:"quality_score,omitempty"`
	ValidationStatus    string            `yaml:"validation_status"`
	NextVersionCheckDue string            `yaml:"next_version_check_due"`
	TestedVersions      map[string]string `yaml:"tested_versions,omitempty"`
	IsDeprecated        bool              `yaml:"is_deprecated"`
	SupersededBy        string            `yaml:"superseded_by,omitempty"`
}

// ChangeRecord is one append-only history line.
type ChangeRecord struct {
	Timestamp       string   `yaml:"timestamp"`
	Action          string   `yaml:"action"`
	Agent           string   `yaml:"agent"`
	EntriesAffected []string `yaml:"entries_affected"`
	Reason          string   `yaml:"reason,omitempty"`
}

// FileMetadata is the sidecar header. Version increases by exactly one on
// every mutation.
type FileMetadata struct {
	FileID       string `yaml:"file_id"`
	CreatedAt    string `yaml:"created_at"`
	LastModified string `yaml:"last_modified"`
	Version      int    `yaml:"version"`
	EntryCount   int    `yaml:"entry_count"`
}

// Sidecar is the full metadata file: header, per-entry records keyed by
// entry id, and the append-only change history.
type Sidecar struct {
	Version       string                    `yaml:"version"`
	FileMetadata  FileMetadata              `yaml:"file_metadata"`
	Entries       map[string]*EntryMetadata `yaml:"entries"`
	ChangeHistory []ChangeRecord            `yaml:"change_history"`
}

// Parse decodes a sidecar file.
func Parse(data []byte) (*Sidecar, error) {
	var sc Sidecar
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Entries == nil {
		sc.Entries = make(map[string]*EntryMetadata)
	}
	return &sc, nil
}

// Marshal serializes the sidecar.
func (sc *Sidecar) Marshal() ([]byte, error) {
	return yaml.Marshal(sc)
}

// Record bumps the version and appends a change-history line. History is
// append-only; nothing ever removes or rewrites prior records.
func (sc *Sidecar) Record(action, agent, reason string, entryIDs []string, now time.Time) {
	stamp := now.UTC().Format(time.RFC3339)
	sc.FileMetadata.Version++
	sc.FileMetadata.LastModified = stamp
	sc.ChangeHistory = append(sc.ChangeHistory, ChangeRecord{
		Timestamp:       stamp,
		Action:          action,
		Agent:           agent,
		EntriesAffected: entryIDs,
		Reason:          reason,
	})
}

// PathFor returns the sidecar path for an entry file
// (foo.yaml -> foo_meta.yaml).
func PathFor(entryPath string) string {
	const ext = ".yaml"
	if len(entryPath) > len(ext) && entryPath[len(entryPath)-len(ext):] == ext {
		return entryPath[:len(entryPath)-len(ext)] + "_meta" + ext
	}
	return entryPath + "_meta" + ext
}
