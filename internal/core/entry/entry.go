// Package entry defines the knowledge entry model: the YAML file envelope,
// the entry schema, the collect-then-report parser, and the quality score.
package entry

import (
	"sort"

	"gopkg.in/yaml.v3"
)

// Kind distinguishes error entries (failure + fix) from pattern entries
// (reusable approach).
type Kind string

const (
	KindError   Kind = "error"
	KindPattern Kind = "pattern"
)

// Severity levels, highest first.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// ValidSeverities is the closed set of severity values.
var ValidSeverities = []string{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// ValidScopes is the closed set of scope values.
var ValidScopes = []string{"universal", "python", "javascript", "docker", "postgresql", "vps", "framework", "project"}

// severityRank orders severities for search ranking (lower is more severe).
var severityRank = map[string]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// SeverityRank returns the sort rank for a severity (unknown values sort last).
func SeverityRank(severity string) int {
	if r, ok := severityRank[severity]; ok {
		return r
	}
	return len(severityRank)
}

// IsValidSeverity reports whether the value is in the closed severity set.
func IsValidSeverity(v string) bool {
	_, ok := severityRank[v]
	return ok
}

// IsValidScope reports whether the value is in the closed scope set.
func IsValidScope(v string) bool {
	for _, s := range ValidScopes {
		if s == v {
			return true
		}
	}
	return false
}

// Solution is the structured fix attached to an entry. Either field may be
// empty but validation warns when both are.
type Solution struct {
	Code        string `yaml:"code,omitempty"`
	Explanation string `yaml:"explanation,omitempty"`
}

// Domains carries the explicit domain assignment of an entry. Primary is
// drawn from the fixed taxonomy; Secondary lists related domains.
type Domains struct {
	Primary   string   `yaml:"primary"`
	Secondary []string `yaml:"secondary,omitempty"`
}

// Entry is the atomic unit of knowledge. Error entries use Problem;
// pattern entries use Pattern and Implementation. Category is inherited
// from the containing file.
type Entry struct {
	ID             string            `yaml:"id"`
	Title          string            `yaml:"title"`
	Severity       string            `yaml:"severity,omitempty"`
	Scope          string            `yaml:"scope,omitempty"`
	Problem        string            `yaml:"problem,omitempty"`
	Pattern        string            `yaml:"pattern,omitempty"`
	Implementation string            `yaml:"implementation,omitempty"`
	Symptoms       []string          `yaml:"symptoms,omitempty"`
	RootCause      string            `yaml:"root_cause,omitempty"`
	Solution       *Solution         `yaml:"solution,omitempty"`
	Prevention     string            `yaml:"prevention,omitempty"`
	Tags           []string          `yaml:"tags,omitempty"`
	Domains        *Domains          `yaml:"domains,omitempty"`
	TestedVersions map[string]string `yaml:"tested_versions,omitempty"`

	// Kind and Category are derived from the envelope, not serialized
	// with the entry itself.
	Kind     Kind   `yaml:"-"`
	Category string `yaml:"-"`
}

// Envelope is the file-level YAML wrapper. Exactly one of Errors or
// Patterns holds the entries; Version is opaque (no migration story yet).
type Envelope struct {
	Version     string  `yaml:"version"`
	Category    string  `yaml:"category"`
	LastUpdated string  `yaml:"last_updated,omitempty"`
	Errors      []Entry `yaml:"errors,omitempty"`
	Patterns    []Entry `yaml:"patterns,omitempty"`
}

// Entries returns all entries in the envelope with Kind and Category set.
func (env *Envelope) Entries() []Entry {
	out := make([]Entry, 0, len(env.Errors)+len(env.Patterns))
	for _, e := range env.Errors {
		e.Kind = KindError
		e.Category = env.Category
		out = append(out, e)
	}
	for _, e := range env.Patterns {
		e.Kind = KindPattern
		e.Category = env.Category
		out = append(out, e)
	}
	return out
}

// Marshal serializes the envelope in canonical form: version, category,
// last_updated, then the entry list. Re-parsing the output yields an equal
// structure.
func (env *Envelope) Marshal() ([]byte, error) {
	return yaml.Marshal(env)
}

// SearchableText returns the fields substring search matches against, in
// salience order: id and title first, then body text.
func (e *Entry) SearchableText() (head []string, body []string) {
	head = []string{e.ID, e.Title}
	body = append(body, e.Problem, e.Pattern, e.RootCause, e.Implementation)
	if e.Solution != nil {
		body = append(body, e.Solution.Code, e.Solution.Explanation)
	}
	body = append(body, e.Tags...)
	return head, body
}

// SortedTags returns a copy of the entry's tags in lexical order.
func (e *Entry) SortedTags() []string {
	out := append([]string(nil), e.Tags...)
	sort.Strings(out)
	return out
}
