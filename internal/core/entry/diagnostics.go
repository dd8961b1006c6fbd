package entry

import "fmt"

// DiagKind classifies a parser or validator finding.
type DiagKind string

const (
	DiagSyntax        DiagKind = "syntax"
	DiagSchema        DiagKind = "schema"
	DiagFormat        DiagKind = "format"
	DiagEmptyContent  DiagKind = "empty_content"
	DiagIncomplete    DiagKind = "incomplete_solution"
	DiagNotFound      DiagKind = "not_found"
	DiagUnreadable    DiagKind = "unreadable"
	DiagConflict      DiagKind = "conflict"
	DiagStaleness     DiagKind = "staleness"
)

// Diagnostic is a single validation finding. Hard errors have
// Severity "error"; tolerable findings have Severity "warning".
type Diagnostic struct {
	FilePath  string   `json:"file_path" yaml:"file_path"`
	Kind      DiagKind `json:"kind" yaml:"kind"`
	Severity  string   `json:"severity" yaml:"severity"`
	FieldPath string   `json:"field_path,omitempty" yaml:"field_path,omitempty"`
	Line      int      `json:"line,omitempty" yaml:"line,omitempty"`
	Message   string   `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	loc := d.FilePath
	if d.Line > 0 {
		loc = fmt.Sprintf("%s:%d", d.FilePath, d.Line)
	}
	if d.FieldPath != "" {
		return fmt.Sprintf("%s: %s: %s: %s", loc, d.Kind, d.FieldPath, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", loc, d.Kind, d.Message)
}

// FileReport is the collect-then-report result of parsing one file. The
// parser never short-circuits: Errors and Warnings carry every finding and
// callers decide policy.
type FileReport struct {
	FilePath string       `json:"file_path"`
	Envelope *Envelope    `json:"-"`
	Entries  []Entry      `json:"-"`
	Errors   []Diagnostic `json:"errors"`
	Warnings []Diagnostic `json:"warnings"`
}

// Valid reports whether the file parsed with no hard errors. Warnings do
// not affect validity.
func (r *FileReport) Valid() bool {
	return len(r.Errors) == 0
}

func (r *FileReport) addError(kind DiagKind, fieldPath, msg string) {
	r.Errors = append(r.Errors, Diagnostic{
		FilePath: r.FilePath, Kind: kind, Severity: "error", FieldPath: fieldPath, Message: msg,
	})
}

func (r *FileReport) addWarning(kind DiagKind, fieldPath, msg string) {
	r.Warnings = append(r.Warnings, Diagnostic{
		FilePath: r.FilePath, Kind: kind, Severity: "warning", FieldPath: fieldPath, Message: msg,
	})
}
