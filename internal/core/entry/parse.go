package entry

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/skb/internal/core/domain"
)

// idPattern is the conventional entry id shape (CATEGORY-NNN). Violations
// are warnings, not errors, so grandfathered ids keep loading.
var idPattern = regexp.MustCompile(`^[A-Z_]+-\d{3,}$`)

// yamlLineHint pulls a line number out of a yaml.v3 error message.
var yamlLineHint = regexp.MustCompile(`line (\d+)`)

// Required fields per entry kind.
var (
	requiredErrorFields   = []string{"id", "title", "severity", "scope", "problem", "solution"}
	requiredPatternFields = []string{"id", "title", "scope", "pattern", "implementation"}
)

// ParseFile parses one YAML entry file and validates it against the
// envelope and entry schemas. All findings are collected into the report;
// nothing short-circuits. Parsing the same bytes twice yields an equal
// report.
func ParseFile(filePath string, data []byte) *FileReport {
	report := &FileReport{FilePath: filePath}

	var env Envelope
	if err := yaml.Unmarshal(data, &env); err != nil {
		report.Errors = append(report.Errors, Diagnostic{
			FilePath: filePath,
			Kind:     DiagSyntax,
			Severity: "error",
			Line:     lineHint(err),
			Message:  fmt.Sprintf("YAML syntax error: %v", err),
		})
		return report
	}

	if isEmptyDocument(data) {
		report.addWarning(DiagEmptyContent, "", "file has no entries")
		return report
	}

	report.Envelope = &env
	validateEnvelope(report, &env)
	for i := range env.Errors {
		validateEntry(report, &env.Errors[i], KindError, fmt.Sprintf("errors[%d]", i))
	}
	for i := range env.Patterns {
		validateEntry(report, &env.Patterns[i], KindPattern, fmt.Sprintf("patterns[%d]", i))
	}

	if report.Valid() {
		report.Entries = env.Entries()
	}
	return report
}

// isEmptyDocument reports whether the YAML document decodes to nothing
// (blank file, only comments, or an explicit null).
func isEmptyDocument(data []byte) bool {
	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return false
	}
	return node == nil
}

func lineHint(err error) int {
	m := yamlLineHint.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return 0
	}
	return n
}

func validateEnvelope(report *FileReport, env *Envelope) {
	if env.Version == "" {
		report.addError(DiagSchema, "version", "missing required field: version")
	}
	if env.Category == "" {
		report.addError(DiagSchema, "category", "missing required field: category")
	}
	if env.LastUpdated == "" {
		report.addError(DiagSchema, "last_updated", "missing required field: last_updated")
	}
	if len(env.Errors) > 0 && len(env.Patterns) > 0 {
		report.addError(DiagSchema, "errors", "file must hold errors or patterns, not both")
	}
	if len(env.Errors) == 0 && len(env.Patterns) == 0 {
		report.addWarning(DiagEmptyContent, "errors", "file has no errors or patterns")
	}
}

func validateEntry(report *FileReport, e *Entry, kind Kind, prefix string) {
	required := requiredErrorFields
	if kind == KindPattern {
		required = requiredPatternFields
	}

	for _, field := range required {
		if !hasField(e, field) {
			report.addError(DiagSchema, prefix+"."+field, "missing required field: "+field)
		}
	}

	if e.ID != "" && !idPattern.MatchString(e.ID) {
		report.addWarning(DiagFormat, prefix+".id",
			fmt.Sprintf("id should match CATEGORY-NNN (e.g. DOCKER-024), got: %s", e.ID))
	}

	if e.Severity != "" && !IsValidSeverity(e.Severity) {
		report.addError(DiagSchema, prefix+".severity",
			fmt.Sprintf("invalid severity: %s (allowed: %s)", e.Severity, strings.Join(ValidSeverities, ", ")))
	}

	if e.Scope != "" && !IsValidScope(e.Scope) {
		report.addError(DiagSchema, prefix+".scope",
			fmt.Sprintf("invalid scope: %s (allowed: %s)", e.Scope, strings.Join(ValidScopes, ", ")))
	}

	if e.Solution != nil && e.Solution.Code == "" && e.Solution.Explanation == "" {
		report.addWarning(DiagIncomplete, prefix+".solution", "solution should have code or explanation")
	}

	if e.Domains != nil {
		if e.Domains.Primary == "" {
			report.addError(DiagSchema, prefix+".domains.primary", "domains block requires a primary domain")
		} else if !domain.Valid(e.Domains.Primary) {
			report.addError(DiagSchema, prefix+".domains.primary",
				fmt.Sprintf("unknown domain: %s (allowed: %s)", e.Domains.Primary, strings.Join(domain.Names(), ", ")))
		}
		for i, name := range e.Domains.Secondary {
			if !domain.Valid(name) {
				report.addError(DiagSchema, fmt.Sprintf("%s.domains.secondary[%d]", prefix, i),
					fmt.Sprintf("unknown domain: %s (allowed: %s)", name, strings.Join(domain.Names(), ", ")))
			}
		}
	}
}

func hasField(e *Entry, field string) bool {
	switch field {
	case "id":
		return e.ID != ""
	case "title":
		return e.Title != ""
	case "severity":
		return e.Severity != ""
	case "scope":
		return e.Scope != ""
	case "problem":
		return e.Problem != ""
	case "pattern":
		return e.Pattern != ""
	case "implementation":
		return e.Implementation != ""
	case "solution":
		return e.Solution != nil
	default:
		return false
	}
}
