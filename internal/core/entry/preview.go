package entry

import "strings"

// previewMax is the rough cap on preview length.
const previewMax = 200

// Preview extracts a short display snippet from an entry, preferring
// problem text, then root cause, then the first lines of solution code.
func Preview(e *Entry) string {
	if e.Problem != "" {
		return firstLine(e.Problem)
	}
	if e.Pattern != "" {
		return firstLine(e.Pattern)
	}
	if e.RootCause != "" {
		return firstLine(e.RootCause)
	}
	if e.Solution != nil && e.Solution.Code != "" {
		lines := strings.Split(strings.TrimSpace(e.Solution.Code), "\n")
		if len(lines) > 3 {
			lines = lines[:3]
		}
		return truncate(strings.Join(lines, "\n"))
	}
	return "no preview available"
}

func firstLine(s string) string {
	line := strings.SplitN(strings.TrimSpace(s), "\n", 2)[0]
	return truncate(line)
}

func truncate(s string) string {
	if len(s) <= previewMax {
		return s
	}
	return s[:previewMax-3] + "..."
}
