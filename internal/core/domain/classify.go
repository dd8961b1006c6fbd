package domain

import (
	"sort"
	"strings"
)

// Infer derives a domain assignment from an entry's tags by keyword
// overlap. The primary domain is the one sharing the most tokens with the
// tags (ties broken alphabetically); secondary domains are the primary's
// related list intersected with the other matching domains. Returns an
// empty primary when no keyword matches.
//
// This is advisory only: callers never write the result back to an entry
// without explicit opt-in.
func Infer(tags []string) (primary string, secondary []string) {
	if len(tags) == 0 {
		return "", nil
	}

	scores := make(map[string]int)
	for name, info := range Taxonomy {
		for _, keyword := range info.Keywords {
			for _, tag := range tags {
				if strings.Contains(strings.ToLower(tag), strings.ToLower(keyword)) {
					scores[name]++
				}
			}
		}
	}
	if len(scores) == 0 {
		return "", nil
	}

	matched := make([]string, 0, len(scores))
	for name := range scores {
		matched = append(matched, name)
	}
	// Alphabetical order makes the max tie-break deterministic.
	sort.Strings(matched)

	primary = matched[0]
	for _, name := range matched[1:] {
		if scores[name] > scores[primary] {
			primary = name
		}
	}

	for _, rel := range Taxonomy[primary].Related {
		if _, ok := scores[rel]; ok {
			secondary = append(secondary, rel)
		}
	}
	return primary, secondary
}
