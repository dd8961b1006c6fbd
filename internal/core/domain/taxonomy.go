// Package domain holds the fixed domain taxonomy used for progressive
// loading. The vocabulary is compiled into the binary, not a data file:
// consumers must be able to validate a manifest without fetching anything.
package domain

import "sort"

// Info describes one domain: its keyword set for tag-based inference and
// the domains it commonly co-occurs with.
type Info struct {
	Description string
	Keywords    []string
	Related     []string
}

// Taxonomy is the fixed domain vocabulary.
var Taxonomy = map[string]Info{
	"testing": {
		Description: "Test patterns, pytest, unittest, mocking",
		Keywords:    []string{"test", "pytest", "unittest", "mock", "fixture", "assert", "suite"},
		Related:     []string{"asyncio"},
	},
	"asyncio": {
		Description: "Async/await, task groups, timeouts, cancellation",
		Keywords:    []string{"async", "await", "asyncio", "task", "coroutine", "future", "timeout", "event-loop"},
		Related:     []string{"testing"},
	},
	"fastapi": {
		Description: "FastAPI framework patterns",
		Keywords:    []string{"fastapi", "dependency", "route", "websocket", "api-router", "middleware"},
		Related:     []string{"websocket", "authentication"},
	},
	"websocket": {
		Description: "WebSocket patterns and implementations",
		Keywords:    []string{"websocket", "ws", "connection", "socket"},
		Related:     []string{"fastapi", "asyncio"},
	},
	"docker": {
		Description: "Docker containers, volumes, networks",
		Keywords:    []string{"docker", "container", "volume", "network", "dockerfile", "compose"},
		Related:     []string{"deployment"},
	},
	"postgresql": {
		Description: "PostgreSQL database operations",
		Keywords:    []string{"postgres", "postgresql", "sql", "database", "query", "psycopg"},
		Related:     []string{"docker"},
	},
	"authentication": {
		Description: "Auth, CSRF, sessions, JWT",
		Keywords:    []string{"auth", "csrf", "jwt", "session", "login", "oauth", "token"},
		Related:     []string{"fastapi"},
	},
	"deployment": {
		Description: "DevOps, CI/CD, deployment",
		Keywords:    []string{"deploy", "ci", "cd", "production", "release", "kubernetes"},
		Related:     []string{"docker"},
	},
	"monitoring": {
		Description: "Logging, metrics, observability",
		Keywords:    []string{"log", "metric", "monitor", "trace", "observability", "prometheus"},
		Related:     []string{},
	},
	"performance": {
		Description: "Optimization, profiling, performance",
		Keywords:    []string{"optimize", "performance", "profile", "cache", "memory", "cpu"},
		Related:     []string{"asyncio"},
	},
	"security": {
		Description: "Security patterns and best practices",
		Keywords:    []string{"security", "vulnerability", "xss", "injection", "encryption"},
		Related:     []string{"authentication"},
	},
	"api": {
		Description: "API design and REST patterns",
		Keywords:    []string{"api", "rest", "http", "endpoint", "json", "response"},
		Related:     []string{"fastapi"},
	},
}

// Valid reports whether name is in the fixed vocabulary.
func Valid(name string) bool {
	_, ok := Taxonomy[name]
	return ok
}

// Names returns the vocabulary in lexical order.
func Names() []string {
	out := make([]string, 0, len(Taxonomy))
	for name := range Taxonomy {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RelatedPairs returns the undirected domain relationship pairs derived
// from the taxonomy, each pair once, in deterministic order.
func RelatedPairs() [][]string {
	seen := make(map[[2]string]bool)
	var pairs [][]string
	for _, name := range Names() {
		for _, rel := range Taxonomy[name].Related {
			a, b := name, rel
			if b < a {
				a, b = b, a
			}
			key := [2]string{a, b}
			if seen[key] {
				continue
			}
			seen[key] = true
			pairs = append(pairs, []string{a, b})
		}
	}
	return pairs
}

// ScopeDomain maps an entry scope to the shared-tier domain directory used
// when a submission carries no explicit domain.
func ScopeDomain(scope string) string {
	switch scope {
	case "docker", "python", "javascript", "postgresql", "universal":
		return scope
	default:
		return "universal"
	}
}
