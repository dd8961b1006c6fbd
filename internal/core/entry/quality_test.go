package entry

import "testing"

func fullErrorEntry() *Entry {
	return &Entry{
		ID:       "DOCKER-024",
		Title:    "Volume mount shadows image content",
		Severity: SeverityHigh,
		Scope:    "docker",
		Problem:  "Bind mount hides files baked into the image",
		RootCause: "The mount target overlaps the image path",
		Solution: &Solution{
			Code:        "volumes:\n  - ./src:/app/src",
			Explanation: "Mount only the subdirectory you need",
		},
		Prevention: "Review mount targets against the image layout",
		Kind:       KindError,
	}
}

func TestQuality_FullEntryWithoutTags(t *testing.T) {
	// All required fields, code, explanation, prevention, root cause,
	// no tags: 40 + 15 + 15 + 20 + 5 = 95.
	if got := Quality(fullErrorEntry()); got != 95 {
		t.Fatalf("expected quality 95, got %d", got)
	}
}

func TestQuality_FullEntryCapped(t *testing.T) {
	e := fullErrorEntry()
	e.Tags = []string{"docker", "volumes"}
	if got := Quality(e); got != 100 {
		t.Fatalf("expected quality 100, got %d", got)
	}
}

func TestQuality_RequiredOnly(t *testing.T) {
	e := &Entry{
		ID:       "ASYNC-001",
		Title:    "Bare minimum",
		Severity: SeverityLow,
		Scope:    "python",
		Problem:  "Something breaks",
		Solution: &Solution{},
		Kind:     KindError,
	}
	if got := Quality(e); got != 40 {
		t.Fatalf("expected quality 40, got %d", got)
	}
}

func TestQuality_Deterministic(t *testing.T) {
	e := fullErrorEntry()
	if Quality(e) != Quality(e) {
		t.Fatal("quality must be deterministic")
	}
}

func TestQuality_PatternEntry(t *testing.T) {
	e := &Entry{
		ID:             "ASYNC-002",
		Title:          "Bounded task group",
		Scope:          "python",
		Pattern:        "Fan out under a semaphore",
		Implementation: "Acquire before spawning",
		Kind:           KindPattern,
	}
	// All five required pattern fields, nothing else.
	if got := Quality(e); got != 40 {
		t.Fatalf("expected quality 40, got %d", got)
	}
}

func TestQualityTier(t *testing.T) {
	cases := []struct {
		score int
		tier  string
	}{
		{95, TierExcellent},
		{90, TierExcellent},
		{89, TierGood},
		{75, TierGood},
		{74, TierAcceptable},
		{60, TierAcceptable},
		{59, TierPoor},
		{40, TierPoor},
		{39, TierCritical},
		{0, TierCritical},
	}
	for _, c := range cases {
		if got := QualityTier(c.score); got != c.tier {
			t.Errorf("QualityTier(%d) = %s, want %s", c.score, got, c.tier)
		}
	}
}

func TestPreview(t *testing.T) {
	e := fullErrorEntry()
	if got := Preview(e); got != e.Problem {
		t.Errorf("expected problem as preview, got %q", got)
	}

	p := &Entry{Pattern: "Use a pool", Kind: KindPattern}
	if got := Preview(p); got != "Use a pool" {
		t.Errorf("expected pattern as preview, got %q", got)
	}

	empty := &Entry{}
	if got := Preview(empty); got != "no preview available" {
		t.Errorf("expected fallback preview, got %q", got)
	}
}
