package stage1

import (
	"testing"
	"time"

	"taxonomy/internal/model"
	"taxonomy/internal/settings"
)

func rawCandidate(t *testing.T, label, normalized string, aliases, parents []string) RawCandidate {
	t.Helper()
	rec, err := model.NewSourceRecord("Some evidence text.", model.Provenance{Institution: "State University", URL: "https://example.edu", FetchedAt: time.Now().UTC()}, model.RecordMeta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return RawCandidate{Label: label, Normalized: normalized, Aliases: aliases, Parents: parents, Source: rec}
}

func TestNormalizeKeepsLevelAboveZeroWithParentAnchor(t *testing.T) {
	n := NewNormalizer(settings.DefaultPolicy().Label)
	raw := rawCandidate(t, "Computer Science", "computer science", []string{"CS"}, []string{"College of Engineering"})
	out := n.Normalize([]RawCandidate{raw}, 1)
	if len(out) != 1 {
		t.Fatalf("expected level-1 candidate with a parent anchor to survive, got %d", len(out))
	}
	if len(out[0].ParentAnchors) != 1 {
		t.Fatalf("expected 1 parent anchor, got %v", out[0].ParentAnchors)
	}
}

func TestNormalizeDropsLevelAboveZeroWithoutParentAnchor(t *testing.T) {
	n := NewNormalizer(settings.DefaultPolicy().Label)
	raw := rawCandidate(t, "Computer Science", "computer science", nil, nil)
	out := n.Normalize([]RawCandidate{raw}, 1)
	if len(out) != 0 {
		t.Fatalf("expected candidate with no parent anchors at level>0 to be dropped, got %d", len(out))
	}
}

func TestNormalizeKeepsLevelZeroWithoutParents(t *testing.T) {
	n := NewNormalizer(settings.DefaultPolicy().Label)
	raw := rawCandidate(t, "Computer Science", "computer science", []string{"CS"}, nil)
	out := n.Normalize([]RawCandidate{raw}, 0)
	if len(out) != 1 {
		t.Fatalf("expected level-0 candidate to survive without parent anchors, got %d", len(out))
	}
	if out[0].Normalized == "" {
		t.Fatalf("expected a non-empty canonical form")
	}
	found := false
	for _, a := range out[0].Aliases {
		if a == "CS" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected alias union to include the returned alias %q, got %v", "CS", out[0].Aliases)
	}
}

func TestNormalizeDropsOutsideLengthBounds(t *testing.T) {
	policy := settings.DefaultPolicy().Label
	policy.MinCanonicalLength = 50
	n := NewNormalizer(policy)
	raw := rawCandidate(t, "CS", "cs", nil, nil)
	out := n.Normalize([]RawCandidate{raw}, 0)
	if len(out) != 0 {
		t.Fatalf("expected short canonical form to be dropped, got %d", len(out))
	}
}

func TestFingerprintRecordIsStablePerRecord(t *testing.T) {
	rec, err := model.NewSourceRecord("Evidence text.", model.Provenance{Institution: "Uni", URL: "https://example.edu"}, model.RecordMeta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := fingerprintRecord(rec)
	b := fingerprintRecord(rec)
	if a != b {
		t.Fatalf("expected fingerprint to be deterministic, got %q and %q", a, b)
	}
	if a == "" {
		t.Fatalf("expected non-empty fingerprint")
	}
}
