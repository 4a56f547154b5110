package observability

import "testing"

func TestQuarantineManagerRecordsAndCounts(t *testing.T) {
	q := NewQuarantineManager()
	if _, err := q.Quarantine("S0", "malformed_jsonl", "line-3", map[string]any{"raw": "..."}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := q.Quarantine("S1", "validation_error", "rec-1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", q.Len())
	}
	snap := q.Snapshot(0)
	if snap.Total != 2 {
		t.Fatalf("expected total 2, got %d", snap.Total)
	}
	if snap.ByReason["malformed_jsonl"] != 1 {
		t.Fatalf("expected 1 malformed_jsonl, got %v", snap.ByReason)
	}
}

func TestQuarantineManagerRejectsEmptyReason(t *testing.T) {
	q := NewQuarantineManager()
	if _, err := q.Quarantine("S0", "", "x", nil); err == nil {
		t.Fatalf("expected error for empty reason")
	}
}

func TestQuarantineManagerSnapshotBounded(t *testing.T) {
	q := NewQuarantineManager()
	for i := 0; i < 5; i++ {
		if _, err := q.Quarantine("S0", "failure", "", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	snap := q.Snapshot(2)
	if len(snap.Items) != 2 {
		t.Fatalf("expected export bounded to 2 items, got %d", len(snap.Items))
	}
	if snap.Total != 5 {
		t.Fatalf("expected total to reflect all 5 items regardless of export bound, got %d", snap.Total)
	}
	if snap.Items[0].Sequence != 1 || snap.Items[1].Sequence != 2 {
		t.Fatalf("expected first-occurrence order preserved, got %+v", snap.Items)
	}
}
