package stage1

import (
	"context"
	"strings"
	"testing"
	"time"

	"taxonomy/internal/llmgateway"
	"taxonomy/internal/model"
	"taxonomy/internal/observability"
	"taxonomy/internal/settings"
)

func newTestProcessor(t *testing.T, client *fakeExtractClient) *Processor {
	t.Helper()
	gateway := llmgateway.NewGateway(client, testLLMPolicy(), llmgateway.NewRegistry())
	counters := observability.NewCounterRegistry("")
	extractor := NewExtractor(gateway, settings.S1Policy{MaxRetries: 1}, counters, observability.NewQuarantineManager())
	normalizer := NewNormalizer(settings.DefaultPolicy().Label)
	parentIndex := NewParentIndex(settings.DefaultPolicy().Label, 0.6)
	return NewProcessor(extractor, normalizer, parentIndex)
}

func TestProcessLevelZeroForcesEmptyParents(t *testing.T) {
	client := &fakeExtractClient{outputs: []string{
		`[{"label":"Computer Science","normalized":"computer science","aliases":[],"parents":[]}]`,
	}}
	proc := newTestProcessor(t, client)
	records := []model.SourceRecord{testRecord(t, "Computer Science department page.")}

	candidates, err := proc.ProcessLevel(context.Background(), records, 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if len(candidates[0].Parents) != 0 {
		t.Fatalf("expected level-0 candidate to have no parents, got %v", candidates[0].Parents)
	}
}

func TestProcessLevelResolvesAndTagsUnresolvedParents(t *testing.T) {
	client := &fakeExtractClient{outputs: []string{
		`[{"label":"Robotics Lab","normalized":"robotics lab","aliases":[],"parents":["College of Engineering","Ghost Department"]}]`,
	}}
	proc := newTestProcessor(t, client)

	support := model.SupportStats{Records: 1, Institutions: 1, Count: 1}
	parent, err := model.NewCandidate(0, "College of Engineering", "college of engineering", nil, nil, support)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	previous := CandidateParentSources([]model.Candidate{parent})

	records := []model.SourceRecord{testRecord(t, "The Robotics Lab is part of the college.")}
	candidates, err := proc.ProcessLevel(context.Background(), records, 1, previous)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	cand := candidates[0]
	var sawResolved, sawUnresolved bool
	for _, p := range cand.Parents {
		if p == "college of engineering" {
			sawResolved = true
		}
		if strings.HasPrefix(p, "UNRESOLVED:") {
			sawUnresolved = true
		}
	}
	if !sawResolved {
		t.Fatalf("expected resolved parent identifier among %v", cand.Parents)
	}
	if !sawUnresolved {
		t.Fatalf("expected an UNRESOLVED: tagged anchor among %v", cand.Parents)
	}
}

func TestProcessLevelAggregatesDuplicateCandidates(t *testing.T) {
	rec1, err := model.NewSourceRecord("Computer Science page one.", model.Provenance{Institution: "State University", URL: "https://example.edu/a", FetchedAt: time.Now().UTC()}, model.RecordMeta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec2, err := model.NewSourceRecord("Computer Science page two.", model.Provenance{Institution: "Other University", URL: "https://example.edu/b", FetchedAt: time.Now().UTC()}, model.RecordMeta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client := &fakeExtractClient{outputs: []string{
		`[{"label":"Computer Science","normalized":"computer science","aliases":[],"parents":[]}]`,
	}}
	proc := newTestProcessor(t, client)

	candidates, err := proc.ProcessLevel(context.Background(), []model.SourceRecord{rec1, rec2}, 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected the two records to aggregate into 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Support.Institutions != 2 {
		t.Fatalf("expected support.institutions=2 across both source institutions, got %d", candidates[0].Support.Institutions)
	}
	if candidates[0].Support.Records != 2 {
		t.Fatalf("expected support.records=2 (2 distinct record fingerprints), got %d", candidates[0].Support.Records)
	}
}
