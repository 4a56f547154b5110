package stage1

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"taxonomy/internal/llmgateway"
	"taxonomy/internal/model"
	"taxonomy/internal/observability"
	"taxonomy/internal/settings"
)

type fakeExtractClient struct {
	name    string
	outputs []string
	errs    []error
	calls   int
}

func (f *fakeExtractClient) Name() string { return f.name }

func (f *fakeExtractClient) Generate(ctx context.Context, rendered string) (string, error) {
	i := f.calls
	if i >= len(f.outputs) {
		i = len(f.outputs) - 1
	}
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return f.outputs[i], err
}

func testLLMPolicy() settings.LLMPolicy {
	p := settings.DefaultPolicy().LLM
	p.CallTimeout = 2 * time.Second
	p.RetryBaseDelay = time.Millisecond
	p.RetryMaxDelay = 5 * time.Millisecond
	p.RateLimitRPS = 0 // disabled: no throttling in unit tests
	p.CircuitBreakerMaxFailures = 100
	return p
}

func testRecord(t *testing.T, text string) model.SourceRecord {
	t.Helper()
	rec, err := model.NewSourceRecord(text, model.Provenance{Institution: "State University", URL: "https://example.edu", FetchedAt: time.Now().UTC()}, model.RecordMeta{})
	if err != nil {
		t.Fatalf("unexpected error building record: %v", err)
	}
	return rec
}

func TestExtractorCoercesAndSortsCandidates(t *testing.T) {
	client := &fakeExtractClient{name: "fake", outputs: []string{
		`[{"label":"Mathematics","normalized":"mathematics","aliases":["Math"],"parents":[]},` +
			`{"label":"Computer Science","normalized":"computer science","aliases":[],"parents":[]}]`,
	}}
	gateway := llmgateway.NewGateway(client, testLLMPolicy(), llmgateway.NewRegistry())
	counters := observability.NewCounterRegistry("run-1")
	extractor := NewExtractor(gateway, settings.S1Policy{MaxRetries: 1}, counters, observability.NewQuarantineManager())

	records := []model.SourceRecord{testRecord(t, "Mathematics and Computer Science departments.")}
	raw := extractor.ExtractCandidates(context.Background(), records, 0)

	if len(raw) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(raw), raw)
	}
	if raw[0].Normalized != "computer science" || raw[1].Normalized != "mathematics" {
		t.Fatalf("expected candidates sorted by normalized.lower(), got %q then %q", raw[0].Normalized, raw[1].Normalized)
	}
	snap := counters.Snapshot()
	if snap.Counters["S1"]["records_in"] != int64(1) {
		t.Fatalf("expected records_in=1, got %v", snap.Counters["S1"]["records_in"])
	}
	if snap.Counters["S1"]["candidates_out"] != int64(2) {
		t.Fatalf("expected candidates_out=2, got %v", snap.Counters["S1"]["candidates_out"])
	}
}

func TestCoercePayloadDropsIncompleteEntries(t *testing.T) {
	e := &Extractor{}
	record := testRecord(t, "text")
	raw := json.RawMessage(`[{"label":"CS","normalized":"cs"},{"label":"","normalized":"blank-label"},{"label":"Bio","normalized":""}]`)
	out := e.coercePayload(raw, record)
	if len(out) != 1 || out[0].Label != "CS" {
		t.Fatalf("expected only the complete entry to survive, got %+v", out)
	}
}

func TestExtractorQuarantinesAfterExhaustingValidationRetries(t *testing.T) {
	client := &fakeExtractClient{name: "fake", outputs: []string{`{"not":"an array"}`}}
	gateway := llmgateway.NewGateway(client, testLLMPolicy(), llmgateway.NewRegistry())
	counters := observability.NewCounterRegistry("")
	quarantine := observability.NewQuarantineManager()
	extractor := NewExtractor(gateway, settings.S1Policy{MaxRetries: 1}, counters, quarantine)

	records := []model.SourceRecord{testRecord(t, "A page with no useful structure at all.")}
	raw := extractor.ExtractCandidates(context.Background(), records, 0)

	if len(raw) != 0 {
		t.Fatalf("expected no candidates once validation retries are exhausted, got %d", len(raw))
	}
	if quarantine.Len() != 1 {
		t.Fatalf("expected 1 quarantined record, got %d", quarantine.Len())
	}
	snap := counters.Snapshot()
	if snap.Counters["S1"]["invalid_json"] == int64(0) {
		t.Fatalf("expected invalid_json to be incremented")
	}
}

func TestExtractorStopsOnNonRetryableProviderError(t *testing.T) {
	client := &fakeExtractClient{
		name:    "fake",
		outputs: []string{""},
		errs:    []error{&llmgateway.ProviderError{PromptKey: "taxonomy.extract", Err: context.Canceled, Retryable: false}},
	}
	gateway := llmgateway.NewGateway(client, testLLMPolicy(), llmgateway.NewRegistry())
	quarantine := observability.NewQuarantineManager()
	extractor := NewExtractor(gateway, settings.S1Policy{MaxRetries: 3}, observability.NewCounterRegistry(""), quarantine)

	records := []model.SourceRecord{testRecord(t, "Some evidence text long enough to pass any length gate.")}
	raw := extractor.ExtractCandidates(context.Background(), records, 0)

	if len(raw) != 0 {
		t.Fatalf("expected no candidates on non-retryable provider error")
	}
	if client.calls != 1 {
		t.Fatalf("expected exactly 1 call for a non-retryable error, got %d", client.calls)
	}
	if quarantine.Len() != 1 {
		t.Fatalf("expected the record to be quarantined, got %d", quarantine.Len())
	}
}
