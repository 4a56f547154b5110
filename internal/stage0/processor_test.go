package stage0

import (
	"testing"
	"time"

	"taxonomy/internal/model"
	"taxonomy/internal/observability"
	"taxonomy/internal/settings"
)

func testPolicy() settings.S0Policy {
	p := settings.DefaultPolicy().S0
	return p
}

func TestProcessorEmitsRecordsForEachKeptBlock(t *testing.T) {
	counters := observability.NewCounterRegistry("run-1")
	quarantine := observability.NewQuarantineManager()
	proc := NewProcessor(testPolicy(), counters, quarantine)

	snapshot := &model.PageSnapshot{
		Institution: "State University",
		URL:         "https://example.edu/about",
		FetchedAt:   time.Now().UTC(),
		Lang:        "en",
		Text:        "About Us:\nWe are a leading research institution.\n\nDepartments:\n- Computer Science\n- Mathematics",
	}
	records := proc.Process(Input{Snapshot: snapshot})
	if len(records) == 0 {
		t.Fatalf("expected at least one record")
	}
	for _, r := range records {
		if r.Provenance.Institution != "State University" {
			t.Fatalf("expected institution to propagate, got %q", r.Provenance.Institution)
		}
		if r.Meta.Hints["source"] != "web" {
			t.Fatalf("expected hints.source=web, got %q", r.Meta.Hints["source"])
		}
		if r.Meta.Hints["level"] != "S0" {
			t.Fatalf("expected hints.level=S0")
		}
	}
	snap := counters.Snapshot()
	if snap.Counters["S0"]["pages_seen"] != int64(1) {
		t.Fatalf("expected pages_seen=1, got %v", snap.Counters["S0"]["pages_seen"])
	}
}

func TestProcessorSkipsOffTargetLanguage(t *testing.T) {
	policy := testPolicy()
	policy.TargetLanguage = "en"
	policy.RequireLanguageConfidence = false
	counters := observability.NewCounterRegistry("")
	proc := NewProcessor(policy, counters, observability.NewQuarantineManager())

	snapshot := &model.PageSnapshot{
		Institution: "Uni", URL: "https://example.edu", FetchedAt: time.Now().UTC(),
		Lang: "fr", Text: "Bienvenue a notre universite, une grande institution de recherche.",
	}
	records := proc.Process(Input{Snapshot: snapshot})
	if len(records) != 0 {
		t.Fatalf("expected off-target-language snapshot to be skipped, got %d records", len(records))
	}
	snap := counters.Snapshot()
	if snap.Counters["S0"]["pages_language_skipped"] != int64(1) {
		t.Fatalf("expected pages_language_skipped=1, got %v", snap.Counters["S0"]["pages_language_skipped"])
	}
}

func TestProcessorRequiresConfidenceWhenConfigured(t *testing.T) {
	policy := testPolicy()
	policy.TargetLanguage = "en"
	policy.RequireLanguageConfidence = true
	counters := observability.NewCounterRegistry("")
	proc := NewProcessor(policy, counters, observability.NewQuarantineManager())

	snapshot := &model.PageSnapshot{
		Institution: "Uni", URL: "https://example.edu", FetchedAt: time.Now().UTC(),
		Lang: "en", Text: "A page with no declared confidence value at all here.",
	}
	// No LanguageConfidence supplied -> treated as 0, below threshold -> skipped.
	records := proc.Process(Input{Snapshot: snapshot})
	if len(records) != 0 {
		t.Fatalf("expected missing-confidence snapshot to be skipped when required, got %d", len(records))
	}
}

func TestProcessorFiltersByLength(t *testing.T) {
	policy := testPolicy()
	policy.MinChars = 50
	counters := observability.NewCounterRegistry("")
	proc := NewProcessor(policy, counters, observability.NewQuarantineManager())

	snapshot := &model.PageSnapshot{
		Institution: "Uni", URL: "https://example.edu", FetchedAt: time.Now().UTC(),
		Lang: "en", Text: "Short.",
	}
	records := proc.Process(Input{Snapshot: snapshot})
	if len(records) != 0 {
		t.Fatalf("expected short block to be filtered out, got %d", len(records))
	}
	snap := counters.Snapshot()
	if snap.Counters["S0"]["blocks_filtered_length"] == int64(0) {
		t.Fatalf("expected blocks_filtered_length to be incremented")
	}
}

func TestProcessorDeduplicatesRepeatedBlocks(t *testing.T) {
	policy := testPolicy()
	policy.MinChars = 1
	counters := observability.NewCounterRegistry("")
	proc := NewProcessor(policy, counters, observability.NewQuarantineManager())

	repeated := "This exact paragraph appears twice on the page for navigation purposes."
	snapshot := &model.PageSnapshot{
		Institution: "Uni", URL: "https://example.edu", FetchedAt: time.Now().UTC(),
		Lang: "en", Text: repeated + "\n\n" + repeated,
	}
	records := proc.Process(Input{Snapshot: snapshot})
	if len(records) != 1 {
		t.Fatalf("expected duplicate block collapsed to 1 record, got %d", len(records))
	}
	snap := counters.Snapshot()
	if snap.Counters["S0"]["blocks_deduped"] != int64(1) {
		t.Fatalf("expected blocks_deduped=1, got %v", snap.Counters["S0"]["blocks_deduped"])
	}
}

func TestProcessorHandlesWorkbookRow(t *testing.T) {
	counters := observability.NewCounterRegistry("")
	proc := NewProcessor(testPolicy(), counters, observability.NewQuarantineManager())
	records := proc.Process(Input{Workbook: &WorkbookRow{
		Institution:    "State University",
		DepartmentPath: "College of Engineering -> Computer Science",
		Sheet:          "Sheet1",
	}})
	if len(records) != 1 {
		t.Fatalf("expected exactly one record from a workbook row, got %d", len(records))
	}
	if records[0].Meta.Hints["source"] != "excel" {
		t.Fatalf("expected hints.source=excel, got %q", records[0].Meta.Hints["source"])
	}
}

func TestProcessorQuarantinesMalformedWorkbookRow(t *testing.T) {
	quarantine := observability.NewQuarantineManager()
	proc := NewProcessor(testPolicy(), observability.NewCounterRegistry(""), quarantine)
	records := proc.Process(Input{Workbook: &WorkbookRow{Institution: "", DepartmentPath: ""}})
	if len(records) != 0 {
		t.Fatalf("expected no records for malformed workbook row")
	}
	if quarantine.Len() != 1 {
		t.Fatalf("expected 1 quarantined item, got %d", quarantine.Len())
	}
}

func TestProcessStreamDrainsInputChannel(t *testing.T) {
	counters := observability.NewCounterRegistry("")
	proc := NewProcessor(testPolicy(), counters, observability.NewQuarantineManager())

	in := make(chan Input, 2)
	in <- Input{Workbook: &WorkbookRow{Institution: "A", DepartmentPath: "College X -> Dept Y"}}
	in <- Input{Workbook: &WorkbookRow{Institution: "B", DepartmentPath: "College Z -> Dept W"}}
	close(in)

	var count int
	for range proc.ProcessStream(in) {
		count++
	}
	if count != 2 {
		t.Fatalf("expected 2 records through the stream, got %d", count)
	}
}
