package stage0

import (
	"strconv"
	"strings"
	"time"

	"taxonomy/internal/kernel"
	"taxonomy/internal/model"
	"taxonomy/internal/observability"
	"taxonomy/internal/settings"
)

// Input is anything S0 can turn into SourceRecords: either a fetched
// web PageSnapshot or a WorkbookRow from the faculty/department
// spreadsheet (spec §1: "an institutional faculty/department
// workbook"; original_source excel_reader.py, supplemented here since
// the distilled spec only names the web path explicitly).
type Input struct {
	Snapshot         *model.PageSnapshot
	Workbook         *WorkbookRow
	LanguageConfidence *float64
	SourceFile       string
	SourceLine       int
}

// WorkbookRow is the already-parsed shape of one faculty/department
// workbook row; parsing the .xlsx file itself is the out-of-scope
// "Excel parsing" collaborator (spec §1) — S0 only consumes rows in
// this shape.
type WorkbookRow struct {
	Institution    string
	DepartmentPath string // e.g. "College of Engineering -> Computer Science"
	Sheet          string
}

// Processor turns snapshots/workbook rows into SourceRecords,
// recording counters and quarantine entries along the way (spec §4.D).
type Processor struct {
	policy    settings.S0Policy
	segmenter *Segmenter
	counters  *observability.CounterRegistry
	quarantine *observability.QuarantineManager
}

// NewProcessor builds a Processor bound to the given fabric pieces so
// callers share one counter registry/quarantine store across stages.
func NewProcessor(policy settings.S0Policy, counters *observability.CounterRegistry, quarantine *observability.QuarantineManager) *Processor {
	return &Processor{policy: policy, segmenter: NewSegmenter(policy), counters: counters, quarantine: quarantine}
}

// Process converts one Input into zero or more SourceRecords. Failures
// are quarantined rather than propagated, so the stream never halts
// (spec §4.D: "Per-snapshot exceptions are captured into a quarantine
// line... never halt the stream").
func (p *Processor) Process(in Input) []model.SourceRecord {
	p.incr("pages_seen", 1)

	if in.Workbook != nil {
		return p.processWorkbookRow(*in.Workbook)
	}
	if in.Snapshot == nil {
		p.quarantineInput(in, "stage0: input has neither snapshot nor workbook row")
		return nil
	}
	return p.processSnapshot(in)
}

// ProcessStream drains in and emits every resulting SourceRecord on
// the returned channel, matching the teacher's scan.Stream idiom of
// exposing results as a channel rather than a slice.
func (p *Processor) ProcessStream(in <-chan Input) <-chan model.SourceRecord {
	out := make(chan model.SourceRecord, 64)
	go func() {
		defer close(out)
		for item := range in {
			for _, rec := range p.Process(item) {
				out <- rec
			}
		}
	}()
	return out
}

func (p *Processor) processSnapshot(in Input) []model.SourceRecord {
	snapshot := in.Snapshot
	lang := snapshot.Lang
	if lang == "" {
		lang = "und"
	}
	p.incrLabel("language_counts", lang, 1)

	if !p.languageAllowed(lang, in.LanguageConfidence) {
		p.incr("pages_language_skipped", 1)
		return nil
	}

	seg := p.segmenter.Segment(snapshot.Text, snapshot.HTML)
	p.incr("blocks_total", int64(len(seg.Blocks)))
	p.incr("boilerplate_removed", int64(seg.BoilerplateRemoved))

	lengthFiltered := p.filterByLength(seg.Blocks)
	deduped := p.deduplicate(lengthFiltered)
	p.incr("blocks_kept", int64(len(deduped)))
	if len(deduped) == 0 {
		return nil
	}

	canonicalURL := snapshot.CanonicalURL
	if canonicalURL == "" {
		canonicalURL = snapshot.URL
	}
	var confidenceHint string
	if in.LanguageConfidence != nil {
		confidenceHint = strconv.FormatFloat(*in.LanguageConfidence, 'f', 3, 64)
	}

	records := make([]model.SourceRecord, 0, len(deduped))
	for _, block := range deduped {
		hints := map[string]string{
			"source":     "web",
			"level":      "S0",
			"block_type": block.BlockType,
			"order":      strconv.Itoa(block.Order),
		}
		if confidenceHint != "" {
			hints["language_confidence"] = confidenceHint
		}
		rec, err := model.NewSourceRecord(block.Text,
			model.Provenance{Institution: snapshot.Institution, URL: canonicalURL, Section: block.Section, FetchedAt: snapshot.FetchedAt},
			model.RecordMeta{Language: snapshot.Lang, Hints: hints},
		)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func (p *Processor) processWorkbookRow(row WorkbookRow) []model.SourceRecord {
	path := strings.TrimSpace(row.DepartmentPath)
	if path == "" || strings.TrimSpace(row.Institution) == "" {
		p.quarantineValue("stage0: workbook row missing institution or department_path", map[string]any{
			"institution": row.Institution, "department_path": row.DepartmentPath,
		})
		return nil
	}
	text := row.Institution + " - " + path
	rec, err := model.NewSourceRecord(text,
		model.Provenance{Institution: row.Institution, Section: row.Sheet, FetchedAt: time.Now().UTC()},
		model.RecordMeta{Hints: map[string]string{"source": "excel", "level": "S0"}},
	)
	if err != nil {
		p.quarantineValue(err.Error(), map[string]any{"row": row})
		return nil
	}
	p.incr("blocks_total", 1)
	p.incr("blocks_kept", 1)
	return []model.SourceRecord{rec}
}

func (p *Processor) languageAllowed(lang string, confidence *float64) bool {
	if p.policy.TargetLanguage == "" {
		return true
	}
	target := strings.ToLower(p.policy.TargetLanguage)
	base := strings.ToLower(strings.SplitN(lang, "-", 2)[0])

	var confidenceValue float64
	if confidence == nil {
		if target != "any" && p.policy.RequireLanguageConfidence {
			confidenceValue = 0
		} else {
			confidenceValue = 1
		}
	} else {
		confidenceValue = *confidence
	}
	if confidenceValue < p.policy.LanguageConfidenceMin {
		return false
	}
	if target == "any" {
		return true
	}
	return base == target
}

func (p *Processor) filterByLength(blocks []Block) []Block {
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		n := len(b.Text)
		if n < p.policy.MinChars || n > p.policy.MaxChars {
			p.incr("blocks_filtered_length", 1)
			continue
		}
		out = append(out, b)
	}
	return out
}

func (p *Processor) deduplicate(blocks []Block) []Block {
	if !p.policy.IntraPageDedupEnabled || len(blocks) <= 1 {
		return blocks
	}
	texts := make([]string, len(blocks))
	for i, b := range blocks {
		texts[i] = b.Text
	}
	dupIdx := kernel.FindDuplicateIndices(texts, p.policy.SimilarityThreshold, p.policy.SimilarityMethod == "minhash")
	if len(dupIdx) == 0 {
		return blocks
	}
	dupSet := make(map[int]struct{}, len(dupIdx))
	for _, idx := range dupIdx {
		dupSet[idx] = struct{}{}
	}
	out := make([]Block, 0, len(blocks)-len(dupSet))
	for i, b := range blocks {
		if _, dup := dupSet[i]; dup {
			p.incr("blocks_deduped", 1)
			continue
		}
		out = append(out, b)
	}
	return out
}

func (p *Processor) incr(name string, delta int64) {
	if p.counters == nil {
		return
	}
	_ = p.counters.Increment("S0", name, delta)
}

func (p *Processor) incrLabel(name, label string, delta int64) {
	if p.counters == nil {
		return
	}
	_ = p.counters.IncrementLabel("S0", name, label, delta)
}

func (p *Processor) quarantineInput(in Input, reason string) {
	p.incr("pages_failed", 1)
	if p.quarantine == nil {
		return
	}
	payload := map[string]any{"source_file": in.SourceFile, "source_line": in.SourceLine}
	if in.Snapshot != nil {
		payload["url"] = in.Snapshot.URL
		payload["institution"] = in.Snapshot.Institution
	}
	_, _ = p.quarantine.Quarantine("S0", reason, itemID(in), payload)
}

func (p *Processor) quarantineValue(reason string, payload map[string]any) {
	p.incr("pages_failed", 1)
	if p.quarantine == nil {
		return
	}
	_, _ = p.quarantine.Quarantine("S0", reason, reason, payload)
}

func itemID(in Input) string {
	if in.Snapshot != nil {
		return in.Snapshot.URL
	}
	if in.Workbook != nil {
		return in.Workbook.Institution + "/" + in.Workbook.DepartmentPath
	}
	return in.SourceFile
}
