// Package stage1 implements LLM-assisted extraction and normalization:
// turning a batch of SourceRecords into the Candidates S2 consumes
// (spec §4.E). Grounded on the teacher's internal/pipeline phase shape
// (LLM-call-then-validate-then-unmarshal, see p1.go) and ported from
// original_source/src/taxonomy/pipeline/s1_extraction_normalization.
package stage1

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"taxonomy/internal/llmgateway"
	"taxonomy/internal/model"
	"taxonomy/internal/observability"
	"taxonomy/internal/settings"
)

// RawCandidate is what the LLM returns for one source record, before
// canonicalization.
type RawCandidate struct {
	Label      string
	Normalized string
	Aliases    []string
	Parents    []string
	Source     model.SourceRecord
}

// rawPayload mirrors the JSON shape taxonomy.extract returns.
type rawPayload struct {
	Label      string   `json:"label"`
	Normalized string   `json:"normalized"`
	Aliases    []string `json:"aliases"`
	Parents    []string `json:"parents"`
}

// Extractor calls the LLM gateway's taxonomy.extract prompt for each
// record, applying the cross-call retry/quarantine policy the gateway
// itself does not own (spec §4.M: the gateway handles one schema-repair
// retry per call; the stage tracks cumulative attempts across calls).
type Extractor struct {
	gateway    *llmgateway.Gateway
	policy     settings.S1Policy
	counters   *observability.CounterRegistry
	quarantine *observability.QuarantineManager
}

// NewExtractor builds an Extractor bound to the shared gateway and
// observability fabric.
func NewExtractor(gateway *llmgateway.Gateway, policy settings.S1Policy, counters *observability.CounterRegistry, quarantine *observability.QuarantineManager) *Extractor {
	return &Extractor{gateway: gateway, policy: policy, counters: counters, quarantine: quarantine}
}

// ExtractCandidates calls taxonomy.extract for every record at level,
// returning the raw candidates in deterministic (normalized.lower())
// order.
func (e *Extractor) ExtractCandidates(ctx context.Context, records []model.SourceRecord, level int) []RawCandidate {
	var all []RawCandidate
	for _, record := range records {
		e.incr("records_in", 1)
		variables := map[string]any{
			"institution": record.Provenance.Institution,
			"level":       level,
			"source_text": record.Text,
			"metadata":    record.Meta,
		}
		payload, ok := e.runWithRetry(ctx, variables, record)
		if !ok {
			continue
		}
		candidates := e.coercePayload(payload, record)
		all = append(all, candidates...)
		e.incr("candidates_out", int64(len(candidates)))
	}
	sort.SliceStable(all, func(i, j int) bool {
		return strings.ToLower(all[i].Normalized) < strings.ToLower(all[j].Normalized)
	})
	return all
}

// runWithRetry calls Run up to policy.MaxRetries+1 times, retrying on
// ValidationError unconditionally and on ProviderError only when
// flagged retryable, quarantining the record once attempts are
// exhausted (spec §4.E: "quarantine terminates processing of that
// record").
func (e *Extractor) runWithRetry(ctx context.Context, variables map[string]any, record model.SourceRecord) (json.RawMessage, bool) {
	maxRetries := e.policy.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		vars := variables
		if attempt > 0 {
			vars = cloneVariables(variables)
			vars["repair"] = true
		}
		resp, err := e.gateway.Run(ctx, "taxonomy.extract", vars)
		if err == nil {
			return resp.Content, true
		}
		lastErr = err

		var vErr *llmgateway.ValidationError
		if errors.As(err, &vErr) {
			e.incr("invalid_json", 1)
			if attempt >= maxRetries {
				break
			}
			e.incr("retries", 1)
			continue
		}
		var pErr *llmgateway.ProviderError
		if errors.As(err, &pErr) {
			if !pErr.Retryable || attempt >= maxRetries {
				break
			}
			e.incr("retries", 1)
			continue
		}
		// Unrecognized error shape: treat as terminal for this record.
		break
	}
	e.quarantineRecord(record, lastErr)
	return nil, false
}

func (e *Extractor) coercePayload(raw json.RawMessage, record model.SourceRecord) []RawCandidate {
	var entries []rawPayload
	if err := json.Unmarshal(raw, &entries); err != nil {
		e.incr("invalid_json", 1)
		return nil
	}
	out := make([]RawCandidate, 0, len(entries))
	for _, entry := range entries {
		label := strings.TrimSpace(entry.Label)
		normalized := strings.TrimSpace(entry.Normalized)
		if label == "" || normalized == "" {
			continue
		}
		out = append(out, RawCandidate{
			Label:      label,
			Normalized: normalized,
			Aliases:    nonEmpty(entry.Aliases),
			Parents:    nonEmpty(entry.Parents),
			Source:     record,
		})
	}
	return out
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			out = append(out, item)
		}
	}
	return out
}

func cloneVariables(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (e *Extractor) incr(name string, delta int64) {
	if e.counters == nil {
		return
	}
	_ = e.counters.Increment("S1", name, delta)
}

func (e *Extractor) quarantineRecord(record model.SourceRecord, cause error) {
	if e.quarantine == nil {
		return
	}
	reason := "stage1: exhausted extraction retries"
	if cause != nil {
		reason = "stage1: " + cause.Error()
	}
	_, _ = e.quarantine.Quarantine("S1", reason, record.Provenance.URL+"|"+record.Provenance.Institution, map[string]any{
		"institution": record.Provenance.Institution,
		"url":         record.Provenance.URL,
	})
}
