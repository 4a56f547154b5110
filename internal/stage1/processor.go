package stage1

import (
	"context"
	"sort"
	"strings"

	"taxonomy/internal/kernel"
	"taxonomy/internal/model"
)

// aggregatedCandidate accumulates duplicate NormalizedCandidates keyed
// by (normalized, resolved-parents-tuple) (spec §4.E processor).
type aggregatedCandidate struct {
	level        int
	normalized   string
	parents      []string
	primaryLabel string
	aliases      map[string]struct{}
	fingerprints map[string]struct{}
	institutions map[string]struct{}
	totalCount   int
}

// Processor runs extraction, normalization, parent resolution, and
// aggregation for one level of source records (spec §4.E).
type Processor struct {
	extractor   *Extractor
	normalizer  *Normalizer
	parentIndex *ParentIndex
}

// NewProcessor wires an Extractor, Normalizer, and ParentIndex into one
// per-level pipeline.
func NewProcessor(extractor *Extractor, normalizer *Normalizer, parentIndex *ParentIndex) *Processor {
	return &Processor{extractor: extractor, normalizer: normalizer, parentIndex: parentIndex}
}

// ProcessLevel extracts, normalizes, resolves parents against
// previousParents, and aggregates records into Candidates for level.
func (p *Processor) ProcessLevel(ctx context.Context, records []model.SourceRecord, level int, previousParents []ParentSource) ([]model.Candidate, error) {
	if len(previousParents) > 0 {
		p.parentIndex.BuildIndex(previousParents)
	}
	raw := p.extractor.ExtractCandidates(ctx, records, level)
	normalized := p.normalizer.Normalize(raw, level)
	aggregated := p.aggregate(normalized, level)
	return p.materialize(aggregated)
}

func (p *Processor) aggregate(normalized []NormalizedCandidate, level int) []*aggregatedCandidate {
	buckets := map[string]*aggregatedCandidate{}
	var order []string
	for _, candidate := range normalized {
		parents := p.resolveParents(candidate)
		key := candidate.Normalized + "\x00" + strings.Join(parents, "\x00")
		bucket, ok := buckets[key]
		if !ok {
			bucket = &aggregatedCandidate{
				level:        level,
				normalized:   candidate.Normalized,
				parents:      parents,
				primaryLabel: candidate.Label,
				aliases:      map[string]struct{}{},
				fingerprints: map[string]struct{}{},
				institutions: map[string]struct{}{},
			}
			buckets[key] = bucket
			order = append(order, key)
		}
		for _, a := range candidate.Aliases {
			bucket.aliases[a] = struct{}{}
		}
		bucket.aliases[candidate.Label] = struct{}{}
		bucket.fingerprints[candidate.Fingerprint] = struct{}{}
		bucket.institutions[candidate.Institution] = struct{}{}
		bucket.totalCount++
	}
	out := make([]*aggregatedCandidate, 0, len(order))
	for _, key := range order {
		out = append(out, buckets[key])
	}
	return out
}

// resolveParents resolves every parent anchor for candidate, tagging
// unresolved anchors with the "UNRESOLVED:" prefix so downstream
// consumers can distinguish them from known identifiers (spec §4.E:
// "Unmatched anchors are recorded and surfaced downstream as
// UNRESOLVED:<anchor>").
func (p *Processor) resolveParents(candidate NormalizedCandidate) []string {
	if candidate.Level == 0 {
		return nil
	}
	var resolved, unresolved []string
	for _, anchor := range candidate.ParentAnchors {
		matches := p.parentIndex.ResolveAnchor(anchor, candidate.Level)
		if len(matches) > 0 {
			resolved = append(resolved, matches...)
		} else {
			unresolved = append(unresolved, "UNRESOLVED:"+kernel.NormalizeWhitespace(anchor))
		}
	}
	combined := append(resolved, unresolved...)
	seen := map[string]struct{}{}
	out := make([]string, 0, len(combined))
	for _, v := range combined {
		v = kernel.NormalizeWhitespace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (p *Processor) materialize(aggregated []*aggregatedCandidate) ([]model.Candidate, error) {
	results := make([]model.Candidate, 0, len(aggregated))
	for _, item := range aggregated {
		aliases := setToSortedSlice(item.aliases)
		parents := item.parents
		if item.level == 0 {
			parents = nil
		}
		support := model.SupportStats{
			Records:      len(item.fingerprints),
			Institutions: len(item.institutions),
			Count:        item.totalCount,
		}
		candidate, err := model.NewCandidate(item.level, item.primaryLabel, item.normalized, parents, aliases, support)
		if err != nil {
			// A candidate that fails model.NewCandidate's checks (e.g. a
			// level outside [0,3]) is dropped
			// rather than propagated, mirroring the original's
			// "Discarding candidate failing validation" warning path.
			continue
		}
		results = append(results, candidate)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Normalized != results[j].Normalized {
			return results[i].Normalized < results[j].Normalized
		}
		return strings.Join(results[i].Parents, "\x00") < strings.Join(results[j].Parents, "\x00")
	})
	return results, nil
}

func setToSortedSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
