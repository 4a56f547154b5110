package stage1

import (
	"sort"
	"strconv"

	"github.com/pmezard/go-difflib/difflib"

	"taxonomy/internal/kernel"
	"taxonomy/internal/model"
	"taxonomy/internal/settings"
)

// ParentEntry is a lightweight projection of a parent concept or
// candidate, indexed by canonical form and alias.
type ParentEntry struct {
	Identifier string
	Level      int
	Canonical  string
	Aliases    []string
}

// ParentSource is anything ParentIndex can build entries from: a
// Candidate (identifier = normalized) or a Concept (identifier = id).
type ParentSource struct {
	Identifier string
	Level      int
	Label      string
	Aliases    []string
}

// CandidateParentSources projects previously emitted Candidates into
// ParentSources (spec §4.E parent index: "previously emitted
// candidates... for levels < target level").
func CandidateParentSources(candidates []model.Candidate) []ParentSource {
	out := make([]ParentSource, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, ParentSource{Identifier: c.Normalized, Level: c.Level, Label: c.Normalized, Aliases: c.Aliases})
	}
	return out
}

// ConceptParentSources projects previously emitted Concepts into
// ParentSources.
func ConceptParentSources(concepts []model.Concept) []ParentSource {
	out := make([]ParentSource, 0, len(concepts))
	for _, c := range concepts {
		out = append(out, ParentSource{Identifier: c.ID, Level: c.Level, Label: c.CanonicalLabel, Aliases: c.Aliases})
	}
	return out
}

// ParentIndex resolves textual parent anchors emitted by the LLM to
// known parent identifiers, exact match first and then Ratcliff-
// Obershelp-style fuzzy match over the top-3 closest keys (spec §4.E
// parent index). Ported from
// original_source/.../s1_extraction_normalization/parent_index.py,
// using github.com/pmezard/go-difflib (the Go port of Python's difflib
// SequenceMatcher that the original's difflib.get_close_matches calls
// into) in place of difflib itself.
type ParentIndex struct {
	labelPolicy      settings.LabelPolicy
	similarityCutoff float64
	entries          map[string][]ParentEntry
	cache            map[string][]string
	unresolved       map[int][]string
}

// NewParentIndex builds an empty ParentIndex.
func NewParentIndex(labelPolicy settings.LabelPolicy, similarityCutoff float64) *ParentIndex {
	return &ParentIndex{
		labelPolicy:      labelPolicy,
		similarityCutoff: similarityCutoff,
		entries:          map[string][]ParentEntry{},
		cache:            map[string][]string{},
		unresolved:       map[int][]string{},
	}
}

// Unresolved returns anchors that failed to resolve, grouped by the
// target level that referenced them.
func (p *ParentIndex) Unresolved() map[int][]string {
	out := make(map[int][]string, len(p.unresolved))
	for level, anchors := range p.unresolved {
		out[level] = append([]string(nil), anchors...)
	}
	return out
}

// BuildIndex replaces the index contents with entries derived from
// sources.
func (p *ParentIndex) BuildIndex(sources []ParentSource) {
	p.entries = map[string][]ParentEntry{}
	policy := p.labelPolicy.ToKernel()
	for _, src := range sources {
		canonical := kernel.NormalizeByLevel(src.Label, src.Level, policy, "")
		aliases := make([]string, 0, len(src.Aliases))
		for _, a := range src.Aliases {
			aliases = append(aliases, kernel.NormalizeByLevel(a, src.Level, policy, ""))
		}
		entry := ParentEntry{Identifier: src.Identifier, Level: src.Level, Canonical: canonical, Aliases: aliases}
		p.storeEntry(entry)
	}
}

func (p *ParentIndex) storeEntry(entry ParentEntry) {
	keys := append([]string{entry.Canonical}, entry.Aliases...)
	for _, key := range keys {
		if key == "" {
			continue
		}
		p.entries[key] = append(p.entries[key], entry)
	}
}

// ResolveAnchor resolves anchor text to known parent identifiers for a
// candidate at targetLevel. Unresolved anchors are recorded for
// diagnostics; the identifiers list is empty in that case (callers
// surface "UNRESOLVED:<anchor>" themselves, per spec §4.E).
func (p *ParentIndex) ResolveAnchor(anchor string, targetLevel int) []string {
	policy := p.labelPolicy.ToKernel()
	parentLevel := targetLevel - 1
	if parentLevel < 0 {
		parentLevel = 0
	}
	normalizedAnchor := kernel.NormalizeByLevel(anchor, parentLevel, policy, "")

	cacheKey := normalizedAnchor + "\x00" + strconv.Itoa(targetLevel)
	if cached, ok := p.cache[cacheKey]; ok {
		return append([]string(nil), cached...)
	}

	matches := p.matchExact(normalizedAnchor, targetLevel)
	if len(matches) == 0 {
		matches = p.matchFuzzy(normalizedAnchor, targetLevel)
	}
	if len(matches) > 0 {
		set := map[string]struct{}{}
		for _, m := range matches {
			set[m.Identifier] = struct{}{}
		}
		resolved := make([]string, 0, len(set))
		for id := range set {
			resolved = append(resolved, id)
		}
		sort.Strings(resolved)
		p.cache[cacheKey] = resolved
		return append([]string(nil), resolved...)
	}

	p.unresolved[targetLevel] = append(p.unresolved[targetLevel], kernel.NormalizeWhitespace(anchor))
	p.cache[cacheKey] = nil
	return nil
}

func (p *ParentIndex) matchExact(normalizedAnchor string, targetLevel int) []ParentEntry {
	var out []ParentEntry
	for _, entry := range p.entries[normalizedAnchor] {
		if entry.Level < targetLevel {
			out = append(out, entry)
		}
	}
	return out
}

func (p *ParentIndex) matchFuzzy(normalizedAnchor string, targetLevel int) []ParentEntry {
	var keys []string
	for key, entries := range p.entries {
		for _, e := range entries {
			if e.Level < targetLevel {
				keys = append(keys, key)
				break
			}
		}
	}
	if len(keys) == 0 {
		return nil
	}
	closest := closeMatches(normalizedAnchor, keys, 3, p.similarityCutoff)
	var out []ParentEntry
	for _, key := range closest {
		for _, entry := range p.entries[key] {
			if entry.Level < targetLevel {
				out = append(out, entry)
			}
		}
	}
	return out
}

// closeMatches mirrors Python's difflib.get_close_matches: ranks
// possibilities by SequenceMatcher.Ratio() against word, keeping only
// those at or above cutoff, returning at most n, highest ratio first.
func closeMatches(word string, possibilities []string, n int, cutoff float64) []string {
	type scored struct {
		key   string
		ratio float64
	}
	wordChars := splitChars(word)
	var results []scored
	for _, candidate := range possibilities {
		m := difflib.NewMatcher(wordChars, splitChars(candidate))
		ratio := m.Ratio()
		if ratio >= cutoff {
			results = append(results, scored{key: candidate, ratio: ratio})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].ratio > results[j].ratio })
	if len(results) > n {
		results = results[:n]
	}
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.key
	}
	return out
}

func splitChars(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}
