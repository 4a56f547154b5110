package stage1

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"taxonomy/internal/kernel"
	"taxonomy/internal/model"
	"taxonomy/internal/settings"
)

// NormalizedCandidate is the post-normalization, pre-aggregation
// representation carried through to Processor (spec §4.E normalizer).
type NormalizedCandidate struct {
	Level         int
	Label         string
	Normalized    string
	ParentAnchors []string
	Aliases       []string
	Fingerprint   string
	Institution   string
}

// Normalizer applies kernel canonical form and builds the alias union,
// dropping candidates outside the label policy's length bounds or
// (at level>0) lacking a parent anchor.
type Normalizer struct {
	labelPolicy settings.LabelPolicy
}

// NewNormalizer builds a Normalizer bound to policy.
func NewNormalizer(labelPolicy settings.LabelPolicy) *Normalizer {
	return &Normalizer{labelPolicy: labelPolicy}
}

// Normalize converts raw candidates at level into NormalizedCandidates.
func (n *Normalizer) Normalize(raw []RawCandidate, level int) []NormalizedCandidate {
	policy := n.labelPolicy.ToKernel()
	out := make([]NormalizedCandidate, 0, len(raw))
	for _, r := range raw {
		canonical, generatedAliases := kernel.ToCanonicalForm(r.Label, level, policy, r.Source.Provenance.Institution)
		if canonical == "" {
			continue
		}
		if len(canonical) < policy.MinCanonicalLength || len(canonical) > policy.MaxCanonicalLength {
			continue
		}

		aliases := dedupeUnion(r.Label, r.Normalized, r.Aliases, generatedAliases)

		var anchors []string
		for _, p := range r.Parents {
			if a := kernel.NormalizeWhitespace(strings.ToLower(p)); a != "" {
				anchors = append(anchors, a)
			}
		}
		if level > 0 && len(anchors) == 0 {
			continue
		}

		out = append(out, NormalizedCandidate{
			Level:         level,
			Label:         strings.TrimSpace(r.Label),
			Normalized:    canonical,
			ParentAnchors: anchors,
			Aliases:       aliases,
			Fingerprint:   fingerprintRecord(r.Source),
			Institution:   r.Source.Provenance.Institution,
		})
	}
	return out
}

// dedupeUnion builds the ordered-unique union of original label,
// returned normalized form, returned aliases, and kernel-generated
// aliases (spec §4.E normalizer).
func dedupeUnion(label, normalized string, returnedAliases, generatedAliases []string) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(s string) {
		cleaned := kernel.NormalizeWhitespace(strings.TrimSpace(s))
		if cleaned == "" {
			return
		}
		if _, ok := seen[cleaned]; ok {
			return
		}
		seen[cleaned] = struct{}{}
		out = append(out, cleaned)
	}
	add(label)
	add(normalized)
	for _, a := range returnedAliases {
		add(a)
	}
	for _, a := range generatedAliases {
		add(a)
	}
	return out
}

// fingerprintRecord computes record_fingerprint =
// sha1(normalized_whitespace(text) | institution | url) (spec §4.E).
func fingerprintRecord(record model.SourceRecord) string {
	material := strings.Join([]string{
		kernel.NormalizeWhitespace(record.Text),
		record.Provenance.Institution,
		record.Provenance.URL,
	}, "|")
	sum := sha1.Sum([]byte(material))
	return "record:" + hex.EncodeToString(sum[:])
}
