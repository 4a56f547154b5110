// Package kernel implements the normalization and similarity primitives
// shared across every pipeline stage: canonical form construction,
// acronym detection/expansion, phonetic blocking codes, and the string
// and shingle similarity measures used by deduplication (spec §4.A).
package kernel

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// levelPrefixes holds level-aware boilerplate prefixes stripped from
// labels prior to canonicalization.
var levelPrefixes = map[int][]string{
	0: {},
	1: {"school of ", "college of ", "department of ", "dept of ", "dept. of ", "division of "},
	2: {"center for ", "centre for ", "laboratory for ", "lab for ", "institute for ", "research area: "},
	3: {"workshop on ", "symposium on ", "track: "},
}

var parenSuffixPattern = regexp.MustCompile(`\(([^)]+)\)\s*$`)

// AliasBundle is returned by RemoveBoilerplate: the cleaned label plus
// any alias variants captured while stripping boilerplate.
type AliasBundle struct {
	Cleaned string
	Aliases []string
}

// LabelPolicy configures canonicalization behavior per level.
type LabelPolicy struct {
	BoilerplatePatterns      []string // policy regexes stripped in addition to built-in prefixes
	FoldDiacritics           bool
	RemovePunctuation        bool
	CollapseWhitespace       bool
	Lowercase                bool
	IncludeAmbiguousAcronyms bool
	MinCanonicalLength       int
	MaxCanonicalLength       int
}

// DefaultLabelPolicy returns the conservative defaults used when the
// caller does not override anything.
func DefaultLabelPolicy() LabelPolicy {
	return LabelPolicy{
		FoldDiacritics:      true,
		RemovePunctuation:   true,
		CollapseWhitespace:  true,
		Lowercase:           true,
		MinCanonicalLength:  1,
		MaxCanonicalLength:  200,
	}
}

// NormalizeWhitespace collapses runs of whitespace into single spaces
// and trims the result.
func NormalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// FoldDiacritics removes combining diacritical marks via NFKD
// decomposition, the Go equivalent of Python's unicodedata-based
// folding used by the original normalizer.
func FoldDiacritics(s string) string {
	decomposed := norm.NFKD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var nonAlnumSpace = regexp.MustCompile(`[^0-9A-Za-z\s]+`)

// RemoveBoilerplate strips the owning-institution prefix (L0 only),
// level-aware boilerplate prefixes, policy regexes, and a trailing
// short parenthetical, preserving each removed variant as an alias
// (spec §4.A steps 1-4).
func RemoveBoilerplate(label string, level int, policy LabelPolicy, owningInstitution string) AliasBundle {
	working := strings.TrimSpace(label)
	var aliases []string

	if owningInstitution != "" && level == 0 {
		inst := strings.TrimSpace(owningInstitution)
		if inst != "" {
			pattern := regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(inst) + `\s*(?:[-\x{2013}\x{2014}:\|])?\s+`)
			if loc := pattern.FindStringIndex(working); loc != nil && loc[0] == 0 {
				aliases = append(aliases, working)
				working = strings.TrimLeft(pattern.ReplaceAllString(working, ""), " ")
			}
		}
	}

	lowered := strings.ToLower(working)
	for _, prefix := range levelPrefixes[level] {
		if strings.HasPrefix(lowered, prefix) {
			aliases = append(aliases, working)
			working = strings.TrimLeft(working[len(prefix):], " -:,\t")
			lowered = strings.ToLower(working)
			break
		}
	}

	for _, pat := range policy.BoilerplatePatterns {
		re, err := regexp.Compile("(?i)" + pat)
		if err != nil {
			continue
		}
		if re.MatchString(working) {
			aliases = append(aliases, working)
			working = NormalizeWhitespace(re.ReplaceAllString(working, " "))
		}
	}

	if m := parenSuffixPattern.FindStringSubmatchIndex(working); m != nil {
		suffix := strings.TrimSpace(working[m[2]:m[3]])
		if len(suffix) >= 1 && len(suffix) <= 8 {
			aliases = append(aliases, working)
			working = strings.TrimRight(working[:m[0]], " ")
		}
	}

	return AliasBundle{Cleaned: working, Aliases: dedupeOrdered(aliases)}
}

func applyMinimalForm(s string, policy LabelPolicy) string {
	working := s
	if policy.Lowercase {
		working = strings.ToLower(working)
	}
	if policy.FoldDiacritics {
		working = FoldDiacritics(working)
	}
	if policy.RemovePunctuation {
		working = nonAlnumSpace.ReplaceAllString(working, " ")
	}
	if policy.CollapseWhitespace {
		working = NormalizeWhitespace(working)
	} else {
		working = strings.TrimSpace(working)
	}
	return working
}

// NormalizeByLevel applies the full level-aware normalization pipeline
// and returns only the canonical string (spec §4.A).
func NormalizeByLevel(label string, level int, policy LabelPolicy, owningInstitution string) string {
	bundle := RemoveBoilerplate(label, level, policy, owningInstitution)
	return applyMinimalForm(bundle.Cleaned, policy)
}

// ToCanonicalForm returns the canonical string alongside a sorted,
// unique alias set built from the original label, boilerplate variants,
// acronym expansions, and (when enabled) diacritic-folded variants
// (spec §4.A).
func ToCanonicalForm(label string, level int, policy LabelPolicy, owningInstitution string) (string, []string) {
	bundle := RemoveBoilerplate(label, level, policy, owningInstitution)
	canonical := applyMinimalForm(bundle.Cleaned, policy)
	aliases := GenerateAliases(label, canonical, level, policy, bundle.Aliases)
	return canonical, aliases
}

// GenerateAliases builds the deterministic, sorted-unique alias set for
// a label: original, normalized, boilerplate variants, acronyms and
// their expansions, and diacritic-folded variants.
//
// Alias ordering: spec §9 flags that the original source alternates
// between sorted and insertion order; this implementation always
// returns sorted-unique output for cross-run determinism, per the
// spec's explicit resolution of that open question.
func GenerateAliases(original, normalized string, level int, policy LabelPolicy, boilerplateAliases []string) []string {
	set := map[string]struct{}{}
	add := func(s string) {
		s = NormalizeWhitespace(s)
		if s == "" {
			return
		}
		set[s] = struct{}{}
	}
	add(original)
	add(normalized)
	for _, v := range boilerplateAliases {
		add(v)
	}
	for _, acr := range DetectAcronyms(original) {
		add(acr)
		if exp := ExpandAcronym(acr, level, original, policy); exp != "" {
			add(exp)
		}
	}
	if policy.FoldDiacritics {
		for k := range set {
			add(FoldDiacritics(k))
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sortStrings(out)
	return out
}

func dedupeOrdered(items []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
