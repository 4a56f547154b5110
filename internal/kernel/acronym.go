package kernel

import (
	"regexp"
	"strings"
)

// acronymPattern matches runs of >=2 uppercase letters, optionally
// joined by '&' to further runs of >=2 (e.g. "EE&CS"); single-letter
// parts such as "R&D" do not match.
var acronymPattern = regexp.MustCompile(`\b[A-Z]{2,}(?:&[A-Z]{2,})*\b`)

const acronymMaxLength = 6

var acronymStopwords = map[string]struct{}{
	"OF": {}, "THE": {}, "AND": {}, "FOR": {}, "WITH": {}, "FROM": {}, "IN": {}, "ON": {},
	"BY": {}, "AT": {}, "TO": {}, "UNIVERSITY": {}, "COLLEGE": {}, "SCHOOL": {}, "DEPARTMENT": {},
	"DEPT": {}, "CENTER": {}, "CENTRE": {}, "INSTITUTE": {}, "LAB": {}, "LABORATORY": {},
	"PROGRAM": {}, "PROGRAMME": {}, "RESEARCH": {}, "SCIENCE": {}, "ENGINEERING": {}, "STUDIES": {},
	"PENNSYLVANIA": {},
}

// commonAcronymTable is a conservative, known-acronym expansion table
// (spec §4.A: "Expand via a conservative known-acronym table").
var commonAcronymTable = map[string]string{
	"cs":   "computer science",
	"cee":  "civil and environmental engineering",
	"ce":   "civil engineering",
	"ece":  "electrical and computer engineering",
	"ee":   "electrical engineering",
	"eecs": "electrical engineering and computer science",
	"ise":  "industrial and systems engineering",
	"me":   "mechanical engineering",
	"mba":  "master of business administration",
	"mse":  "materials science and engineering",
	"ai":   "artificial intelligence",
}

var ambiguousAcronyms = map[string]struct{}{"ai": {}}

// DetectAcronyms returns the unique acronyms found in text, in order of
// first appearance, excluding stopwords and overlength matches (spec
// §4.A: sequences of >=2 uppercase letters, length <=6, ignoring
// stopword tokens).
func DetectAcronyms(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	seen := map[string]struct{}{}
	for _, m := range acronymPattern.FindAllString(text, -1) {
		acr := strings.Trim(m, ".()[]{}:;,")
		if len(acr) < 2 || len(acr) > acronymMaxLength {
			continue
		}
		if _, stop := acronymStopwords[acr]; stop {
			continue
		}
		if _, dup := seen[acr]; dup {
			continue
		}
		seen[acr] = struct{}{}
		out = append(out, acr)
	}
	return out
}

// IsAcronym reports whether s itself detects as an acronym token.
func IsAcronym(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return acronymPattern.FindString(s) == s && len(s) <= acronymMaxLength
}

// ExpandAcronym returns a conservative expansion for acronym when
// known. Ambiguous acronyms (e.g. "AI") only expand when the policy
// opts in or the expansion already appears in the surrounding context;
// above L1, speculative expansions are never emitted (spec §4.A).
func ExpandAcronym(acronym string, level int, context string, policy LabelPolicy) string {
	key := strings.ToLower(acronym)
	expansion, ok := commonAcronymTable[key]
	if !ok {
		return ""
	}
	lowerContext := strings.ToLower(context)
	if strings.Contains(lowerContext, strings.ToLower(expansion)) {
		return expansion
	}
	if _, ambiguous := ambiguousAcronyms[key]; ambiguous {
		if !policy.IncludeAmbiguousAcronyms {
			return ""
		}
	}
	if level > 1 {
		return ""
	}
	return expansion
}

// AbbrevScore returns 1.0 when one side of (a, b) detects as an
// acronym and the other's token first-letters match it directly or via
// the known-acronym table; else 0 (spec §4.A).
func AbbrevScore(a, b string) float64 {
	if score := abbrevScoreDirected(a, b); score > 0 {
		return score
	}
	return abbrevScoreDirected(b, a)
}

func abbrevScoreDirected(acronymSide, phraseSide string) float64 {
	trimmed := strings.TrimSpace(acronymSide)
	if !IsAcronym(trimmed) {
		return 0
	}
	initials := firstLetters(phraseSide)
	if initials == "" {
		return 0
	}
	if strings.EqualFold(trimmed, initials) {
		return 1.0
	}
	for key, expansion := range commonAcronymTable {
		if strings.EqualFold(key, trimmed) && strings.EqualFold(expansion, strings.ToLower(phraseSide)) {
			return 1.0
		}
	}
	return 0
}

// initialsSkipWords are dropped when building initials for abbreviation
// matching ("Electrical and Computer Engineering" -> "ECE").
var initialsSkipWords = map[string]struct{}{
	"and": {}, "of": {}, "the": {}, "for": {}, "in": {}, "on": {}, "at": {}, "to": {}, "&": {},
}

func firstLetters(phrase string) string {
	fields := strings.Fields(phrase)
	var b strings.Builder
	for _, f := range fields {
		if _, skip := initialsSkipWords[strings.ToLower(f)]; skip {
			continue
		}
		r := []rune(f)
		if len(r) == 0 {
			continue
		}
		b.WriteRune(r[0])
	}
	return b.String()
}

// SuffixPrefixHint returns 1.0 when one side equals the other with the
// configured suffix token sequence appended or prepended; else 0 (spec
// §4.A).
func SuffixPrefixHint(a, b string, suffixes []string) float64 {
	for _, suffix := range suffixes {
		suffix = strings.TrimSpace(suffix)
		if suffix == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(a+" "+suffix), b) || strings.EqualFold(strings.TrimSpace(suffix+" "+a), b) {
			return 1.0
		}
		if strings.EqualFold(strings.TrimSpace(b+" "+suffix), a) || strings.EqualFold(strings.TrimSpace(suffix+" "+b), a) {
			return 1.0
		}
	}
	return 0
}
