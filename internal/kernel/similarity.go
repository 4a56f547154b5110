package kernel

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"regexp"
	"sort"
	"strings"
)

var nonWord = regexp.MustCompile(`[^\w\s]+`)

// PreprocessForSimilarity normalizes text for similarity calculations:
// whitespace-normalize, lowercase, strip non-word characters, collapse
// whitespace (spec §4.A).
func PreprocessForSimilarity(text string) string {
	if text == "" {
		return ""
	}
	normalized := NormalizeWhitespace(text)
	lowered := strings.ToLower(normalized)
	stripped := nonWord.ReplaceAllString(lowered, " ")
	return NormalizeWhitespace(stripped)
}

// JaroWinkler computes the Jaro-Winkler similarity of two strings in
// [0,1].
func JaroWinkler(a, b string) float64 {
	jaro := jaroSimilarity(a, b)
	if jaro == 0 {
		return 0
	}
	prefix := commonPrefixLength(a, b, 4)
	return jaro + float64(prefix)*0.1*(1-jaro)
}

func jaroSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 && lb == 0 {
		return 1
	}
	if la == 0 || lb == 0 {
		return 0
	}
	matchDistance := int(math.Max(float64(la), float64(lb))/2) - 1
	if matchDistance < 0 {
		matchDistance = 0
	}
	aMatches := make([]bool, la)
	bMatches := make([]bool, lb)
	matches := 0
	for i := 0; i < la; i++ {
		start := i - matchDistance
		if start < 0 {
			start = 0
		}
		end := i + matchDistance + 1
		if end > lb {
			end = lb
		}
		for j := start; j < end; j++ {
			if bMatches[j] || ra[i] != rb[j] {
				continue
			}
			aMatches[i] = true
			bMatches[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}
	var transpositions int
	k := 0
	for i := 0; i < la; i++ {
		if !aMatches[i] {
			continue
		}
		for !bMatches[k] {
			k++
		}
		if ra[i] != rb[k] {
			transpositions++
		}
		k++
	}
	m := float64(matches)
	return (m/float64(la) + m/float64(lb) + (m-float64(transpositions)/2)/m) / 3.0
}

func commonPrefixLength(a, b string, maxLen int) int {
	ra, rb := []rune(a), []rune(b)
	n := maxLen
	if len(ra) < n {
		n = len(ra)
	}
	if len(rb) < n {
		n = len(rb)
	}
	i := 0
	for i < n && ra[i] == rb[i] {
		i++
	}
	return i
}

// TokenJaccard computes Jaccard similarity over whitespace-split
// lowercase tokens.
func TokenJaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}
	inter, union := 0, 0
	seen := map[string]struct{}{}
	for t := range setA {
		seen[t] = struct{}{}
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union = len(seen)
	for t := range setB {
		if _, ok := seen[t]; !ok {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, f := range strings.Fields(strings.ToLower(s)) {
		out[f] = struct{}{}
	}
	return out
}

func generateShingles(text string, n int) []string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}
	if len(tokens) <= n {
		return []string{strings.Join(tokens, " ")}
	}
	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+n], " "))
	}
	return out
}

// JaccardShingleSimilarity computes word-shingle Jaccard similarity
// between two strings at shingle size n (default 3 when n<=0).
func JaccardShingleSimilarity(a, b string, n int) float64 {
	if n <= 0 {
		n = 3
	}
	sa := generateShingles(PreprocessForSimilarity(a), n)
	sb := generateShingles(PreprocessForSimilarity(b), n)
	if len(sa) == 0 && len(sb) == 0 {
		return 1.0
	}
	if len(sa) == 0 || len(sb) == 0 {
		return 0.0
	}
	setA := toSet(sa)
	setB := toSet(sb)
	inter := 0
	for s := range setA {
		if _, ok := setB[s]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		out[it] = struct{}{}
	}
	return out
}

func hashShingle(shingle string, seed int) uint64 {
	sum := sha256.Sum256([]byte(strings.Join([]string{itoa(seed), shingle}, "|")))
	return binary.BigEndian.Uint64(sum[:8])
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func minhashSignature(shingles []string, numHashes int) []uint64 {
	const maxHash = ^uint64(0)
	sig := make([]uint64, numHashes)
	for i := range sig {
		sig[i] = maxHash
	}
	for _, shingle := range shingles {
		for i := 0; i < numHashes; i++ {
			h := hashShingle(shingle, i)
			if h < sig[i] {
				sig[i] = h
			}
		}
	}
	return sig
}

// MinHashSimilarity approximates Jaccard similarity via MinHash
// signatures with fixed blake2b-seeded hashes (sha256-seeded here, the
// Go equivalent tool available without adding a new hash dependency).
func MinHashSimilarity(a, b string, numHashes, n int) float64 {
	if numHashes <= 0 {
		numHashes = 128
	}
	if n <= 0 {
		n = 3
	}
	sa := generateShingles(PreprocessForSimilarity(a), n)
	sb := generateShingles(PreprocessForSimilarity(b), n)
	if len(sa) == 0 && len(sb) == 0 {
		return 1.0
	}
	if len(sa) == 0 || len(sb) == 0 {
		return 0.0
	}
	sigA := minhashSignature(sa, numHashes)
	sigB := minhashSignature(sb, numHashes)
	matches := 0
	for i := range sigA {
		if sigA[i] == sigB[i] {
			matches++
		}
	}
	return float64(matches) / float64(numHashes)
}

// FindDuplicateIndices identifies block indices to discard, comparing
// each candidate greedily against kept-so-far blocks at threshold,
// preserving first-occurrence order (spec §4.A).
func FindDuplicateIndices(blocks []string, threshold float64, useMinHash bool) []int {
	if len(blocks) == 0 {
		return nil
	}
	var duplicates []int
	var kept []int
	for idx, candidate := range blocks {
		isDup := false
		for _, keptIdx := range kept {
			var score float64
			if useMinHash {
				score = MinHashSimilarity(candidate, blocks[keptIdx], 128, 3)
			} else {
				score = JaccardShingleSimilarity(candidate, blocks[keptIdx], 3)
			}
			if score >= threshold || math.Abs(score-1.0) < 1e-9 {
				duplicates = append(duplicates, idx)
				isDup = true
				break
			}
		}
		if !isDup {
			kept = append(kept, idx)
		}
	}
	sort.Ints(duplicates)
	return duplicates
}
