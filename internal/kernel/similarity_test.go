package kernel

import "testing"

func TestJaroWinklerIdentical(t *testing.T) {
	if score := JaroWinkler("computer science", "computer science"); score != 1.0 {
		t.Fatalf("expected identical strings to score 1.0, got %v", score)
	}
}

func TestJaroWinklerCloseStrings(t *testing.T) {
	score := JaroWinkler("computer science", "computor scence")
	if score < 0.8 {
		t.Fatalf("expected close strings to score highly, got %v", score)
	}
}

func TestTokenJaccardIdentical(t *testing.T) {
	if score := TokenJaccard("school of engineering", "engineering of school"); score != 1.0 {
		t.Fatalf("expected token-order-independent match to score 1.0, got %v", score)
	}
}

func TestTokenJaccardDisjoint(t *testing.T) {
	if score := TokenJaccard("physics", "chemistry"); score != 0 {
		t.Fatalf("expected disjoint token sets to score 0, got %v", score)
	}
}

func TestJaccardShingleSimilarityIdentical(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	if score := JaccardShingleSimilarity(text, text, 3); score != 1.0 {
		t.Fatalf("expected identical text to score 1.0, got %v", score)
	}
}

func TestFindDuplicateIndicesPreservesFirstOccurrence(t *testing.T) {
	blocks := []string{
		"the quick brown fox jumps over the lazy dog",
		"an entirely unrelated sentence about oceans",
		"the quick brown fox jumps over the lazy dog!",
	}
	dups := FindDuplicateIndices(blocks, 0.9, false)
	if len(dups) != 1 || dups[0] != 2 {
		t.Fatalf("expected block 2 flagged as duplicate of block 0, got %v", dups)
	}
}

func TestMinHashSimilarityIdenticalIsOne(t *testing.T) {
	text := "department of computer science and engineering research"
	if score := MinHashSimilarity(text, text, 64, 3); score != 1.0 {
		t.Fatalf("expected identical text minhash similarity 1.0, got %v", score)
	}
}
