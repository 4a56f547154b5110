package kernel

import "testing"

func TestDoubleMetaphoneStableAcrossCase(t *testing.T) {
	a := GeneratePhoneticKey("Smith")
	b := GeneratePhoneticKey("SMITH")
	if a == "" || a != b {
		t.Fatalf("expected stable phonetic key across case, got %q vs %q", a, b)
	}
}

func TestDoubleMetaphoneMatchesSimilarSpellings(t *testing.T) {
	a := GeneratePhoneticKey("Catherine")
	b := GeneratePhoneticKey("Katherine")
	if a != b {
		t.Fatalf("expected matching phonetic keys, got %q vs %q", a, b)
	}
}

func TestDoubleMetaphoneEmptyInput(t *testing.T) {
	if got := DoubleMetaphone("   "); got != nil {
		t.Fatalf("expected nil for blank input, got %v", got)
	}
}

func TestPhoneticBucketKeysNonEmpty(t *testing.T) {
	keys := PhoneticBucketKeys("Philosophy")
	if len(keys) == 0 {
		t.Fatalf("expected at least one bucket key")
	}
}
