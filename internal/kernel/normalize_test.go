package kernel

import "testing"

func TestNormalizeByLevelIdempotent(t *testing.T) {
	policy := DefaultLabelPolicy()
	label := "School of Computer Science (CS)"
	first := NormalizeByLevel(label, 1, policy, "")
	second := NormalizeByLevel(first, 1, policy, "")
	if first != second {
		t.Fatalf("normalization not idempotent: %q vs %q", first, second)
	}
}

func TestRemoveBoilerplateStripsOwningInstitution(t *testing.T) {
	policy := DefaultLabelPolicy()
	bundle := RemoveBoilerplate("Acme University - College of Engineering", 0, policy, "Acme University")
	if bundle.Cleaned != "College of Engineering" {
		t.Fatalf("expected institution prefix stripped, got %q", bundle.Cleaned)
	}
	if len(bundle.Aliases) == 0 {
		t.Fatalf("expected an alias recorded for the stripped variant")
	}
}

func TestRemoveBoilerplateStripsLevelPrefix(t *testing.T) {
	policy := DefaultLabelPolicy()
	bundle := RemoveBoilerplate("Department of Electrical Engineering", 1, policy, "")
	if bundle.Cleaned != "Electrical Engineering" {
		t.Fatalf("expected level prefix stripped, got %q", bundle.Cleaned)
	}
}

func TestToCanonicalFormAliasesContainOriginalAndNormalized(t *testing.T) {
	policy := DefaultLabelPolicy()
	canonical, aliases := ToCanonicalForm("School of Computer Science (CS)", 1, policy, "")
	found := map[string]bool{}
	for _, a := range aliases {
		found[a] = true
	}
	if !found["school of computer science (cs)"] && !found["School of Computer Science (CS)"] {
		t.Fatalf("expected original label among aliases, got %v", aliases)
	}
	if !found[canonical] {
		t.Fatalf("expected canonical form among its own aliases, got %v", aliases)
	}
}

func TestGenerateAliasesSortedAndUnique(t *testing.T) {
	policy := DefaultLabelPolicy()
	aliases := GenerateAliases("CS Department", "computer science department", 1, policy, nil)
	for i := 1; i < len(aliases); i++ {
		if aliases[i-1] > aliases[i] {
			t.Fatalf("aliases not sorted: %v", aliases)
		}
		if aliases[i-1] == aliases[i] {
			t.Fatalf("aliases not unique: %v", aliases)
		}
	}
}

func TestFoldDiacritics(t *testing.T) {
	got := FoldDiacritics("Ecole Polytechnique Fédérale")
	if got != "Ecole Polytechnique Federale" {
		t.Fatalf("expected diacritics folded, got %q", got)
	}
}
