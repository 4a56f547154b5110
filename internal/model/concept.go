package model

import "fmt"

// Rationale is the structured record attached to each concept capturing
// which gates passed, the reasons given, and the threshold values in
// effect at decision time (spec GLOSSARY: Rationale).
type Rationale struct {
	PassedGates map[string]bool    `json:"passed_gates"`
	Reasons     []string           `json:"reasons"`
	Thresholds  map[string]float64 `json:"thresholds"`
}

// NewRationale returns an empty, ready-to-use Rationale.
func NewRationale() Rationale {
	return Rationale{
		PassedGates: map[string]bool{},
		Reasons:     []string{},
		Thresholds:  map[string]float64{},
	}
}

// Clone returns a deep copy so callers can mutate the copy without
// affecting the shared template (used heavily by disambiguation split).
func (r Rationale) Clone() Rationale {
	out := Rationale{
		PassedGates: make(map[string]bool, len(r.PassedGates)),
		Reasons:     append([]string(nil), r.Reasons...),
		Thresholds:  make(map[string]float64, len(r.Thresholds)),
	}
	for k, v := range r.PassedGates {
		out.PassedGates[k] = v
	}
	for k, v := range r.Thresholds {
		out.Thresholds[k] = v
	}
	return out
}

// Concept is emitted from S2/S3 onward and is the unit the hierarchy is
// built from (spec §3).
type Concept struct {
	ID             string       `json:"id"`
	Level          int          `json:"level"`
	CanonicalLabel string       `json:"canonical_label"`
	Parents        []string     `json:"parents"`
	Aliases        []string     `json:"aliases"`
	Support        SupportStats `json:"support"`
	Rationale      Rationale    `json:"rationale"`
}

// ValidateHierarchy enforces: level 0 => no parents; level>0 => at
// least one parent and every parent's level strictly less than self.
func (c Concept) ValidateHierarchy(parents map[string]Concept) error {
	if c.ID == "" {
		return fmt.Errorf("model: concept id must be non-empty")
	}
	if c.Level == 0 {
		if len(c.Parents) != 0 {
			return fmt.Errorf("model: level-0 concept %q must have no parents", c.ID)
		}
		return nil
	}
	if len(c.Parents) == 0 {
		return fmt.Errorf("model: level-%d concept %q requires at least one parent", c.Level, c.ID)
	}
	for _, pid := range c.Parents {
		parent, ok := parents[pid]
		if !ok {
			return fmt.Errorf("model: concept %q references unknown parent %q", c.ID, pid)
		}
		if parent.Level >= c.Level {
			return fmt.Errorf("model: concept %q (level %d) has parent %q at level %d, which is not strictly smaller", c.ID, c.Level, pid, parent.Level)
		}
	}
	return nil
}

// Clone returns a deep copy of the concept.
func (c Concept) Clone() Concept {
	return Concept{
		ID:             c.ID,
		Level:          c.Level,
		CanonicalLabel: c.CanonicalLabel,
		Parents:        append([]string(nil), c.Parents...),
		Aliases:        append([]string(nil), c.Aliases...),
		Support:        c.Support,
		Rationale:      c.Rationale.Clone(),
	}
}
