package observability

import (
	"fmt"
	"sort"
	"sync"
)

// phaseCounters enumerates the canonical scalar counters tracked per
// pipeline phase (spec §4.D-§4.L counter lists). Phases also accept
// labelled counters (e.g. by-language breakdowns) declared separately.
var phaseCounters = map[string][]string{
	"S0": {
		"pages_seen", "pages_failed", "pages_language_skipped",
		"blocks_total", "blocks_kept", "blocks_filtered_length",
		"blocks_deduped", "boilerplate_removed",
	},
	"S1":        {"records_in", "candidates_out", "invalid_json", "retries"},
	"S2":        {"candidates_in", "kept", "dropped_insufficient_support"},
	"S3":        {"checked", "passed_rule", "failed_rule", "passed_llm", "failed_llm"},
	"Dedup":     {"pairs_compared", "edges_kept", "components", "merges_applied", "merges_skipped_parent_policy"},
	"Disambig":  {"collisions_detected", "splits_made", "deferred"},
	"Validation": {"checked", "rule_failed", "web_failed", "llm_failed", "passed_all"},
	"Hierarchy": {"nodes_in", "nodes_kept", "orphans", "violations", "edges_built"},
}

var labelledCounters = map[string]map[string]struct{}{
	"S0": {"language_counts": {}},
}

// CounterSnapshot is an immutable view over the registry's state at the
// moment Snapshot was called.
type CounterSnapshot struct {
	RunID    string                       `json:"run_id,omitempty"`
	Counters map[string]map[string]any    `json:"counters"`
}

// CounterRegistry is a thread-safe registry of canonical pipeline
// counters, scoped by phase, mirroring the teacher's mutex-guarded
// struct idiom (internal/cache/memory/lru_ttl.go) generalized from a
// cache to a counter table.
type CounterRegistry struct {
	mu       sync.Mutex
	runID    string
	scalars  map[string]map[string]int64
	labelled map[string]map[string]map[string]int64
}

// NewCounterRegistry constructs a registry pre-populated with every
// known phase/counter at zero.
func NewCounterRegistry(runID string) *CounterRegistry {
	r := &CounterRegistry{
		runID:    runID,
		scalars:  map[string]map[string]int64{},
		labelled: map[string]map[string]map[string]int64{},
	}
	for phase, names := range phaseCounters {
		r.scalars[phase] = map[string]int64{}
		for _, name := range names {
			r.scalars[phase][name] = 0
		}
	}
	for phase, names := range labelledCounters {
		r.labelled[phase] = map[string]map[string]int64{}
		for name := range names {
			r.labelled[phase][name] = map[string]int64{}
		}
	}
	return r
}

func (r *CounterRegistry) isLabelled(phase, counter string) bool {
	names, ok := labelledCounters[phase]
	if !ok {
		return false
	}
	_, ok = names[counter]
	return ok
}

// Increment adds value to counter within phase.
func (r *CounterRegistry) Increment(phase, counter string, value int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isLabelled(phase, counter) {
		return fmt.Errorf("observability: counter %q in phase %q requires a label", counter, phase)
	}
	bucket, ok := r.scalars[phase]
	if !ok {
		return fmt.Errorf("observability: unknown phase %q", phase)
	}
	if _, known := bucket[counter]; !known {
		return fmt.Errorf("observability: unknown counter %q for phase %q", counter, phase)
	}
	bucket[counter] += value
	return nil
}

// IncrementLabel adds value to a labelled counter's bucket for label.
func (r *CounterRegistry) IncrementLabel(phase, counter, label string, value int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket, ok := r.labelled[phase]
	if !ok {
		return fmt.Errorf("observability: unknown phase %q", phase)
	}
	labels, known := bucket[counter]
	if !known {
		return fmt.Errorf("observability: unknown labelled counter %q for phase %q", counter, phase)
	}
	labels[label] += value
	return nil
}

// Snapshot returns the registry's current state, sorted by phase name
// and (for labelled counters) by label, for deterministic
// serialization (spec §5).
func (r *CounterRegistry) Snapshot() CounterSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	phases := make([]string, 0, len(phaseCounters))
	for phase := range phaseCounters {
		phases = append(phases, phase)
	}
	sort.Strings(phases)

	out := make(map[string]map[string]any, len(phases))
	for _, phase := range phases {
		counters := make(map[string]any, len(phaseCounters[phase])+len(labelledCounters[phase]))
		names := append([]string(nil), phaseCounters[phase]...)
		sort.Strings(names)
		for _, name := range names {
			counters[name] = r.scalars[phase][name]
		}
		if labelNames, ok := labelledCounters[phase]; ok {
			sortedLabelNames := make([]string, 0, len(labelNames))
			for name := range labelNames {
				sortedLabelNames = append(sortedLabelNames, name)
			}
			sort.Strings(sortedLabelNames)
			for _, name := range sortedLabelNames {
				counters[name] = r.labelled[phase][name]
			}
		}
		out[phase] = counters
	}
	return CounterSnapshot{RunID: r.runID, Counters: out}
}

// Reset clears every counter back to zero.
func (r *CounterRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for phase, names := range phaseCounters {
		for _, name := range names {
			r.scalars[phase][name] = 0
		}
	}
	for phase, names := range labelledCounters {
		for name := range names {
			r.labelled[phase][name] = map[string]int64{}
		}
	}
}
