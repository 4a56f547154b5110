package observability

import (
	"math/rand"
	"sort"
	"sync"
)

// EvidenceSample is a captured decision payload retained for audit.
type EvidenceSample struct {
	Phase    string         `json:"phase"`
	Category string         `json:"category"`
	Outcome  string         `json:"outcome"`
	Payload  map[string]any `json:"payload"`
	Sequence int64          `json:"sequence"`
}

// EvidenceSnapshot is an immutable view over sampled evidence.
type EvidenceSnapshot struct {
	Samples         map[string][]EvidenceSample `json:"samples"`
	TotalConsidered map[string]int64            `json:"total_considered"`
}

// EvidenceSampler is a reservoir sampler with deterministic seeding,
// grounded on the original's observability/evidence.py reservoir
// algorithm.
type EvidenceSampler struct {
	mu       sync.Mutex
	rate     float64
	limit    int
	rng      *rand.Rand
	samples  map[string][]EvidenceSample
	counters map[string]int64
	sequence int64
}

// NewEvidenceSampler constructs a sampler. samplingRate is clamped to
// [0,1]; maxSamplesPerPhase defaults to 100 when non-positive.
func NewEvidenceSampler(samplingRate float64, maxSamplesPerPhase int, seed int64) *EvidenceSampler {
	if samplingRate < 0 {
		samplingRate = 0
	}
	if samplingRate > 1 {
		samplingRate = 1
	}
	if maxSamplesPerPhase <= 0 {
		maxSamplesPerPhase = 100
	}
	return &EvidenceSampler{
		rate:     samplingRate,
		limit:    maxSamplesPerPhase,
		rng:      BuildRNG(seed, "observability.evidence"),
		samples:  map[string][]EvidenceSample{},
		counters: map[string]int64{},
	}
}

// Consider offers payload for sampling with the given weight. It
// returns the sample when kept, or nil when discarded.
func (s *EvidenceSampler) Consider(phase, category, outcome string, payload map[string]any, weight float64) *EvidenceSample {
	if weight <= 0 {
		return nil
	}
	probability := s.rate * weight
	if probability > 1 {
		probability = 1
	}
	if probability < 0 {
		probability = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sequence++
	seen := s.counters[phase] + 1
	s.counters[phase] = seen

	if probability == 0 && int(seen) > s.limit {
		return nil
	}
	trigger := probability >= 1.0 || s.rng.Float64() < probability
	if !trigger {
		return nil
	}

	entry := EvidenceSample{
		Phase:    phase,
		Category: category,
		Outcome:  outcome,
		Payload:  copyPayload(payload),
		Sequence: s.sequence,
	}

	bucket := s.samples[phase]
	if len(bucket) < s.limit {
		s.samples[phase] = append(bucket, entry)
		return &entry
	}
	idx := int(s.rng.Float64() * float64(seen))
	if idx < s.limit {
		bucket[idx] = entry
		return &entry
	}
	return nil
}

func copyPayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}

// Snapshot returns sampled evidence sorted by phase, and within each
// phase by sequence number, for deterministic serialization.
func (s *EvidenceSampler) Snapshot() EvidenceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	phases := make([]string, 0, len(s.samples))
	for phase := range s.samples {
		phases = append(phases, phase)
	}
	sort.Strings(phases)

	samples := make(map[string][]EvidenceSample, len(phases))
	for _, phase := range phases {
		entries := append([]EvidenceSample(nil), s.samples[phase]...)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Sequence < entries[j].Sequence })
		samples[phase] = entries
	}

	totalPhases := make([]string, 0, len(s.counters))
	for phase := range s.counters {
		totalPhases = append(totalPhases, phase)
	}
	sort.Strings(totalPhases)
	totals := make(map[string]int64, len(totalPhases))
	for _, phase := range totalPhases {
		totals[phase] = s.counters[phase]
	}

	return EvidenceSnapshot{Samples: samples, TotalConsidered: totals}
}

// Reset discards all sampled evidence and counters.
func (s *EvidenceSampler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = map[string][]EvidenceSample{}
	s.counters = map[string]int64{}
	s.sequence = 0
}
