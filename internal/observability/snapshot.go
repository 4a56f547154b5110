package observability

import "sync"

// Fabric bundles the counter registry, evidence sampler, quarantine
// manager, and operation log behind a single handle, the way the
// orchestrator threads observability through every stage (spec §4.C).
type Fabric struct {
	Counters  *CounterRegistry
	Evidence  *EvidenceSampler
	Quarantine *QuarantineManager
	Ops       *OperationLog

	mu       sync.Mutex
	metrics  *MetricsMirror
}

// NewFabric constructs a fabric for a single run.
func NewFabric(runID string, samplingRate float64, maxSamplesPerPhase int, seed int64) *Fabric {
	return &Fabric{
		Counters:   NewCounterRegistry(runID),
		Evidence:   NewEvidenceSampler(samplingRate, maxSamplesPerPhase, seed),
		Quarantine: NewQuarantineManager(),
		Ops:        NewOperationLog(),
	}
}

// WithMetrics attaches a Prometheus mirror, lazily constructing one if
// absent, and returns it.
func (f *Fabric) WithMetrics() *MetricsMirror {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.metrics == nil {
		f.metrics = NewMetricsMirror()
	}
	return f.metrics
}

// Snapshot is the deterministic, sortable JSON document written as
// observability_snapshot.json (spec §5: "byte-identical ... via
// canonical JSON + sha256").
type Snapshot struct {
	RunID      string              `json:"run_id,omitempty"`
	Counters   map[string]map[string]any `json:"counters"`
	Evidence   EvidenceSnapshot    `json:"evidence"`
	Quarantine QuarantineSnapshot  `json:"quarantine"`
	Operations []Operation         `json:"operations"`
}

// Render produces the full deterministic snapshot. maxQuarantineItems
// bounds the exported quarantine list (policy `max_quarantine_items`);
// zero or negative means unbounded.
func (f *Fabric) Render(maxQuarantineItems int) Snapshot {
	counters := f.Counters.Snapshot()
	if f.metrics != nil {
		f.metrics.Sync(counters)
	}
	return Snapshot{
		RunID:      counters.RunID,
		Counters:   counters.Counters,
		Evidence:   f.Evidence.Snapshot(),
		Quarantine: f.Quarantine.Snapshot(maxQuarantineItems),
		Operations: f.Ops.Snapshot(),
	}
}

// Checksum returns the sha256 hex digest of the snapshot's canonical
// JSON form, used as the manifest's final checksum over all
// canonicalized substructures (spec §4.L).
func (s Snapshot) Checksum() (string, error) {
	return StableHash(s)
}

// JSON returns the snapshot's canonical JSON encoding.
func (s Snapshot) JSON() (string, error) {
	return CanonicalJSON(s)
}
