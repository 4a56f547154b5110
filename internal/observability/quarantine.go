package observability

import (
	"fmt"
	"sort"
	"sync"
)

// QuarantinedItem records a failure isolated from the main pipeline
// stream so processing can continue (spec §4.D, §7).
type QuarantinedItem struct {
	Phase    string         `json:"phase"`
	Reason   string         `json:"reason"`
	ItemID   string         `json:"item_id,omitempty"`
	Payload  map[string]any `json:"payload"`
	Sequence int64          `json:"sequence"`
}

// QuarantineSnapshot summarizes quarantine state.
type QuarantineSnapshot struct {
	Total    int                `json:"total"`
	ByReason map[string]int64   `json:"by_reason"`
	Items    []QuarantinedItem  `json:"items"`
}

// QuarantineManager is an append-only, sequence-ordered quarantine
// tracker, bounded at export time by a policy maximum.
type QuarantineManager struct {
	mu      sync.Mutex
	items   []QuarantinedItem
	reasons map[string]int64
	seq     int64
}

func NewQuarantineManager() *QuarantineManager {
	return &QuarantineManager{reasons: map[string]int64{}}
}

// Quarantine records a new item and returns the captured entry. reason
// must be non-empty.
func (q *QuarantineManager) Quarantine(phase, reason, itemID string, payload map[string]any) (QuarantinedItem, error) {
	if reason == "" {
		return QuarantinedItem{}, fmt.Errorf("observability: quarantine reason must be non-empty")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	entry := QuarantinedItem{
		Phase:    phase,
		Reason:   reason,
		ItemID:   itemID,
		Payload:  copyPayload(payload),
		Sequence: q.seq,
	}
	q.items = append(q.items, entry)
	q.reasons[reason]++
	return entry, nil
}

// Len reports the number of quarantined items.
func (q *QuarantineManager) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns a bounded, deterministically ordered view of the
// quarantine store. When maxItems is non-positive, all items are
// returned.
func (q *QuarantineManager) Snapshot(maxItems int) QuarantineSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := append([]QuarantinedItem(nil), q.items...)
	sort.Slice(items, func(i, j int) bool { return items[i].Sequence < items[j].Sequence })
	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}

	reasonNames := make([]string, 0, len(q.reasons))
	for reason := range q.reasons {
		reasonNames = append(reasonNames, reason)
	}
	sort.Strings(reasonNames)
	byReason := make(map[string]int64, len(reasonNames))
	for _, reason := range reasonNames {
		byReason[reason] = q.reasons[reason]
	}

	return QuarantineSnapshot{Total: len(q.items), ByReason: byReason, Items: items}
}

// Reset clears all quarantined items.
func (q *QuarantineManager) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
	q.reasons = map[string]int64{}
	q.seq = 0
}
