// Package model defines the entity types that flow through the taxonomy
// pipeline: SourceRecord, Candidate, Concept, SupportStats, MergeOp,
// SplitOp, ValidationFinding, and PageSnapshot. Entities are immutable
// once constructed and flow forward only (S0 -> S1 -> ... -> hierarchy);
// nothing mutates in place across stage boundaries.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Provenance records where a SourceRecord's text came from.
type Provenance struct {
	Institution string    `json:"institution"`
	URL         string    `json:"url,omitempty"`
	Section     string    `json:"section,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// RecordMeta carries language/charset hints alongside free-form hints.
type RecordMeta struct {
	Language string            `json:"language,omitempty"`
	Charset  string            `json:"charset,omitempty"`
	Hints    map[string]string `json:"hints,omitempty"`
}

// SourceRecord is the immutable unit of evidence text emitted by S0 and
// consumed by S1. See spec §3.
type SourceRecord struct {
	Text       string     `json:"text"`
	Provenance Provenance `json:"provenance"`
	Meta       RecordMeta `json:"meta"`
}

// NewSourceRecord validates and constructs a SourceRecord. Text must be
// non-empty once trimmed; Institution must be non-empty.
func NewSourceRecord(text string, prov Provenance, meta RecordMeta) (SourceRecord, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return SourceRecord{}, fmt.Errorf("model: source record text must be non-empty")
	}
	if strings.TrimSpace(prov.Institution) == "" {
		return SourceRecord{}, fmt.Errorf("model: source record institution must be non-empty")
	}
	prov.FetchedAt = prov.FetchedAt.UTC()
	if meta.Language != "" {
		meta.Language = strings.ToLower(meta.Language)
	}
	return SourceRecord{Text: trimmed, Provenance: prov, Meta: meta}, nil
}
