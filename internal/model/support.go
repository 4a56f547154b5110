package model

import "math"

// SupportStats is the evidence-weight tuple carried by Candidates and
// Concepts. Weight is never negative and aggregation is commutative
// (spec §3).
type SupportStats struct {
	Records      int `json:"records"`
	Institutions int `json:"institutions"`
	Count        int `json:"count"`
}

// Weight computes 1.0*institutions + 0.3*ln(1+records).
func (s SupportStats) Weight() float64 {
	return float64(s.Institutions) + 0.3*math.Log1p(float64(s.Records))
}

// Add returns the component-wise sum of s and other. Aggregation is
// commutative and associative, which is what MergeOp relies on for
// support-sum conservation (spec §8 property 3).
func (s SupportStats) Add(other SupportStats) SupportStats {
	return SupportStats{
		Records:      s.Records + other.Records,
		Institutions: s.Institutions + other.Institutions,
		Count:        s.Count + other.Count,
	}
}

// SumSupport folds Add over all of the given stats, starting from zero.
func SumSupport(all ...SupportStats) SupportStats {
	var total SupportStats
	for _, s := range all {
		total = total.Add(s)
	}
	return total
}
