// Package observability implements the cross-cutting counter, evidence,
// quarantine, and operation-log fabric shared by every pipeline stage,
// plus the deterministic PRNG and canonical-snapshot machinery the
// orchestrator uses to produce byte-identical manifests across runs
// with identical inputs and seeds (spec §4.C, §5).
package observability

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"math/rand"
)

// CanonicalJSON serializes payload into a deterministic JSON string.
// Go's encoding/json already sorts map[string]V keys alphabetically, so
// canonicalization only requires that callers build payloads out of
// maps and slices that are themselves pre-sorted where order is
// semantically significant (sequence numbers, phase names).
func CanonicalJSON(payload any) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// StableHash returns the hex sha256 digest of payload's canonical JSON
// form.
func StableHash(payload any) (string, error) {
	s, err := CanonicalJSON(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(s))
	return hexString(sum[:]), nil
}

func hexString(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0f]
	}
	return string(out)
}

// BuildRNG returns a deterministic PRNG derived from seed and namespace:
// rng = hash(namespace || seed), per spec §5.
func BuildRNG(seed int64, namespace string) *rand.Rand {
	var effective int64
	if namespace == "" {
		effective = seed
	} else {
		h := sha256.New()
		h.Write([]byte(namespace))
		h.Write([]byte{':'})
		var seedBytes [8]byte
		binary.BigEndian.PutUint64(seedBytes[:], uint64(seed))
		h.Write(seedBytes[:])
		digest := h.Sum(nil)
		effective = int64(binary.BigEndian.Uint64(digest[:8]))
		if effective < 0 {
			effective = -effective
		}
	}
	return rand.New(rand.NewSource(effective))
}
