package phiguard

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// MerkleRoot computes a single hex fingerprint over a batch of entries by
// pairwise SHA-256 combining of per-entry hashes, bottom up.
//
// Odd node handling: an unpaired node at any level propagates to the next
// level unchanged. This differs from constructions that duplicate the last
// node (e.g. Bitcoin's); two implementations only agree on batch
// fingerprints if they agree on this rule.
func MerkleRoot(entries []SignedEntry) (string, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("merkle root of empty chain")
	}

	level := make([][]byte, 0, len(entries))
	for i, entry := range entries {
		h, err := EntryHash(entry)
		if err != nil {
			return "", fmt.Errorf("hash entry %d: %w", i, err)
		}
		raw, err := hex.DecodeString(h)
		if err != nil {
			return "", fmt.Errorf("decode entry %d hash: %w", i, err)
		}
		level = append(level, raw)
	}

	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			sum := sha256.Sum256(append(append([]byte{}, level[i]...), level[i+1]...))
			next = append(next, sum[:])
		}
		level = next
	}

	return hex.EncodeToString(level[0]), nil
}
