// Package report models per-party matchkey reports: a labelled set of
// matchkey ciphertexts that the helper parties jointly decrypt and compare
// for matches without revealing the matchkeys themselves.
package report

import (
	"encoding/binary"
	"sort"

	"github.com/zeebo/blake3"

	"github.com/attributelabs/private-attribution/internal/pool"
	"github.com/attributelabs/private-attribution/pkg/math/curve"
	"github.com/attributelabs/private-attribution/pkg/threshold"
)

const matchkeyDomain = "private-attribution/matchkey-point/v1"

// MatchkeyPoint maps a 64-bit matchkey to a group element, by hashing it to
// a scalar and acting on the base point. The mapping is deterministic, so
// equal matchkeys from different parties land on the same element.
func MatchkeyPoint(matchkey uint64) *curve.Point {
	h := blake3.NewDeriveKey(matchkeyDomain)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], matchkey)
	_, _ = h.Write(buf[:])
	digest := h.Sum(nil)
	return curve.FromHash(digest).ActOnBase()
}

// EncryptedMatchkeys maps a label (party or user identifier) to one
// matchkey ciphertext. It is immutable; decryption passes return new sets.
type EncryptedMatchkeys struct {
	matchKeys map[string]*threshold.Ciphertext
}

// FromMatchkeys constructs a report from a label-to-ciphertext mapping.
func FromMatchkeys(matchKeys map[string]*threshold.Ciphertext) EncryptedMatchkeys {
	m := make(map[string]*threshold.Ciphertext, len(matchKeys))
	for label, ct := range matchKeys {
		m[label] = ct
	}
	return EncryptedMatchkeys{matchKeys: m}
}

// Matchkeys returns the current, possibly partially decrypted, mapping.
func (e EncryptedMatchkeys) Matchkeys() map[string]*threshold.Ciphertext {
	out := make(map[string]*threshold.Ciphertext, len(e.matchKeys))
	for label, ct := range e.matchKeys {
		out[label] = ct
	}
	return out
}

// ThresholdDecrypt applies one holder's partial decryption to every entry,
// preserving labels. The result still requires the remaining holders'
// contributions. A nil pool runs the work inline.
func (e EncryptedMatchkeys) ThresholdDecrypt(dk *threshold.DecryptionKey, pl *pool.Pool) EncryptedMatchkeys {
	labels := e.labels()
	results := pl.Parallelize(len(labels), func(i int) any {
		return dk.ThresholdDecrypt(e.matchKeys[labels[i]])
	})
	m := make(map[string]*threshold.Ciphertext, len(labels))
	for i, label := range labels {
		m[label] = results[i].(*threshold.Ciphertext)
	}
	return EncryptedMatchkeys{matchKeys: m}
}

// Decrypt applies full decryption to every entry. dk must be the complete
// (or fully aggregated) key.
func (e EncryptedMatchkeys) Decrypt(dk *threshold.DecryptionKey, pl *pool.Pool) DecryptedMatchkeys {
	labels := e.labels()
	results := pl.Parallelize(len(labels), func(i int) any {
		return dk.Decrypt(e.matchKeys[labels[i]])
	})
	m := make(map[string]*curve.Point, len(labels))
	for i, label := range labels {
		m[label] = results[i].(*curve.Point)
	}
	return DecryptedMatchkeys{matchKeys: m}
}

func (e EncryptedMatchkeys) labels() []string {
	labels := make([]string, 0, len(e.matchKeys))
	for label := range e.matchKeys {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// DecryptedMatchkeys maps a label to a decrypted group element.
type DecryptedMatchkeys struct {
	matchKeys map[string]*curve.Point
}

// DecryptedFrom constructs a decrypted set directly from points. Mostly
// useful for orchestration and tests.
func DecryptedFrom(matchKeys map[string]*curve.Point) DecryptedMatchkeys {
	m := make(map[string]*curve.Point, len(matchKeys))
	for label, p := range matchKeys {
		m[label] = p
	}
	return DecryptedMatchkeys{matchKeys: m}
}

// CountMatches counts the pairs (p, q) with p in d and q in other whose
// points are group-equal. Duplicates on either side all contribute, so the
// count can exceed the number of distinct shared matchkeys.
func (d DecryptedMatchkeys) CountMatches(other DecryptedMatchkeys) int {
	n := 0
	for _, p := range d.matchKeys {
		for _, q := range other.matchKeys {
			if p.Equal(q) {
				n++
			}
		}
	}
	return n
}

// HasAnyMatch reports whether at least one matchkey value is shared between
// the two sets. Note that this is deliberately coarser than structural
// equality of the mappings.
func (d DecryptedMatchkeys) HasAnyMatch(other DecryptedMatchkeys) bool {
	for _, p := range d.matchKeys {
		for _, q := range other.matchKeys {
			if p.Equal(q) {
				return true
			}
		}
	}
	return false
}

// EventReport is the per-event report surface handed to orchestration code.
type EventReport struct {
	EncryptedMatchkeys EncryptedMatchkeys
}

// Matchkeys returns the report's encrypted matchkey set.
func (r *EventReport) Matchkeys() EncryptedMatchkeys {
	return r.EncryptedMatchkeys
}

// DecryptedEventReport is an EventReport after full decryption.
type DecryptedEventReport struct {
	DecryptedMatchkeys DecryptedMatchkeys
}

// Matchkeys returns the report's decrypted matchkey set.
func (r *DecryptedEventReport) Matchkeys() DecryptedMatchkeys {
	return r.DecryptedMatchkeys
}
