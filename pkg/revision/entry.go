package revision

import (
	"crypto/sha1" //nolint:gosec // content identity, not a security boundary.
	"encoding/hex"
)

// ContentHash returns the cross-revision identity of an entry's code.
func ContentHash(code string) string {
	sum := sha1.Sum([]byte(code)) //nolint:gosec // see import.

	return hex.EncodeToString(sum[:])
}

// Entry is one named code sample of a revision.
type Entry struct {
	// ID is the persisted id; zero means the entry still has to be inserted.
	ID       uint
	Title    string
	Code     string
	Totals   []Metric
	Obsolete bool
}

// ContentHash returns the content hash of the entry's code.
func (e *Entry) ContentHash() string {
	return ContentHash(e.Code)
}

// InheritTotals folds totals into the entry's metrics. Metrics sharing a
// fingerprint are merged, unknown fingerprints are appended as new buckets.
func (e *Entry) InheritTotals(totals []Metric) {
	index := make(map[string]int, len(e.Totals)+len(totals))
	for i := range e.Totals {
		index[e.Totals[i].Fingerprint()] = i
	}

	for _, m := range totals {
		key := m.Fingerprint()

		if i, ok := index[key]; ok {
			e.Totals[i].Fold(m)

			continue
		}

		e.Totals = append(e.Totals, m)
		index[key] = len(e.Totals) - 1
	}
}

func (e Entry) clone() Entry {
	e.Totals = append([]Metric(nil), e.Totals...)

	return e
}

// IndexByContent maps each entry's content hash to its position. When two
// entries share the same code, the last one wins.
func IndexByContent(entries []Entry) map[string]int {
	index := make(map[string]int, len(entries))
	for i := range entries {
		index[entries[i].ContentHash()] = i
	}

	return index
}
