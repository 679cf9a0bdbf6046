package reconcile

import "strings"

// TargetRecord is one entry on the reconciliation target side (for example,
// a tracking-board page).
type TargetRecord struct {
	ID    string
	Name  string
	Value float64
}

// indexedTarget caches the normalized name alongside the record so the
// linear-scan strategies don't re-normalize per comparison.
type indexedTarget struct {
	TargetRecord
	lowerName string
	normName  string
}

// TargetIndex holds the lookup structures the match cascade needs: an
// exact-id map, an exact-lowercased-name map, and a linear-scan list with
// precomputed normalized names.
type TargetIndex struct {
	byID   map[string]TargetRecord
	byName map[string]TargetRecord
	list   []indexedTarget
}

// NewTargetIndex builds a TargetIndex from target records. When two targets
// share a lowercased name the first one wins the exact-name slot.
func NewTargetIndex(targets []TargetRecord) *TargetIndex {
	idx := &TargetIndex{
		byID:   make(map[string]TargetRecord, len(targets)),
		byName: make(map[string]TargetRecord, len(targets)),
		list:   make([]indexedTarget, 0, len(targets)),
	}
	for _, t := range targets {
		if t.ID != "" {
			idx.byID[t.ID] = t
		}
		lower := strings.ToLower(strings.TrimSpace(t.Name))
		if lower != "" {
			if _, exists := idx.byName[lower]; !exists {
				idx.byName[lower] = t
			}
		}
		idx.list = append(idx.list, indexedTarget{
			TargetRecord: t,
			lowerName:    lower,
			normName:     NormalizeName(t.Name),
		})
	}
	return idx
}

// Len returns the number of indexed targets.
func (idx *TargetIndex) Len() int {
	return len(idx.list)
}

// Targets returns the indexed records in insertion order.
func (idx *TargetIndex) Targets() []TargetRecord {
	out := make([]TargetRecord, 0, len(idx.list))
	for _, t := range idx.list {
		out = append(out, t.TargetRecord)
	}
	return out
}
