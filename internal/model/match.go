package model

// MatchType identifies which reconciliation strategy produced a match.
// Values are ordered by descending confidence.
type MatchType string

const (
	MatchExactID     MatchType = "exact_id"
	MatchExactName   MatchType = "exact_name"
	MatchContains    MatchType = "contains"
	MatchWordOverlap MatchType = "word_overlap"
	MatchSingleWord  MatchType = "single_word"
	MatchNone        MatchType = "none"
)

// matchConfidence orders match types from most to least reliable.
var matchConfidence = map[MatchType]int{
	MatchExactID:     5,
	MatchExactName:   4,
	MatchContains:    3,
	MatchWordOverlap: 2,
	MatchSingleWord:  1,
	MatchNone:        0,
}

// Confidence returns the relative confidence rank of the match type; higher
// is more reliable. Unknown types rank as none.
func (m MatchType) Confidence() int {
	return matchConfidence[m]
}

// MatchResult links one source record to at most one target record.
// TargetID is empty when Type is MatchNone.
type MatchResult struct {
	SourceID   string    `json:"source_id"`
	SourceName string    `json:"source_name"`
	TargetID   string    `json:"target_id,omitempty"`
	TargetName string    `json:"target_name,omitempty"`
	Type       MatchType `json:"match_type"`
}

// Matched reports whether the reconciler found a target.
func (r MatchResult) Matched() bool {
	return r.Type != MatchNone && r.TargetID != ""
}
