package reconcile

import (
	"strings"

	"github.com/sells-group/account-intel/internal/model"
)

// SourceRecord is one entry on the source side of a reconciliation (for
// example, a sales-system opportunity). SecondaryName is the deal-level name
// ("Acme Corp - Renewal 2026"); Name is the parent account name. TargetID is
// set when both systems already share a stable identifier.
type SourceRecord struct {
	ID            string
	Name          string
	SecondaryName string
	TargetID      string
	Value         float64
}

// Match resolves one source record against the target index, trying
// strategies in strictly descending confidence order and stopping at the
// first hit.
//
// The secondary (deal-level) name is checked before the primary (account)
// name on purpose: two engagements under the same parent account must be able
// to resolve to different target records.
func Match(src SourceRecord, idx *TargetIndex) model.MatchResult {
	result := model.MatchResult{
		SourceID:   src.ID,
		SourceName: src.Name,
		Type:       model.MatchNone,
	}

	// 1. Shared stable identifier.
	if src.TargetID != "" {
		if t, ok := idx.byID[src.TargetID]; ok {
			return hit(result, t, model.MatchExactID)
		}
	}

	// 2-3. Secondary name: exact, then containment.
	if src.SecondaryName != "" {
		if t, ok := idx.byName[strings.ToLower(strings.TrimSpace(src.SecondaryName))]; ok {
			return hit(result, t, model.MatchExactName)
		}
		if t, ok := containsMatch(src.SecondaryName, idx); ok {
			return hit(result, t, model.MatchContains)
		}
	}

	// 4. Primary name: the same two checks.
	if src.Name != "" {
		if t, ok := idx.byName[strings.ToLower(strings.TrimSpace(src.Name))]; ok {
			return hit(result, t, model.MatchExactName)
		}
		if t, ok := containsMatch(src.Name, idx); ok {
			return hit(result, t, model.MatchContains)
		}
	}

	// 5. Word overlap on either name.
	if t, ok := wordOverlapMatch(src, idx); ok {
		return hit(result, t, model.MatchWordOverlap)
	}

	// 6. Single significant word.
	if t, ok := singleWordMatch(src, idx); ok {
		return hit(result, t, model.MatchSingleWord)
	}

	return result
}

func hit(result model.MatchResult, t TargetRecord, mt model.MatchType) model.MatchResult {
	result.TargetID = t.ID
	result.TargetName = t.Name
	result.Type = mt
	return result
}

// containsMatch scans targets for substring containment either way between
// the normalized source name and the normalized target name.
func containsMatch(name string, idx *TargetIndex) (TargetRecord, bool) {
	norm := NormalizeName(name)
	if norm == "" {
		return TargetRecord{}, false
	}
	for _, t := range idx.list {
		if t.normName == "" {
			continue
		}
		if strings.Contains(t.normName, norm) || strings.Contains(norm, t.normName) {
			return t.TargetRecord, true
		}
	}
	return TargetRecord{}, false
}

// wordOverlapMatch requires at least two overlapping tokens (>2 chars,
// substring-inclusive comparison) between either source name and a target.
func wordOverlapMatch(src SourceRecord, idx *TargetIndex) (TargetRecord, bool) {
	for _, name := range []string{src.SecondaryName, src.Name} {
		tokens := tokenize(name, 2)
		if len(tokens) == 0 {
			continue
		}
		for _, t := range idx.list {
			if tokensOverlap(tokens, tokenize(t.Name, 2)) >= 2 {
				return t.TargetRecord, true
			}
		}
	}
	return TargetRecord{}, false
}

// singleWordMatch requires one overlapping significant token (>=4 chars,
// stopwords excluded) between either source name and a target. The loosest
// strategy, tried last.
func singleWordMatch(src SourceRecord, idx *TargetIndex) (TargetRecord, bool) {
	for _, name := range []string{src.SecondaryName, src.Name} {
		tokens := significantTokens(name)
		if len(tokens) == 0 {
			continue
		}
		for _, t := range idx.list {
			if tokensOverlap(tokens, significantTokens(t.Name)) >= 1 {
				return t.TargetRecord, true
			}
		}
	}
	return TargetRecord{}, false
}
