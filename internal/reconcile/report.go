package reconcile

import (
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/account-intel/internal/model"
)

// ValueMismatch records a matched pair whose recorded values disagree by more
// than the report threshold.
type ValueMismatch struct {
	SourceName  string  `json:"source_name"`
	TargetName  string  `json:"target_name"`
	SourceValue float64 `json:"source_value"`
	TargetValue float64 `json:"target_value"`
	DiffPct     float64 `json:"diff_pct"`
}

// Report is the explicit accumulator for a batch reconciliation. It is built
// up and returned by Reconcile; nothing here is module-level state.
type Report struct {
	Matches      []model.MatchResult `json:"matches"`
	OnlyInSource []SourceRecord      `json:"only_in_source"`
	OnlyInTarget []TargetRecord      `json:"only_in_target"`
	Mismatches   []ValueMismatch     `json:"value_mismatches"`
	SourceTotal  float64             `json:"source_total"`
	TargetTotal  float64             `json:"target_total"`
	MatchedCount int                 `json:"matched_count"`
}

// mismatchThresholdPct is the relative value difference above which a matched
// pair is reported.
const mismatchThresholdPct = 5.0

// Reconcile matches every source record against the target index and
// accumulates a full report: per-source match results, records present on
// only one side, and value disagreements among matched pairs. At most one
// match is recorded per source record.
func Reconcile(sources []SourceRecord, idx *TargetIndex) Report {
	report := Report{}
	matchedTargets := make(map[string]bool)

	for _, src := range sources {
		report.SourceTotal += src.Value

		result := Match(src, idx)
		report.Matches = append(report.Matches, result)

		if !result.Matched() {
			report.OnlyInSource = append(report.OnlyInSource, src)
			continue
		}
		report.MatchedCount++
		matchedTargets[result.TargetID] = true

		if t, ok := idx.byID[result.TargetID]; ok {
			if mm, bad := valueMismatch(src, t); bad {
				report.Mismatches = append(report.Mismatches, mm)
			}
		}
	}

	for _, t := range idx.Targets() {
		report.TargetTotal += t.Value
		if !matchedTargets[t.ID] {
			report.OnlyInTarget = append(report.OnlyInTarget, t)
		}
	}

	zap.L().Info("reconcile: batch complete",
		zap.Int("sources", len(sources)),
		zap.Int("matched", report.MatchedCount),
		zap.Int("only_in_source", len(report.OnlyInSource)),
		zap.Int("only_in_target", len(report.OnlyInTarget)),
		zap.Int("value_mismatches", len(report.Mismatches)),
	)

	return report
}

// valueMismatch reports whether the two recorded values differ by more than
// the threshold, relative to the larger of the two. Zero values on either
// side are skipped; absence of a recorded value is not a disagreement.
func valueMismatch(src SourceRecord, t TargetRecord) (ValueMismatch, bool) {
	if src.Value <= 0 || t.Value <= 0 {
		return ValueMismatch{}, false
	}
	diffPct := math.Abs(src.Value-t.Value) / math.Max(src.Value, t.Value) * 100
	if diffPct <= mismatchThresholdPct {
		return ValueMismatch{}, false
	}
	return ValueMismatch{
		SourceName:  src.Name,
		TargetName:  t.Name,
		SourceValue: src.Value,
		TargetValue: t.Value,
		DiffPct:     diffPct,
	}, true
}
