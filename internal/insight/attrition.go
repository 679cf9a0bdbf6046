package insight

import (
	"math"
	"time"

	"github.com/sells-group/account-intel/internal/config"
	"github.com/sells-group/account-intel/internal/model"
)

// AnalyzeAttrition computes the attrition risk score for one entity from its
// current-vs-prior period deltas.
//
// An entity with no prior-period activity has no baseline to decline from:
// it is marked as a new account, scored 0, and left to the behavior
// classifier rather than penalized here.
func AnalyzeAttrition(facts model.EntityPeriodFacts, cfg config.AttritionConfig, now time.Time) model.AttritionScore {
	result := model.AttritionScore{
		EntityID: facts.EntityID,
		Name:     facts.Name,
	}

	last := facts.LastTransaction()
	if !last.IsZero() {
		result.RecencyDays = int(now.Sub(last).Hours() / 24)
	}

	if !facts.Prior.HasActivity() {
		result.Status = model.AttritionActive
		result.NewAccount = true
		return result
	}

	result.FrequencyChangePct = changePct(float64(facts.Current.TransactionCount), float64(facts.Prior.TransactionCount))
	result.MonetaryChangePct = changePct(facts.Current.Revenue, facts.Prior.Revenue)

	recency := recencyScore(result.RecencyDays, cfg.RecencyGraceDays, facts.WindowDays)
	monetary := declineScore(result.MonetaryChangePct)
	frequency := declineScore(result.FrequencyChangePct)
	category := categoryContractionScore(facts.Prior.Categories, facts.Current.Categories)

	score := recency*cfg.RecencyWeight +
		monetary*cfg.MonetaryWeight +
		frequency*cfg.FrequencyWeight +
		category*cfg.CategoryWeight
	result.Score = math.Round(score*10) / 10

	switch {
	case result.Score >= cfg.AtRiskThreshold:
		if result.RecencyDays > facts.WindowDays && !facts.Current.HasActivity() {
			result.Status = model.AttritionChurned
		} else {
			result.Status = model.AttritionAtRisk
		}
	case result.Score >= cfg.DecliningThreshold:
		result.Status = model.AttritionDeclining
	default:
		result.Status = model.AttritionActive
	}

	if result.Status != model.AttritionActive {
		result.RevenueAtRisk = facts.Prior.Revenue
	}

	return result
}

// changePct returns the period-over-period percentage change, 0 when the
// prior value is zero.
func changePct(current, prior float64) float64 {
	if prior == 0 {
		return 0
	}
	return (current - prior) / prior * 100
}

// recencyScore ramps from 0 inside the grace period to 100 once the gap since
// the last order reaches a full window length.
func recencyScore(recencyDays, graceDays, windowDays int) float64 {
	if windowDays <= graceDays {
		windowDays = graceDays + 1
	}
	if recencyDays <= graceDays {
		return 0
	}
	if recencyDays >= windowDays {
		return 100
	}
	return float64(recencyDays-graceDays) / float64(windowDays-graceDays) * 100
}

// declineScore maps a percentage change onto [0,100]: growth or flat scores 0,
// a full -100% collapse scores 100.
func declineScore(pct float64) float64 {
	if pct >= 0 {
		return 0
	}
	return math.Min(-pct, 100)
}

// categoryContractionScore measures how much of the prior category mix was
// lost, as a percentage of the prior set.
func categoryContractionScore(prior, current []string) float64 {
	if len(prior) == 0 {
		return 0
	}
	have := make(map[string]bool, len(current))
	for _, c := range current {
		have[c] = true
	}
	lost := 0
	for _, c := range prior {
		if !have[c] {
			lost++
		}
	}
	return float64(lost) / float64(len(prior)) * 100
}
