package insight

import (
	"sort"
	"time"

	"github.com/sells-group/account-intel/internal/config"
	"github.com/sells-group/account-intel/internal/model"
)

// MapQuadrants places a set of sibling entities (for example, locations under
// one parent account) into the 2x2 value-by-health matrix.
//
// "High value" means revenue at or above the sibling median. "Healthy" means
// growing year over year without a steep decline flag and recently active.
// This is deliberately coarser than the strategic bucket cascade: it compares
// siblings against each other, not against a global peer set.
func MapQuadrants(siblings []model.EntityPeriodFacts, cfg config.QuadrantConfig, now time.Time) []model.QuadrantPlacement {
	if len(siblings) == 0 {
		return nil
	}

	median := medianRevenue(siblings)

	out := make([]model.QuadrantPlacement, 0, len(siblings))
	for _, s := range siblings {
		highValue := s.Current.Revenue >= median
		growing := isGrowing(s, cfg.GrowthPct)
		healthy := growing && isHealthy(s, cfg, now)

		out = append(out, model.QuadrantPlacement{
			EntityID:  s.EntityID,
			Name:      s.Name,
			Quadrant:  quadrantFor(highValue, healthy),
			Revenue:   s.Current.Revenue,
			HighValue: highValue,
			Healthy:   healthy,
			Growing:   growing,
		})
	}
	return out
}

func quadrantFor(highValue, healthy bool) model.Quadrant {
	switch {
	case highValue && healthy:
		return model.QuadrantDefendGrow
	case highValue && !healthy:
		return model.QuadrantUrgentIntervention
	case !highValue && healthy:
		return model.QuadrantNurtureUp
	default:
		return model.QuadrantOptimizeExit
	}
}

// isGrowing reports whether year-over-year revenue growth exceeds the
// configured percentage. Entities with no prior baseline count as growing
// when they have current revenue (new locations are not penalized).
func isGrowing(f model.EntityPeriodFacts, growthPct float64) bool {
	if f.Prior.Revenue <= 0 {
		return f.Current.Revenue > 0
	}
	yoy := (f.Current.Revenue - f.Prior.Revenue) / f.Prior.Revenue * 100
	return yoy > growthPct
}

// isHealthy reports the absence of major risk: no steep revenue decline and
// a transaction inside the recency threshold.
func isHealthy(f model.EntityPeriodFacts, cfg config.QuadrantConfig, now time.Time) bool {
	if f.Prior.Revenue > 0 {
		yoy := (f.Current.Revenue - f.Prior.Revenue) / f.Prior.Revenue * 100
		if yoy < cfg.MajorDeclinePct {
			return false
		}
	}
	last := f.LastTransaction()
	if last.IsZero() {
		return false
	}
	return int(now.Sub(last).Hours()/24) < cfg.RecencyThresholdDays
}

// medianRevenue returns the median current-window revenue across siblings.
func medianRevenue(siblings []model.EntityPeriodFacts) float64 {
	revs := make([]float64, 0, len(siblings))
	for _, s := range siblings {
		revs = append(revs, s.Current.Revenue)
	}
	sort.Float64s(revs)
	n := len(revs)
	if n%2 == 1 {
		return revs[n/2]
	}
	return (revs[n/2-1] + revs[n/2]) / 2
}
