package insight

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sells-group/account-intel/internal/config"
	"github.com/sells-group/account-intel/internal/model"
)

// Health component names, keys in HealthScore.Components.
const (
	ComponentRevenue    = "revenue_health"
	ComponentEngagement = "engagement_health"
	ComponentMargin     = "margin_health"
	ComponentCategory   = "category_health"
)

// ComputeHealth scores one entity against its peer population and returns a
// composite health score with per-component breakdown and risk flags.
//
// Risk flags are informational only; the tier is purely a function of the
// weighted overall score.
func ComputeHealth(facts model.EntityPeriodFacts, peers []model.EntityPeriodFacts, cfg config.HealthConfig, now time.Time) model.HealthScore {
	peerRevenues := make([]float64, 0, len(peers))
	peerCategories := make([]float64, 0, len(peers))
	for _, p := range peers {
		peerRevenues = append(peerRevenues, p.Current.Revenue)
		peerCategories = append(peerCategories, float64(len(p.Current.Categories)))
	}

	avgGap := averageDaysBetweenOrders(facts.Current.TransactionDates)
	marginDelta := marginPct(facts.Current) - peerAverageMargin(peers)

	components := map[string]float64{
		ComponentRevenue:    float64(Percentile(facts.Current.Revenue, peerRevenues)),
		ComponentEngagement: engagementScore(avgGap),
		ComponentMargin:     marginScore(marginDelta),
		ComponentCategory:   float64(Percentile(float64(len(facts.Current.Categories)), peerCategories)),
	}

	weighted := components[ComponentRevenue]*cfg.RevenueWeight +
		components[ComponentEngagement]*cfg.EngagementWeight +
		components[ComponentMargin]*cfg.MarginWeight +
		components[ComponentCategory]*cfg.CategoryWeight
	overall := int(math.Round(weighted))
	if overall < 0 {
		overall = 0
	}
	if overall > 100 {
		overall = 100
	}

	return model.HealthScore{
		EntityID:   facts.EntityID,
		Name:       facts.Name,
		Overall:    overall,
		Tier:       model.TierFor(overall),
		Components: components,
		RiskFlags:  riskFlags(facts, avgGap, marginDelta, cfg, now),
	}
}

// engagementScore maps average days between orders onto a step scale.
// Entities with fewer than two orders (gap < 0) have no measurable cadence
// and land on the lowest step; a literal zero gap is same-day ordering.
func engagementScore(avgGapDays float64) float64 {
	switch {
	case avgGapDays < 0:
		return 20
	case avgGapDays <= 7:
		return 100
	case avgGapDays <= 14:
		return 80
	case avgGapDays <= 30:
		return 60
	case avgGapDays <= 60:
		return 40
	default:
		return 20
	}
}

// marginScore maps the entity's margin delta vs the peer average (in
// percentage points) onto a step scale.
func marginScore(deltaPP float64) float64 {
	switch {
	case deltaPP >= 5:
		return 100
	case deltaPP >= 0:
		return 80
	case deltaPP >= -5:
		return 60
	case deltaPP >= -10:
		return 40
	default:
		return 20
	}
}

// riskFlags appends unweighted warning strings for conditions that deserve a
// human look regardless of the numeric score.
func riskFlags(facts model.EntityPeriodFacts, avgGap, marginDelta float64, cfg config.HealthConfig, now time.Time) []string {
	var flags []string

	if facts.Prior.Revenue > 0 {
		yoy := (facts.Current.Revenue - facts.Prior.Revenue) / facts.Prior.Revenue * 100
		if yoy < cfg.DecliningRevenuePct {
			flags = append(flags, "Declining revenue")
		}
	}
	if avgGap > float64(cfg.LowFrequencyDays) {
		flags = append(flags, "Low purchase frequency")
	}
	if marginDelta < float64(cfg.MarginPressurePP) {
		flags = append(flags, "Margin pressure")
	}
	if last := facts.LastTransaction(); !last.IsZero() {
		days := int(now.Sub(last).Hours() / 24)
		if days > cfg.InactiveDays {
			flags = append(flags, fmt.Sprintf("Inactive (%d days)", days))
		}
	}

	return flags
}

// averageDaysBetweenOrders computes the mean gap between consecutive order
// dates. Returns -1 when there are fewer than two orders, so a genuine
// same-day cadence stays distinguishable from no cadence at all.
func averageDaysBetweenOrders(dates []time.Time) float64 {
	if len(dates) < 2 {
		return -1
	}
	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	span := sorted[len(sorted)-1].Sub(sorted[0]).Hours() / 24
	return span / float64(len(sorted)-1)
}

// marginPct returns gross margin as a percentage of revenue (0 when there is
// no revenue, per the malformed-record rule).
func marginPct(p model.PeriodFacts) float64 {
	if p.Revenue <= 0 {
		return 0
	}
	return (p.Revenue - p.Cost) / p.Revenue * 100
}

// peerAverageMargin returns the mean current-window margin across peers with
// revenue, or 0 for a degenerate population.
func peerAverageMargin(peers []model.EntityPeriodFacts) float64 {
	var sum float64
	var n int
	for _, p := range peers {
		if p.Current.Revenue > 0 {
			sum += marginPct(p.Current)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
