// Package insight implements the scoring and classification engine: attrition
// analysis, composite health scoring, behavior segmentation, cross-sell
// recommendation, strategic bucketing, and portfolio quadrant mapping.
//
// All functions here are pure and deterministic over in-memory facts; no I/O,
// no shared state. Callers fetch and aggregate facts first and persist or
// render results afterward.
package insight

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/account-intel/internal/config"
)

// DefaultEngineConfig returns an EngineConfig with the standard tunables.
// Health weights sum to 1.0; attrition weights sum to 1.0.
func DefaultEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		Health: config.HealthConfig{
			RevenueWeight:    0.35,
			EngagementWeight: 0.25,
			MarginWeight:     0.20,
			CategoryWeight:   0.20,

			DecliningRevenuePct: -15,
			LowFrequencyDays:    60,
			MarginPressurePP:    -10,
			InactiveDays:        90,
		},
		Attrition: config.AttritionConfig{
			RecencyWeight:      0.40,
			MonetaryWeight:     0.30,
			FrequencyWeight:    0.20,
			CategoryWeight:     0.10,
			RecencyGraceDays:   30,
			AtRiskThreshold:    80,
			DecliningThreshold: 50,
		},
		Behavior: config.BehaviorConfig{
			NewAccountMaxOrders:    3,
			ProjectMaxOrders:       3,
			ProjectMinOrderRevenue: 5_000,
			SeasonalMaxMonths:      4,
			SeasonalMinYears:       2,
			SeasonalMinOrders:      4,
			SteadyConsistencyPct:   60,
			SingleProductSharePct:  80,
			DiverseMinCategories:   3,
			DiverseMinSharePct:     10,
		},
		CrossSell: config.CrossSellConfig{
			PopularPeerSharePct: 75,
			OpportunityFraction: 0.15,
			MaxOpportunities:    15,
		},
		Bucket: config.BucketConfig{
			UrgentRevenueAtRisk:    100_000,
			UrgentAttritionScore:   80,
			UrgentMinRevenue:       50_000,
			DefendMinRevenue:       20_000,
			DefendMinCrossSell:     10_000,
			DefendMaxRecencyDays:   60,
			NurtureMaxRevenue:      20_000,
			NurtureMinCrossSell:    5_000,
			ExitMaxRevenue:         5_000,
			ExitMinAttritionScore:  60,
			FallbackMaxRecencyDays: 90,
		},
		Quadrant: config.QuadrantConfig{
			GrowthPct:            5,
			MajorDeclinePct:      -15,
			RecencyThresholdDays: 90,
		},
	}
}

// healthWeightSum returns the sum of the four health component weights.
func healthWeightSum(c config.HealthConfig) float64 {
	return c.RevenueWeight + c.EngagementWeight + c.MarginWeight + c.CategoryWeight
}

// attritionWeightSum returns the sum of the four attrition factor weights.
func attritionWeightSum(c config.AttritionConfig) float64 {
	return c.RecencyWeight + c.MonetaryWeight + c.FrequencyWeight + c.CategoryWeight
}

// ValidateConfig checks that an EngineConfig is internally consistent.
func ValidateConfig(c config.EngineConfig) error {
	var errs []string

	for name, w := range map[string]float64{
		"health.revenue_weight":      c.Health.RevenueWeight,
		"health.engagement_weight":   c.Health.EngagementWeight,
		"health.margin_weight":       c.Health.MarginWeight,
		"health.category_weight":     c.Health.CategoryWeight,
		"attrition.recency_weight":   c.Attrition.RecencyWeight,
		"attrition.monetary_weight":  c.Attrition.MonetaryWeight,
		"attrition.frequency_weight": c.Attrition.FrequencyWeight,
		"attrition.category_weight":  c.Attrition.CategoryWeight,
	} {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	if sum := healthWeightSum(c.Health); math.Abs(sum-1.0) > 0.01 {
		errs = append(errs, fmt.Sprintf("health weights should sum to 1.0, got %.2f", sum))
	}
	if sum := attritionWeightSum(c.Attrition); math.Abs(sum-1.0) > 0.01 {
		errs = append(errs, fmt.Sprintf("attrition weights should sum to 1.0, got %.2f", sum))
	}

	if c.Attrition.AtRiskThreshold <= c.Attrition.DecliningThreshold {
		errs = append(errs, "attrition.at_risk_threshold must be > declining_threshold")
	}
	if c.CrossSell.PopularPeerSharePct <= 0 || c.CrossSell.PopularPeerSharePct > 100 {
		errs = append(errs, "crosssell.popular_peer_share_pct must be in (0,100]")
	}
	if c.CrossSell.OpportunityFraction < 0 {
		errs = append(errs, "crosssell.opportunity_fraction must be >= 0")
	}
	if c.Behavior.SingleProductSharePct <= 0 || c.Behavior.SingleProductSharePct > 100 {
		errs = append(errs, "behavior.single_product_share_pct must be in (0,100]")
	}

	if len(errs) > 0 {
		return eris.Errorf("insight: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
