package insight

import (
	"fmt"

	"github.com/sells-group/account-intel/internal/config"
	"github.com/sells-group/account-intel/internal/model"
)

// BucketInputs collects the signals the strategic classifier consumes.
type BucketInputs struct {
	EntityID           string
	Name               string
	CurrentRevenue     float64
	RevenueAtRisk      float64
	AttritionScore     float64
	AttritionStatus    model.AttritionStatus
	Segment            model.Segment
	CrossSellPotential float64
	DaysSinceLastOrder int
}

// bucketRule is one step in the strategic cascade. Evaluated in order; the
// first match wins.
type bucketRule struct {
	bucket model.Bucket
	match  func(in BucketInputs, cfg config.BucketConfig) bool
	reason func(in BucketInputs) string
}

// bucketRules is the classification cascade in priority order. Urgency always
// outranks opportunity: an account satisfying both the urgent and the defend
// conditions is urgent.
var bucketRules = []bucketRule{
	{
		bucket: model.BucketUrgentIntervention,
		match: func(in BucketInputs, cfg config.BucketConfig) bool {
			return in.RevenueAtRisk > cfg.UrgentRevenueAtRisk ||
				(in.AttritionScore > cfg.UrgentAttritionScore && in.CurrentRevenue > cfg.UrgentMinRevenue) ||
				in.AttritionStatus == model.AttritionChurned
		},
		reason: func(in BucketInputs) string {
			if in.AttritionStatus == model.AttritionChurned {
				return fmt.Sprintf("churned with $%.0f at risk", in.RevenueAtRisk)
			}
			return fmt.Sprintf("$%.0f at risk, attrition score %.0f", in.RevenueAtRisk, in.AttritionScore)
		},
	},
	{
		bucket: model.BucketDefendAndGrow,
		match: func(in BucketInputs, cfg config.BucketConfig) bool {
			return in.Segment == model.SegmentSteadyRepeater &&
				in.CurrentRevenue > cfg.DefendMinRevenue &&
				in.CrossSellPotential > cfg.DefendMinCrossSell &&
				in.DaysSinceLastOrder < cfg.DefendMaxRecencyDays
		},
		reason: func(in BucketInputs) string {
			return fmt.Sprintf("steady repeater with $%.0f cross-sell potential", in.CrossSellPotential)
		},
	},
	{
		bucket: model.BucketNurtureUp,
		match: func(in BucketInputs, cfg config.BucketConfig) bool {
			return in.Segment == model.SegmentNewAccount ||
				(in.CurrentRevenue < cfg.NurtureMaxRevenue && in.CrossSellPotential > cfg.NurtureMinCrossSell)
		},
		reason: func(in BucketInputs) string {
			if in.Segment == model.SegmentNewAccount {
				return "new account, establish the relationship"
			}
			return fmt.Sprintf("small account with $%.0f expansion potential", in.CrossSellPotential)
		},
	},
	{
		bucket: model.BucketOptimizeExit,
		match: func(in BucketInputs, cfg config.BucketConfig) bool {
			return in.Segment == model.SegmentIrregular &&
				in.CurrentRevenue < cfg.ExitMaxRevenue &&
				in.AttritionScore > cfg.ExitMinAttritionScore
		},
		reason: func(in BucketInputs) string {
			return fmt.Sprintf("irregular buyer, $%.0f revenue, attrition score %.0f", in.CurrentRevenue, in.AttritionScore)
		},
	},
}

// ClassifyBucket assigns exactly one strategic bucket. The cascade is a total
// function: entities matching no rule fall through to defend_and_grow or
// nurture_up on revenue and recency alone.
func ClassifyBucket(in BucketInputs, cfg config.BucketConfig) model.StrategicBucketAssignment {
	assignment := model.StrategicBucketAssignment{
		EntityID: in.EntityID,
		Name:     in.Name,
		Metrics: model.BucketMetrics{
			RevenueAtRisk:      in.RevenueAtRisk,
			AttritionScore:     in.AttritionScore,
			CrossSellPotential: in.CrossSellPotential,
			DaysSinceLastOrder: in.DaysSinceLastOrder,
			CurrentRevenue:     in.CurrentRevenue,
		},
	}

	for _, rule := range bucketRules {
		if rule.match(in, cfg) {
			assignment.Bucket = rule.bucket
			assignment.Reason = rule.reason(in)
			return assignment
		}
	}

	// Default fallback.
	if in.CurrentRevenue > cfg.DefendMinRevenue && in.DaysSinceLastOrder < cfg.FallbackMaxRecencyDays {
		assignment.Bucket = model.BucketDefendAndGrow
		assignment.Reason = fmt.Sprintf("healthy $%.0f account, keep engaged", in.CurrentRevenue)
	} else {
		assignment.Bucket = model.BucketNurtureUp
		assignment.Reason = "no strong signal, grow the relationship"
	}
	return assignment
}
