package insight

import (
	"fmt"
	"sort"
	"time"

	"github.com/sells-group/account-intel/internal/config"
	"github.com/sells-group/account-intel/internal/model"
)

// behaviorSignals holds the derived facts the segment rules are evaluated
// against. Computed once per entity before the cascade runs.
type behaviorSignals struct {
	totalOrders     int
	firstOrder      time.Time
	currentOrders   int
	avgOrderRevenue float64
	consistencyPct  float64
	orderMonths     map[time.Month]bool
	recurringMonths map[time.Month]bool
	orderYears      map[int]bool
	windowDays      int
	now             time.Time
}

// segmentRule is one step in the ordered classification cascade. Rules are
// evaluated top to bottom; the first match wins.
type segmentRule struct {
	segment model.Segment
	match   func(s behaviorSignals, cfg config.BehaviorConfig) (bool, string)
}

// segmentRules is the classification cascade in priority order. The order is
// a business rule: a project buyer who stops ordering after the project ends
// is not churn, so project_buyer must be decided before any decline-based
// consumer sees the entity.
var segmentRules = []segmentRule{
	{
		segment: model.SegmentNewAccount,
		match: func(s behaviorSignals, cfg config.BehaviorConfig) (bool, string) {
			if s.totalOrders < cfg.NewAccountMaxOrders {
				return true, fmt.Sprintf("only %d orders on record", s.totalOrders)
			}
			if !s.firstOrder.IsZero() && s.now.Sub(s.firstOrder).Hours()/24 < float64(s.windowDays) {
				return true, "first order within the current window"
			}
			return false, ""
		},
	},
	{
		segment: model.SegmentProjectBuyer,
		match: func(s behaviorSignals, cfg config.BehaviorConfig) (bool, string) {
			if s.totalOrders >= 1 && s.totalOrders <= cfg.ProjectMaxOrders &&
				s.currentOrders == 0 &&
				s.avgOrderRevenue >= cfg.ProjectMinOrderRevenue {
				return true, fmt.Sprintf("%d large orders, none in the current window", s.totalOrders)
			}
			return false, ""
		},
	},
	{
		segment: model.SegmentSeasonal,
		match: func(s behaviorSignals, cfg config.BehaviorConfig) (bool, string) {
			// The same months must show orders in more than one year;
			// scattered buying that merely lands in few months is not a season.
			if s.totalOrders >= cfg.SeasonalMinOrders &&
				len(s.orderYears) >= cfg.SeasonalMinYears &&
				len(s.orderMonths) <= cfg.SeasonalMaxMonths &&
				len(s.recurringMonths) >= 2 {
				return true, fmt.Sprintf("orders recur in %d calendar months across %d years", len(s.recurringMonths), len(s.orderYears))
			}
			return false, ""
		},
	},
	{
		segment: model.SegmentSteadyRepeater,
		match: func(s behaviorSignals, cfg config.BehaviorConfig) (bool, string) {
			if s.consistencyPct >= cfg.SteadyConsistencyPct {
				return true, fmt.Sprintf("orders in %.0f%% of months", s.consistencyPct)
			}
			return false, ""
		},
	},
	{
		// Default fallback; always matches.
		segment: model.SegmentIrregular,
		match: func(s behaviorSignals, cfg config.BehaviorConfig) (bool, string) {
			return true, "no recurring pattern detected"
		},
	},
}

// ClassifyBehavior assigns the entity a buying-pattern segment plus the
// orthogonal product-mix flags, and derives which downstream signals the
// entity is eligible for.
func ClassifyBehavior(facts model.EntityPeriodFacts, cfg config.BehaviorConfig, now time.Time) model.CustomerBehavior {
	sig := deriveSignals(facts, now)

	behavior := model.CustomerBehavior{
		EntityID:         facts.EntityID,
		Name:             facts.Name,
		OrderConsistency: sig.consistencyPct,
		ClassCount:       len(facts.Current.Categories),
	}

	for _, rule := range segmentRules {
		if ok, reason := rule.match(sig, cfg); ok {
			behavior.Segment = rule.segment
			behavior.Reason = reason
			break
		}
	}

	behavior.SingleProduct, behavior.Diverse = productMixFlags(facts, cfg)

	behavior.AttritionEligible = attritionEligible(behavior.Segment, sig, cfg)
	behavior.CrossSellEligible = !behavior.SingleProduct

	return behavior
}

// attritionEligible is false for project buyers and for seasonal entities
// currently outside their buying months. Treating either as attrition
// produces false alarms.
func attritionEligible(segment model.Segment, sig behaviorSignals, cfg config.BehaviorConfig) bool {
	switch segment {
	case model.SegmentProjectBuyer:
		return false
	case model.SegmentSeasonal:
		return sig.recurringMonths[sig.now.Month()]
	default:
		return true
	}
}

// productMixFlags derives the single_product and diverse flags from the
// current-window category revenue mix.
func productMixFlags(facts model.EntityPeriodFacts, cfg config.BehaviorConfig) (single, diverse bool) {
	mix := facts.Current.CategoryRevenue
	var total float64
	for _, rev := range mix {
		total += rev
	}
	if total <= 0 {
		return false, false
	}

	significant := 0
	for _, rev := range mix {
		share := rev / total * 100
		if share >= cfg.SingleProductSharePct {
			single = true
		}
		if share >= cfg.DiverseMinSharePct {
			significant++
		}
	}
	diverse = significant >= cfg.DiverseMinCategories
	return single, diverse
}

// deriveSignals computes per-entity facts the rule cascade needs.
func deriveSignals(facts model.EntityPeriodFacts, now time.Time) behaviorSignals {
	dates := make([]time.Time, 0, len(facts.Current.TransactionDates)+len(facts.Prior.TransactionDates))
	dates = append(dates, facts.Prior.TransactionDates...)
	dates = append(dates, facts.Current.TransactionDates...)
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	sig := behaviorSignals{
		totalOrders:     facts.TotalOrders(),
		currentOrders:   facts.Current.TransactionCount,
		orderMonths:     make(map[time.Month]bool),
		recurringMonths: make(map[time.Month]bool),
		orderYears:      make(map[int]bool),
		windowDays:      facts.WindowDays,
		now:             now,
	}
	if len(dates) > 0 {
		sig.firstOrder = dates[0]
	}
	monthYears := make(map[time.Month]map[int]bool)
	for _, d := range dates {
		sig.orderMonths[d.Month()] = true
		sig.orderYears[d.Year()] = true
		if monthYears[d.Month()] == nil {
			monthYears[d.Month()] = make(map[int]bool)
		}
		monthYears[d.Month()][d.Year()] = true
	}
	for m, years := range monthYears {
		if len(years) >= 2 {
			sig.recurringMonths[m] = true
		}
	}

	totalRevenue := facts.Current.Revenue + facts.Prior.Revenue
	if sig.totalOrders > 0 {
		sig.avgOrderRevenue = totalRevenue / float64(sig.totalOrders)
	}

	sig.consistencyPct = orderConsistencyPct(dates, facts.WindowDays, now)

	return sig
}

// orderConsistencyPct returns the percentage of months in the combined
// current+prior history that saw at least one order.
func orderConsistencyPct(dates []time.Time, windowDays int, now time.Time) float64 {
	if windowDays <= 0 {
		windowDays = 365
	}
	totalMonths := windowDays * 2 / 30
	if totalMonths < 1 {
		totalMonths = 1
	}

	start := now.AddDate(0, 0, -windowDays*2)
	seen := make(map[string]bool)
	for _, d := range dates {
		if d.Before(start) {
			continue
		}
		seen[d.Format("2006-01")] = true
	}
	pct := float64(len(seen)) / float64(totalMonths) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}
