package insight

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/account-intel/internal/config"
	"github.com/sells-group/account-intel/internal/model"
)

// EntitySignals bundles every derived signal for one entity from a single
// engine invocation.
type EntitySignals struct {
	Facts      model.EntityPeriodFacts         `json:"-"`
	Attrition  model.AttritionScore            `json:"attrition"`
	Behavior   model.CustomerBehavior          `json:"behavior"`
	Health     model.HealthScore               `json:"health"`
	CrossSell  []model.CrossSellOpportunity    `json:"cross_sell,omitempty"`
	Assignment model.StrategicBucketAssignment `json:"assignment"`
}

// Engine runs the full signal computation over entity facts. It holds only
// configuration and the static cross-sell rule table; every invocation
// recomputes from the input snapshot.
type Engine struct {
	cfg   config.EngineConfig
	rules []CrossSellRule
}

// NewEngine creates an Engine. The rule table may be nil when no static
// cross-sell rules are configured.
func NewEngine(cfg config.EngineConfig, rules []CrossSellRule) *Engine {
	return &Engine{cfg: cfg, rules: rules}
}

// ScoreEntity computes all signals for one entity against its peer
// population.
//
// Behavior gates the other signals: entities that are not attrition-eligible
// (project buyers, off-season seasonal accounts) contribute no attrition
// pressure to the strategic classifier, and single-product entities receive
// no cross-sell proposals.
func (e *Engine) ScoreEntity(facts model.EntityPeriodFacts, peers []model.EntityPeriodFacts, now time.Time) EntitySignals {
	attrition := AnalyzeAttrition(facts, e.cfg.Attrition, now)
	behavior := ClassifyBehavior(facts, e.cfg.Behavior, now)
	health := ComputeHealth(facts, peers, e.cfg.Health, now)

	var crossSell []model.CrossSellOpportunity
	if behavior.CrossSellEligible {
		crossSell = RecommendCrossSell(facts, peers, e.rules, e.cfg.CrossSell)
	}

	in := BucketInputs{
		EntityID:           facts.EntityID,
		Name:               facts.Name,
		CurrentRevenue:     facts.Current.Revenue,
		CrossSellPotential: TotalPotential(crossSell),
		Segment:            behavior.Segment,
		DaysSinceLastOrder: attrition.RecencyDays,
	}
	if behavior.AttritionEligible {
		in.RevenueAtRisk = attrition.RevenueAtRisk
		in.AttritionScore = attrition.Score
		in.AttritionStatus = attrition.Status
	} else {
		in.AttritionStatus = model.AttritionActive
	}

	return EntitySignals{
		Facts:      facts,
		Attrition:  attrition,
		Behavior:   behavior,
		Health:     health,
		CrossSell:  crossSell,
		Assignment: ClassifyBucket(in, e.cfg.Bucket),
	}
}

// ScoreAll computes signals for every entity, using the full set as the peer
// population for each. The work is CPU-bound and fanned out per entity with
// bounded concurrency.
func (e *Engine) ScoreAll(ctx context.Context, entities []model.EntityPeriodFacts, concurrency int, now time.Time) ([]EntitySignals, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]EntitySignals, len(entities))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, facts := range entities {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			peers := peersExcluding(entities, i)
			results[i] = e.ScoreEntity(facts, peers, now)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("insight: batch scoring complete",
		zap.Int("entities", len(entities)),
		zap.Int("at_risk", countStatus(results, model.AttritionAtRisk)+countStatus(results, model.AttritionChurned)),
	)

	return results, nil
}

// bucketPriority orders buckets by action urgency for ranking.
var bucketPriority = map[model.Bucket]int{
	model.BucketUrgentIntervention: 0,
	model.BucketDefendAndGrow:      1,
	model.BucketNurtureUp:          2,
	model.BucketOptimizeExit:       3,
}

// RankActions returns the bucket assignments ordered most-urgent first
// (bucket priority, then revenue at risk, then current revenue), capped to
// topN when positive.
func RankActions(signals []EntitySignals, topN int) []model.StrategicBucketAssignment {
	out := make([]model.StrategicBucketAssignment, 0, len(signals))
	for _, s := range signals {
		out = append(out, s.Assignment)
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := bucketPriority[out[i].Bucket], bucketPriority[out[j].Bucket]
		if pi != pj {
			return pi < pj
		}
		if out[i].Metrics.RevenueAtRisk != out[j].Metrics.RevenueAtRisk {
			return out[i].Metrics.RevenueAtRisk > out[j].Metrics.RevenueAtRisk
		}
		return out[i].Metrics.CurrentRevenue > out[j].Metrics.CurrentRevenue
	})

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// peersExcluding returns all entities except the one at index i.
func peersExcluding(entities []model.EntityPeriodFacts, i int) []model.EntityPeriodFacts {
	peers := make([]model.EntityPeriodFacts, 0, len(entities)-1)
	peers = append(peers, entities[:i]...)
	peers = append(peers, entities[i+1:]...)
	return peers
}

func countStatus(signals []EntitySignals, status model.AttritionStatus) int {
	n := 0
	for i := range signals {
		if signals[i].Attrition.Status == status {
			n++
		}
	}
	return n
}
