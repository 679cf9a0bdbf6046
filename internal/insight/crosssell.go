package insight

import (
	"fmt"
	"sort"

	"github.com/sells-group/account-intel/internal/config"
	"github.com/sells-group/account-intel/internal/model"
)

// CrossSellRule is one entry in the static category co-occurrence table:
// entities buying If are candidates for Suggest. Supplied as data so the
// table can change without touching this package.
type CrossSellRule struct {
	If         string  `yaml:"if" json:"if"`
	Suggest    string  `yaml:"suggest" json:"suggest"`
	Because    string  `yaml:"because" json:"because"`
	Multiplier float64 `yaml:"multiplier,omitempty" json:"multiplier,omitempty"`
}

// RecommendCrossSell proposes categories the entity is missing, each with an
// estimated expansion revenue, sorted descending and capped.
//
// Two sources feed the list: categories bought by a large share of peers but
// absent here, and the static rule table. A category already in the entity's
// mix is never recommended, so re-running after an opportunity is taken will
// not re-suggest it.
func RecommendCrossSell(facts model.EntityPeriodFacts, peers []model.EntityPeriodFacts, rules []CrossSellRule, cfg config.CrossSellConfig) []model.CrossSellOpportunity {
	owned := make(map[string]bool, len(facts.Current.Categories))
	for _, c := range facts.Current.Categories {
		owned[c] = true
	}

	missing := missingPopularCategories(owned, peers, cfg.PopularPeerSharePct)

	proposed := make(map[string]bool)
	var out []model.CrossSellOpportunity

	if len(missing) > 0 {
		perCategory := facts.Current.Revenue * cfg.OpportunityFraction / float64(len(missing))
		for _, m := range missing {
			proposed[m.category] = true
			out = append(out, model.CrossSellOpportunity{
				EntityID:          facts.EntityID,
				Name:              facts.Name,
				CurrentCategories: facts.Current.Categories,
				Recommended:       m.category,
				EstimatedRevenue:  perCategory,
				Reason:            fmt.Sprintf("purchased by %.0f%% of peer accounts", m.sharePct),
			})
		}
	}

	for _, rule := range rules {
		if !owned[rule.If] || owned[rule.Suggest] || proposed[rule.Suggest] {
			continue
		}
		mult := rule.Multiplier
		if mult <= 0 {
			mult = cfg.OpportunityFraction
		}
		proposed[rule.Suggest] = true
		out = append(out, model.CrossSellOpportunity{
			EntityID:          facts.EntityID,
			Name:              facts.Name,
			CurrentCategories: facts.Current.Categories,
			Recommended:       rule.Suggest,
			EstimatedRevenue:  facts.Current.Revenue * mult,
			Reason:            rule.Because,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EstimatedRevenue > out[j].EstimatedRevenue
	})

	if cfg.MaxOpportunities > 0 && len(out) > cfg.MaxOpportunities {
		out = out[:cfg.MaxOpportunities]
	}
	return out
}

type popularCategory struct {
	category string
	sharePct float64
}

// missingPopularCategories returns categories bought by at least sharePct of
// peers but absent from the entity's own set. An empty peer population yields
// nothing rather than an error.
func missingPopularCategories(owned map[string]bool, peers []model.EntityPeriodFacts, sharePct float64) []popularCategory {
	if len(peers) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, p := range peers {
		for _, c := range p.Current.Categories {
			counts[c]++
		}
	}

	var out []popularCategory
	for cat, n := range counts {
		share := float64(n) / float64(len(peers)) * 100
		if share >= sharePct && !owned[cat] {
			out = append(out, popularCategory{category: cat, sharePct: share})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].sharePct != out[j].sharePct {
			return out[i].sharePct > out[j].sharePct
		}
		return out[i].category < out[j].category
	})
	return out
}

// TotalPotential sums the estimated revenue across a set of opportunities.
func TotalPotential(opps []model.CrossSellOpportunity) float64 {
	var sum float64
	for _, o := range opps {
		sum += o.EstimatedRevenue
	}
	return sum
}
