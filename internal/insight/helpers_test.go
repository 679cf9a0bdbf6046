package insight

import (
	"time"

	"github.com/sells-group/account-intel/internal/model"
)

// testNow is the fixed clock for all insight tests.
var testNow = time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

// periodOpt mutates a PeriodFacts fixture.
type periodOpt func(*model.PeriodFacts)

func withRevenue(revenue, cost float64) periodOpt {
	return func(p *model.PeriodFacts) {
		p.Revenue = revenue
		p.Cost = cost
		p.GrossProfit = revenue - cost
	}
}

func withCategories(catRevenue map[string]float64) periodOpt {
	return func(p *model.PeriodFacts) {
		p.CategoryRevenue = catRevenue
		p.Categories = p.Categories[:0]
		for c := range catRevenue {
			p.Categories = append(p.Categories, c)
		}
	}
}

func withOrders(dates ...time.Time) periodOpt {
	return func(p *model.PeriodFacts) {
		p.TransactionDates = dates
		p.TransactionCount = len(dates)
	}
}

func period(opts ...periodOpt) model.PeriodFacts {
	p := model.PeriodFacts{CategoryRevenue: map[string]float64{}}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// entity builds an EntityPeriodFacts fixture with a 365-day window.
func entity(id string, current, prior model.PeriodFacts) model.EntityPeriodFacts {
	return model.EntityPeriodFacts{
		EntityID:   id,
		Name:       id,
		Current:    current,
		Prior:      prior,
		WindowDays: 365,
	}
}

// daysAgo returns a date the given number of days before testNow.
func daysAgo(n int) time.Time {
	return testNow.AddDate(0, 0, -n)
}

// monthlyDates returns one date per month for n months, newest first offset
// from testNow.
func monthlyDates(n int) []time.Time {
	out := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, testNow.AddDate(0, -i, -3))
	}
	return out
}
