package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/account-intel/internal/model"
)

func TestClassifyBehaviorNewAccount(t *testing.T) {
	cfg := DefaultEngineConfig().Behavior

	// Two orders total.
	facts := entity("fresh",
		period(withRevenue(3000, 2000), withOrders(daysAgo(20), daysAgo(50))),
		period(),
	)

	b := ClassifyBehavior(facts, cfg, testNow)
	assert.Equal(t, model.SegmentNewAccount, b.Segment)
	assert.True(t, b.AttritionEligible)
}

func TestClassifyBehaviorNewAccountByFirstOrder(t *testing.T) {
	cfg := DefaultEngineConfig().Behavior

	// Plenty of orders, but the relationship started inside the window.
	facts := entity("ramping",
		period(withRevenue(9000, 6000), withOrders(daysAgo(10), daysAgo(40), daysAgo(70), daysAgo(100))),
		period(),
	)

	b := ClassifyBehavior(facts, cfg, testNow)
	assert.Equal(t, model.SegmentNewAccount, b.Segment)
}

func TestClassifyBehaviorProjectBuyer(t *testing.T) {
	cfg := DefaultEngineConfig().Behavior

	// Three large orders, all in the prior window, nothing since.
	facts := entity("oneoff",
		period(),
		period(withRevenue(30000, 20000), withOrders(daysAgo(400), daysAgo(420), daysAgo(440))),
	)

	b := ClassifyBehavior(facts, cfg, testNow)
	assert.Equal(t, model.SegmentProjectBuyer, b.Segment)
	// A finished project is not churn.
	assert.False(t, b.AttritionEligible)
}

func TestClassifyBehaviorSeasonal(t *testing.T) {
	cfg := DefaultEngineConfig().Behavior

	// Orders cluster in March and April across two years. The anchor clock is
	// mid June, outside the season.
	mar1 := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	apr1 := time.Date(2026, time.April, 12, 0, 0, 0, 0, time.UTC)
	mar0 := time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC)
	apr0 := time.Date(2025, time.April, 15, 0, 0, 0, 0, time.UTC)

	facts := entity("irrigation",
		period(withRevenue(20000, 14000), withOrders(mar1, apr1)),
		period(withRevenue(18000, 13000), withOrders(mar0, apr0)),
	)

	b := ClassifyBehavior(facts, cfg, testNow)
	assert.Equal(t, model.SegmentSeasonal, b.Segment)
	// June is off season; a quiet seasonal account is not attriting.
	assert.False(t, b.AttritionEligible)
}

func TestClassifyBehaviorSeasonalInSeason(t *testing.T) {
	cfg := DefaultEngineConfig().Behavior

	// Same shape, but the season includes the anchor month.
	jun1 := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	jul1 := time.Date(2025, time.July, 5, 0, 0, 0, 0, time.UTC)
	jun0 := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC)
	jul0 := time.Date(2024, time.July, 20, 0, 0, 0, 0, time.UTC)

	facts := entity("summer",
		period(withRevenue(20000, 14000), withOrders(jun1, jul1)),
		period(withRevenue(18000, 13000), withOrders(jun0, jul0)),
	)

	b := ClassifyBehavior(facts, cfg, testNow)
	assert.Equal(t, model.SegmentSeasonal, b.Segment)
	assert.True(t, b.AttritionEligible)
}

func TestClassifyBehaviorSteadyRepeater(t *testing.T) {
	cfg := DefaultEngineConfig().Behavior

	current := monthlyDates(12)
	prior := make([]time.Time, 0, 12)
	for i := 12; i < 24; i++ {
		prior = append(prior, testNow.AddDate(0, -i, -3))
	}

	facts := entity("regular",
		period(withRevenue(24000, 16000), withOrders(current...)),
		period(withRevenue(22000, 15000), withOrders(prior...)),
	)

	b := ClassifyBehavior(facts, cfg, testNow)
	assert.Equal(t, model.SegmentSteadyRepeater, b.Segment)
	assert.True(t, b.AttritionEligible)
	assert.GreaterOrEqual(t, b.OrderConsistency, cfg.SteadyConsistencyPct)
}

func TestClassifyBehaviorSeasonalRequiresRecurrence(t *testing.T) {
	cfg := DefaultEngineConfig().Behavior

	// Five orders in four distinct months across three years, but only
	// September shows up in more than one year. Few distinct months alone
	// is not a season.
	facts := entity("scattered",
		period(withRevenue(4000, 2800), withOrders(
			time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.October, 7, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.September, 5, 0, 0, 0, 0, time.UTC))),
		period(withRevenue(1200, 900), withOrders(
			time.Date(2024, time.September, 20, 0, 0, 0, 0, time.UTC))),
	)

	b := ClassifyBehavior(facts, cfg, testNow)
	assert.Equal(t, model.SegmentIrregular, b.Segment)
	assert.True(t, b.AttritionEligible)
}

func TestClassifyBehaviorIrregular(t *testing.T) {
	cfg := DefaultEngineConfig().Behavior

	// Five scattered small orders over three years; only January repeats.
	facts := entity("sporadic",
		period(withRevenue(2000, 1500), withOrders(daysAgo(30), daysAgo(150), daysAgo(330))),
		period(withRevenue(1500, 1200), withOrders(daysAgo(500), daysAgo(650))),
	)

	b := ClassifyBehavior(facts, cfg, testNow)
	assert.Equal(t, model.SegmentIrregular, b.Segment)
	assert.True(t, b.AttritionEligible)
}

func TestProductMixFlags(t *testing.T) {
	cfg := DefaultEngineConfig().Behavior

	tests := []struct {
		name        string
		mix         map[string]float64
		wantSingle  bool
		wantDiverse bool
	}{
		{"dominant single category", map[string]float64{"Pumps": 9000, "Valves": 1000}, true, false},
		{"even split", map[string]float64{"Pumps": 5000, "Valves": 5000}, false, false},
		{"three significant categories", map[string]float64{"Pumps": 4000, "Valves": 3000, "Service": 3000}, false, true},
		{"no revenue", map[string]float64{}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := entity("x", period(withCategories(tt.mix)), period())
			single, diverse := productMixFlags(facts, cfg)
			assert.Equal(t, tt.wantSingle, single, "single")
			assert.Equal(t, tt.wantDiverse, diverse, "diverse")
		})
	}
}

func TestCrossSellEligibilityFollowsProductMix(t *testing.T) {
	cfg := DefaultEngineConfig().Behavior

	single := entity("mono",
		period(withRevenue(10000, 7000),
			withCategories(map[string]float64{"Pumps": 9500, "Valves": 500}),
			withOrders(daysAgo(10), daysAgo(40))),
		period(),
	)
	b := ClassifyBehavior(single, cfg, testNow)
	assert.True(t, b.SingleProduct)
	assert.False(t, b.CrossSellEligible)

	mixed := entity("multi",
		period(withRevenue(10000, 7000),
			withCategories(map[string]float64{"Pumps": 5000, "Valves": 5000}),
			withOrders(daysAgo(10), daysAgo(40))),
		period(),
	)
	b = ClassifyBehavior(mixed, cfg, testNow)
	assert.False(t, b.SingleProduct)
	assert.True(t, b.CrossSellEligible)
}

func TestOrderConsistencyPct(t *testing.T) {
	// Orders in 6 distinct months of a 24-month horizon.
	dates := monthlyDates(6)
	pct := orderConsistencyPct(dates, 365, testNow)
	assert.InDelta(t, 25, pct, 1.0)

	assert.Zero(t, orderConsistencyPct(nil, 365, testNow))
}
