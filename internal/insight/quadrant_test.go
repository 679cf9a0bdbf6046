package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/account-intel/internal/model"
)

func TestMapQuadrantsEmpty(t *testing.T) {
	cfg := DefaultEngineConfig().Quadrant
	assert.Nil(t, MapQuadrants(nil, cfg, testNow))
}

func TestMapQuadrantsFourCorners(t *testing.T) {
	cfg := DefaultEngineConfig().Quadrant

	// Median of 5k/8k/40k/50k is 24k: the two big siblings are high value.
	siblings := []model.EntityPeriodFacts{
		// High value, growing 25% YoY, active 10 days ago: defend.
		entity("star", period(
			withRevenue(50_000, 30_000),
			withOrders(daysAgo(10)),
		), period(withRevenue(40_000, 25_000))),
		// High value but shrinking 20% YoY: urgent.
		entity("fading", period(
			withRevenue(40_000, 30_000),
			withOrders(daysAgo(10)),
		), period(withRevenue(50_000, 35_000))),
		// Low value, growing, active: nurture.
		entity("sprout", period(
			withRevenue(8_000, 6_000),
			withOrders(daysAgo(5)),
		), period(withRevenue(5_000, 4_000))),
		// Low value, flat, stale: exit.
		entity("dormant", period(
			withRevenue(5_000, 4_000),
			withOrders(daysAgo(200)),
		), period(withRevenue(5_000, 4_000))),
	}

	placements := MapQuadrants(siblings, cfg, testNow)
	require.Len(t, placements, 4)

	byID := make(map[string]model.QuadrantPlacement, len(placements))
	for _, p := range placements {
		byID[p.EntityID] = p
	}

	assert.Equal(t, model.QuadrantDefendGrow, byID["star"].Quadrant)
	assert.True(t, byID["star"].HighValue)
	assert.True(t, byID["star"].Healthy)

	assert.Equal(t, model.QuadrantUrgentIntervention, byID["fading"].Quadrant)
	assert.True(t, byID["fading"].HighValue)
	assert.False(t, byID["fading"].Growing)

	assert.Equal(t, model.QuadrantNurtureUp, byID["sprout"].Quadrant)
	assert.False(t, byID["sprout"].HighValue)
	assert.True(t, byID["sprout"].Healthy)

	assert.Equal(t, model.QuadrantOptimizeExit, byID["dormant"].Quadrant)
	assert.False(t, byID["dormant"].Growing)
	assert.False(t, byID["dormant"].Healthy)
}

func TestQuadrantFor(t *testing.T) {
	tests := []struct {
		highValue bool
		healthy   bool
		want      model.Quadrant
	}{
		{true, true, model.QuadrantDefendGrow},
		{true, false, model.QuadrantUrgentIntervention},
		{false, true, model.QuadrantNurtureUp},
		{false, false, model.QuadrantOptimizeExit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, quadrantFor(tt.highValue, tt.healthy))
	}
}

func TestIsGrowing(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		prior   float64
		want    bool
	}{
		{"no baseline with current revenue", 1_000, 0, true},
		{"no baseline and no current revenue", 0, 0, false},
		{"growth above threshold", 11_000, 10_000, true},
		{"growth at threshold is not growing", 10_500, 10_000, false},
		{"decline", 9_000, 10_000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := entity("x", period(withRevenue(tt.current, 0)), period(withRevenue(tt.prior, 0)))
			assert.Equal(t, tt.want, isGrowing(f, 5))
		})
	}
}

func TestIsHealthy(t *testing.T) {
	cfg := DefaultEngineConfig().Quadrant

	t.Run("steep decline is unhealthy even when active", func(t *testing.T) {
		f := entity("x",
			period(withRevenue(8_000, 6_000), withOrders(daysAgo(5))),
			period(withRevenue(10_000, 7_000)))
		assert.False(t, isHealthy(f, cfg, testNow))
	})

	t.Run("stale last transaction is unhealthy", func(t *testing.T) {
		f := entity("x",
			period(withRevenue(12_000, 9_000), withOrders(daysAgo(120))),
			period(withRevenue(10_000, 7_000)))
		assert.False(t, isHealthy(f, cfg, testNow))
	})

	t.Run("no history at all is unhealthy", func(t *testing.T) {
		f := entity("x", period(withRevenue(12_000, 9_000)), period())
		assert.False(t, isHealthy(f, cfg, testNow))
	})

	t.Run("prior window activity counts as recency", func(t *testing.T) {
		f := entity("x",
			period(withRevenue(12_000, 9_000)),
			period(withRevenue(10_000, 7_000), withOrders(daysAgo(30))))
		assert.True(t, isHealthy(f, cfg, testNow))
	})
}

func TestMedianRevenue(t *testing.T) {
	odd := []model.EntityPeriodFacts{
		entity("a", period(withRevenue(1_000, 0)), period()),
		entity("b", period(withRevenue(3_000, 0)), period()),
		entity("c", period(withRevenue(9_000, 0)), period()),
	}
	assert.InDelta(t, 3_000, medianRevenue(odd), 0.001)

	even := append(odd, entity("d", period(withRevenue(5_000, 0)), period()))
	assert.InDelta(t, 4_000, medianRevenue(even), 0.001)
}
