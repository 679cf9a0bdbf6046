package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/account-intel/internal/model"
)

func TestClassifyBucketCascade(t *testing.T) {
	cfg := DefaultEngineConfig().Bucket

	tests := []struct {
		name string
		in   BucketInputs
		want model.Bucket
	}{
		{
			name: "large revenue at risk is urgent",
			in: BucketInputs{
				RevenueAtRisk:   150000,
				AttritionScore:  70,
				AttritionStatus: model.AttritionAtRisk,
				Segment:         model.SegmentIrregular,
				CurrentRevenue:  30000,
			},
			want: model.BucketUrgentIntervention,
		},
		{
			name: "high attrition on a big account is urgent",
			in: BucketInputs{
				RevenueAtRisk:   60000,
				AttritionScore:  85,
				AttritionStatus: model.AttritionAtRisk,
				CurrentRevenue:  60000,
			},
			want: model.BucketUrgentIntervention,
		},
		{
			name: "churned is always urgent",
			in: BucketInputs{
				AttritionStatus: model.AttritionChurned,
				RevenueAtRisk:   2000,
				CurrentRevenue:  0,
			},
			want: model.BucketUrgentIntervention,
		},
		{
			name: "engaged steady repeater with expansion room is defend",
			in: BucketInputs{
				Segment:            model.SegmentSteadyRepeater,
				AttritionStatus:    model.AttritionActive,
				CurrentRevenue:     25000,
				CrossSellPotential: 12000,
				DaysSinceLastOrder: 30,
			},
			want: model.BucketDefendAndGrow,
		},
		{
			name: "new account is nurture",
			in: BucketInputs{
				Segment:         model.SegmentNewAccount,
				AttritionStatus: model.AttritionActive,
				CurrentRevenue:  1000,
			},
			want: model.BucketNurtureUp,
		},
		{
			name: "small account with potential is nurture",
			in: BucketInputs{
				Segment:            model.SegmentSteadyRepeater,
				AttritionStatus:    model.AttritionActive,
				CurrentRevenue:     8000,
				CrossSellPotential: 6000,
				DaysSinceLastOrder: 20,
			},
			want: model.BucketNurtureUp,
		},
		{
			name: "tiny irregular account with high attrition is exit",
			in: BucketInputs{
				Segment:            model.SegmentIrregular,
				AttritionStatus:    model.AttritionDeclining,
				CurrentRevenue:     4000,
				AttritionScore:     65,
				DaysSinceLastOrder: 120,
			},
			want: model.BucketOptimizeExit,
		},
		{
			name: "fallback: recent healthy revenue is defend",
			in: BucketInputs{
				Segment:            model.SegmentIrregular,
				AttritionStatus:    model.AttritionActive,
				CurrentRevenue:     30000,
				DaysSinceLastOrder: 30,
			},
			want: model.BucketDefendAndGrow,
		},
		{
			name: "fallback: everything else is nurture",
			in: BucketInputs{
				Segment:            model.SegmentIrregular,
				AttritionStatus:    model.AttritionActive,
				CurrentRevenue:     10000,
				DaysSinceLastOrder: 200,
			},
			want: model.BucketNurtureUp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyBucket(tt.in, cfg)
			assert.Equal(t, tt.want, got.Bucket)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

// An account matching both the urgent and the defend conditions lands in
// urgent: rule order encodes that risk outranks opportunity.
func TestClassifyBucketUrgencyOutranksOpportunity(t *testing.T) {
	cfg := DefaultEngineConfig().Bucket

	in := BucketInputs{
		Segment:            model.SegmentSteadyRepeater,
		AttritionStatus:    model.AttritionAtRisk,
		RevenueAtRisk:      150000,
		AttritionScore:     90,
		CurrentRevenue:     60000,
		CrossSellPotential: 20000,
		DaysSinceLastOrder: 30,
	}

	got := ClassifyBucket(in, cfg)
	assert.Equal(t, model.BucketUrgentIntervention, got.Bucket)
}

func TestClassifyBucketRecordsMetrics(t *testing.T) {
	cfg := DefaultEngineConfig().Bucket

	in := BucketInputs{
		EntityID:           "acme",
		Name:               "Acme Corp",
		RevenueAtRisk:      5000,
		AttritionScore:     42,
		CrossSellPotential: 1500,
		DaysSinceLastOrder: 12,
		CurrentRevenue:     22000,
		Segment:            model.SegmentIrregular,
		AttritionStatus:    model.AttritionActive,
	}

	got := ClassifyBucket(in, cfg)

	assert.Equal(t, "acme", got.EntityID)
	assert.Equal(t, "Acme Corp", got.Name)
	assert.InDelta(t, 5000, got.Metrics.RevenueAtRisk, 0.001)
	assert.InDelta(t, 42, got.Metrics.AttritionScore, 0.001)
	assert.InDelta(t, 1500, got.Metrics.CrossSellPotential, 0.001)
	assert.Equal(t, 12, got.Metrics.DaysSinceLastOrder)
	assert.InDelta(t, 22000, got.Metrics.CurrentRevenue, 0.001)
}
