package model

// AttritionStatus labels an entity's attrition risk band.
type AttritionStatus string

const (
	AttritionActive    AttritionStatus = "active"
	AttritionDeclining AttritionStatus = "declining"
	AttritionAtRisk    AttritionStatus = "at_risk"
	AttritionChurned   AttritionStatus = "churned"
)

// AttritionScore is the attrition analysis result for one entity.
// RecencyDays counts days since the last transaction across the combined
// current+prior history.
type AttritionScore struct {
	EntityID           string          `json:"entity_id"`
	Name               string          `json:"name"`
	Score              float64         `json:"score"`
	Status             AttritionStatus `json:"status"`
	RecencyDays        int             `json:"recency_days"`
	FrequencyChangePct float64         `json:"frequency_change_pct"`
	MonetaryChangePct  float64         `json:"monetary_change_pct"`
	RevenueAtRisk      float64         `json:"revenue_at_risk"`
	NewAccount         bool            `json:"new_account,omitempty"`
}

// Segment is the buying-pattern classification for an entity.
type Segment string

const (
	SegmentNewAccount     Segment = "new_account"
	SegmentProjectBuyer   Segment = "project_buyer"
	SegmentSeasonal       Segment = "seasonal"
	SegmentSteadyRepeater Segment = "steady_repeater"
	SegmentIrregular      Segment = "irregular"
)

// CustomerBehavior is the behavior classification result for one entity.
// Segment membership is exclusive; SingleProduct and Diverse are orthogonal
// flags derived from the category revenue mix.
type CustomerBehavior struct {
	EntityID          string  `json:"entity_id"`
	Name              string  `json:"name"`
	Segment           Segment `json:"segment"`
	Reason            string  `json:"reason"`
	OrderConsistency  float64 `json:"order_consistency"`
	ClassCount        int     `json:"class_count"`
	SingleProduct     bool    `json:"single_product"`
	Diverse           bool    `json:"diverse"`
	AttritionEligible bool    `json:"attrition_eligible"`
	CrossSellEligible bool    `json:"cross_sell_eligible"`
}

// HealthTier buckets an overall health score.
type HealthTier string

const (
	TierExcellent HealthTier = "excellent"
	TierGood      HealthTier = "good"
	TierFair      HealthTier = "fair"
	TierPoor      HealthTier = "poor"
)

// TierFor maps an overall score to its tier. Thresholds are closed-open:
// 80 is excellent, 79 is good.
func TierFor(overall int) HealthTier {
	switch {
	case overall >= 80:
		return TierExcellent
	case overall >= 60:
		return TierGood
	case overall >= 40:
		return TierFair
	default:
		return TierPoor
	}
}

// HealthScore is the composite health result for one entity.
type HealthScore struct {
	EntityID   string             `json:"entity_id"`
	Name       string             `json:"name"`
	Overall    int                `json:"overall"`
	Tier       HealthTier         `json:"tier"`
	Components map[string]float64 `json:"components"`
	RiskFlags  []string           `json:"risk_flags,omitempty"`
}

// CrossSellOpportunity proposes one category the entity does not yet buy.
type CrossSellOpportunity struct {
	EntityID          string   `json:"entity_id"`
	Name              string   `json:"name"`
	CurrentCategories []string `json:"current_categories"`
	Recommended       string   `json:"recommended"`
	EstimatedRevenue  float64  `json:"estimated_revenue"`
	Reason            string   `json:"reason,omitempty"`
}

// Bucket is one of the four strategic action classifications.
type Bucket string

const (
	BucketUrgentIntervention Bucket = "urgent_intervention"
	BucketDefendAndGrow      Bucket = "defend_and_grow"
	BucketNurtureUp          Bucket = "nurture_up"
	BucketOptimizeExit       Bucket = "optimize_exit"
)

// BucketMetrics is the source metric snapshot recorded with an assignment.
type BucketMetrics struct {
	RevenueAtRisk      float64 `json:"revenue_at_risk"`
	AttritionScore     float64 `json:"attrition_score"`
	CrossSellPotential float64 `json:"cross_sell_potential"`
	DaysSinceLastOrder int     `json:"days_since_last_order"`
	CurrentRevenue     float64 `json:"current_revenue"`
}

// StrategicBucketAssignment places one entity into exactly one bucket with
// a human-readable reason naming the rule that fired.
type StrategicBucketAssignment struct {
	EntityID string        `json:"entity_id"`
	Name     string        `json:"name"`
	Bucket   Bucket        `json:"bucket"`
	Reason   string        `json:"reason"`
	Metrics  BucketMetrics `json:"metrics"`
}

// Quadrant is the 2x2 value-by-health placement used for sibling matrices.
type Quadrant string

const (
	QuadrantDefendGrow         Quadrant = "defend_grow"
	QuadrantUrgentIntervention Quadrant = "urgent_intervention"
	QuadrantNurtureUp          Quadrant = "nurture_up"
	QuadrantOptimizeExit       Quadrant = "optimize_exit"
)

// QuadrantPlacement places one sibling entity in the value/health matrix.
type QuadrantPlacement struct {
	EntityID  string   `json:"entity_id"`
	Name      string   `json:"name"`
	Quadrant  Quadrant `json:"quadrant"`
	Revenue   float64  `json:"revenue"`
	HighValue bool     `json:"high_value"`
	Healthy   bool     `json:"healthy"`
	Growing   bool     `json:"growing"`
}
