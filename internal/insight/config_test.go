package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfigDefaults(t *testing.T) {
	assert.NoError(t, ValidateConfig(DefaultEngineConfig()))
}

func TestValidateConfigBadWeightSums(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Health.RevenueWeight = 0.9
	cfg.Attrition.RecencyWeight = 0.1

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health weights should sum to 1.0")
	assert.Contains(t, err.Error(), "attrition weights should sum to 1.0")
}

func TestValidateConfigNegativeWeight(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Health.MarginWeight = -0.2
	cfg.Health.RevenueWeight = 0.75

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health.margin_weight must be >= 0")
}

func TestValidateConfigThresholdOrdering(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Attrition.AtRiskThreshold = 40
	cfg.Attrition.DecliningThreshold = 50

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at_risk_threshold must be > declining_threshold")
}

func TestValidateConfigShareBounds(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.CrossSell.PopularPeerSharePct = 150
	cfg.Behavior.SingleProductSharePct = 0

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "popular_peer_share_pct")
	assert.Contains(t, err.Error(), "single_product_share_pct")
}
