package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "account-intel.db", cfg.Store.SQLitePath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrentEntities)
	assert.Equal(t, 365, cfg.Facts.WindowDays)
	assert.Equal(t, "https://login.salesforce.com", cfg.Salesforce.LoginURL)
	assert.Equal(t, 30, cfg.Import.FTPTimeoutSecs)

	assert.InDelta(t, 0.35, cfg.Engine.Health.RevenueWeight, 0.001)
	assert.InDelta(t, 0.25, cfg.Engine.Health.EngagementWeight, 0.001)
	assert.InDelta(t, 0.20, cfg.Engine.Health.MarginWeight, 0.001)
	assert.InDelta(t, 0.20, cfg.Engine.Health.CategoryWeight, 0.001)

	assert.InDelta(t, 0.40, cfg.Engine.Attrition.RecencyWeight, 0.001)
	assert.InDelta(t, 0.30, cfg.Engine.Attrition.MonetaryWeight, 0.001)
	assert.InDelta(t, 0.20, cfg.Engine.Attrition.FrequencyWeight, 0.001)
	assert.InDelta(t, 0.10, cfg.Engine.Attrition.CategoryWeight, 0.001)
	assert.InDelta(t, 80, cfg.Engine.Attrition.AtRiskThreshold, 0.001)
	assert.InDelta(t, 50, cfg.Engine.Attrition.DecliningThreshold, 0.001)

	assert.InDelta(t, 75, cfg.Engine.CrossSell.PopularPeerSharePct, 0.001)
	assert.InDelta(t, 0.15, cfg.Engine.CrossSell.OpportunityFraction, 0.001)
	assert.Equal(t, 15, cfg.Engine.CrossSell.MaxOpportunities)

	assert.InDelta(t, 100000, cfg.Engine.Bucket.UrgentRevenueAtRisk, 0.001)
	assert.InDelta(t, 80, cfg.Engine.Bucket.UrgentAttritionScore, 0.001)
	assert.Equal(t, 60, cfg.Engine.Bucket.DefendMaxRecencyDays)
	assert.Equal(t, 90, cfg.Engine.Bucket.FallbackMaxRecencyDays)

	assert.InDelta(t, 5, cfg.Engine.Quadrant.GrowthPct, 0.001)
	assert.InDelta(t, -15, cfg.Engine.Quadrant.MajorDeclinePct, 0.001)
	assert.Equal(t, 90, cfg.Engine.Quadrant.RecencyThresholdDays)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/intel
log:
  level: debug
  format: console
server:
  port: 9090
batch:
  max_concurrent_entities: 4
engine:
  attrition:
    at_risk_threshold: 85
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrentEntities)
	assert.InDelta(t, 85, cfg.Engine.Attrition.AtRiskThreshold, 0.001)
	// Defaults still apply for unset values
	assert.Equal(t, 365, cfg.Facts.WindowDays)
	assert.InDelta(t, 50, cfg.Engine.Attrition.DecliningThreshold, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("ACCOUNT_INTEL_STORE_DRIVER", "postgres")
	t.Setenv("ACCOUNT_INTEL_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("ACCOUNT_INTEL_SERVER_PORT", "3000")
	t.Setenv("ACCOUNT_INTEL_FACTS_WINDOW_DAYS", "180")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 180, cfg.Facts.WindowDays)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
