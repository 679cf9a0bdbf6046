// Package config loads application configuration from file and environment
// and owns the global logger setup.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Facts      FactsConfig      `yaml:"facts" mapstructure:"facts"`
	Engine     EngineConfig     `yaml:"engine" mapstructure:"engine"`
	Import     ImportConfig     `yaml:"import" mapstructure:"import"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Username string `yaml:"username" mapstructure:"username"`
	KeyPath  string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`
}

// NotionConfig holds Notion API credentials and the tracking-board database.
type NotionConfig struct {
	Token      string `yaml:"token" mapstructure:"token"`
	ContractDB string `yaml:"contract_db" mapstructure:"contract_db"`
}

// FactsConfig configures the aggregation windows.
type FactsConfig struct {
	WindowDays int `yaml:"window_days" mapstructure:"window_days"`
}

// EngineConfig holds the scoring engine tunables. Defaults live in the
// insight package.
type EngineConfig struct {
	Health    HealthConfig    `yaml:"health" mapstructure:"health"`
	Attrition AttritionConfig `yaml:"attrition" mapstructure:"attrition"`
	Behavior  BehaviorConfig  `yaml:"behavior" mapstructure:"behavior"`
	CrossSell CrossSellConfig `yaml:"crosssell" mapstructure:"crosssell"`
	Bucket    BucketConfig    `yaml:"bucket" mapstructure:"bucket"`
	Quadrant  QuadrantConfig  `yaml:"quadrant" mapstructure:"quadrant"`
	RulesPath string          `yaml:"rules_path" mapstructure:"rules_path"`
}

// HealthConfig configures the composite health scorer. Weights sum to 1.0.
type HealthConfig struct {
	RevenueWeight    float64 `yaml:"revenue_weight" mapstructure:"revenue_weight"`
	EngagementWeight float64 `yaml:"engagement_weight" mapstructure:"engagement_weight"`
	MarginWeight     float64 `yaml:"margin_weight" mapstructure:"margin_weight"`
	CategoryWeight   float64 `yaml:"category_weight" mapstructure:"category_weight"`

	DecliningRevenuePct float64 `yaml:"declining_revenue_pct" mapstructure:"declining_revenue_pct"`
	LowFrequencyDays    int     `yaml:"low_frequency_days" mapstructure:"low_frequency_days"`
	MarginPressurePP    float64 `yaml:"margin_pressure_pp" mapstructure:"margin_pressure_pp"`
	InactiveDays        int     `yaml:"inactive_days" mapstructure:"inactive_days"`
}

// AttritionConfig configures the attrition analyzer. Weights sum to 1.0.
type AttritionConfig struct {
	RecencyWeight   float64 `yaml:"recency_weight" mapstructure:"recency_weight"`
	MonetaryWeight  float64 `yaml:"monetary_weight" mapstructure:"monetary_weight"`
	FrequencyWeight float64 `yaml:"frequency_weight" mapstructure:"frequency_weight"`
	CategoryWeight  float64 `yaml:"category_weight" mapstructure:"category_weight"`

	RecencyGraceDays   int     `yaml:"recency_grace_days" mapstructure:"recency_grace_days"`
	AtRiskThreshold    float64 `yaml:"at_risk_threshold" mapstructure:"at_risk_threshold"`
	DecliningThreshold float64 `yaml:"declining_threshold" mapstructure:"declining_threshold"`
}

// BehaviorConfig configures the behavior classifier cascade.
type BehaviorConfig struct {
	NewAccountMaxOrders    int     `yaml:"new_account_max_orders" mapstructure:"new_account_max_orders"`
	ProjectMaxOrders       int     `yaml:"project_max_orders" mapstructure:"project_max_orders"`
	ProjectMinOrderRevenue float64 `yaml:"project_min_order_revenue" mapstructure:"project_min_order_revenue"`
	SeasonalMaxMonths      int     `yaml:"seasonal_max_months" mapstructure:"seasonal_max_months"`
	SeasonalMinYears       int     `yaml:"seasonal_min_years" mapstructure:"seasonal_min_years"`
	SeasonalMinOrders      int     `yaml:"seasonal_min_orders" mapstructure:"seasonal_min_orders"`
	SteadyConsistencyPct   float64 `yaml:"steady_consistency_pct" mapstructure:"steady_consistency_pct"`
	SingleProductSharePct  float64 `yaml:"single_product_share_pct" mapstructure:"single_product_share_pct"`
	DiverseMinCategories   int     `yaml:"diverse_min_categories" mapstructure:"diverse_min_categories"`
	DiverseMinSharePct     float64 `yaml:"diverse_min_share_pct" mapstructure:"diverse_min_share_pct"`
}

// CrossSellConfig configures opportunity sizing. The opportunity fraction is
// a heuristic proxy for expansion potential, not a validated model; treat it
// as a knob.
type CrossSellConfig struct {
	PopularPeerSharePct float64 `yaml:"popular_peer_share_pct" mapstructure:"popular_peer_share_pct"`
	OpportunityFraction float64 `yaml:"opportunity_fraction" mapstructure:"opportunity_fraction"`
	MaxOpportunities    int     `yaml:"max_opportunities" mapstructure:"max_opportunities"`
}

// BucketConfig configures the strategic bucket cascade thresholds.
type BucketConfig struct {
	UrgentRevenueAtRisk    float64 `yaml:"urgent_revenue_at_risk" mapstructure:"urgent_revenue_at_risk"`
	UrgentAttritionScore   float64 `yaml:"urgent_attrition_score" mapstructure:"urgent_attrition_score"`
	UrgentMinRevenue       float64 `yaml:"urgent_min_revenue" mapstructure:"urgent_min_revenue"`
	DefendMinRevenue       float64 `yaml:"defend_min_revenue" mapstructure:"defend_min_revenue"`
	DefendMinCrossSell     float64 `yaml:"defend_min_cross_sell" mapstructure:"defend_min_cross_sell"`
	DefendMaxRecencyDays   int     `yaml:"defend_max_recency_days" mapstructure:"defend_max_recency_days"`
	NurtureMaxRevenue      float64 `yaml:"nurture_max_revenue" mapstructure:"nurture_max_revenue"`
	NurtureMinCrossSell    float64 `yaml:"nurture_min_cross_sell" mapstructure:"nurture_min_cross_sell"`
	ExitMaxRevenue         float64 `yaml:"exit_max_revenue" mapstructure:"exit_max_revenue"`
	ExitMinAttritionScore  float64 `yaml:"exit_min_attrition_score" mapstructure:"exit_min_attrition_score"`
	FallbackMaxRecencyDays int     `yaml:"fallback_max_recency_days" mapstructure:"fallback_max_recency_days"`
}

// QuadrantConfig configures the portfolio quadrant mapper.
type QuadrantConfig struct {
	GrowthPct            float64 `yaml:"growth_pct" mapstructure:"growth_pct"`
	MajorDeclinePct      float64 `yaml:"major_decline_pct" mapstructure:"major_decline_pct"`
	RecencyThresholdDays int     `yaml:"recency_threshold_days" mapstructure:"recency_threshold_days"`
}

// ImportConfig configures sales-export ingestion.
type ImportConfig struct {
	FTPURL         string `yaml:"ftp_url" mapstructure:"ftp_url"`
	FTPTimeoutSecs int    `yaml:"ftp_timeout_secs" mapstructure:"ftp_timeout_secs"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentEntities int `yaml:"max_concurrent_entities" mapstructure:"max_concurrent_entities"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ACCOUNT_INTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "account-intel.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent_entities", 8)
	v.SetDefault("facts.window_days", 365)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("import.ftp_timeout_secs", 30)

	v.SetDefault("engine.health.revenue_weight", 0.35)
	v.SetDefault("engine.health.engagement_weight", 0.25)
	v.SetDefault("engine.health.margin_weight", 0.20)
	v.SetDefault("engine.health.category_weight", 0.20)
	v.SetDefault("engine.health.declining_revenue_pct", -15)
	v.SetDefault("engine.health.low_frequency_days", 60)
	v.SetDefault("engine.health.margin_pressure_pp", -10)
	v.SetDefault("engine.health.inactive_days", 90)

	v.SetDefault("engine.attrition.recency_weight", 0.40)
	v.SetDefault("engine.attrition.monetary_weight", 0.30)
	v.SetDefault("engine.attrition.frequency_weight", 0.20)
	v.SetDefault("engine.attrition.category_weight", 0.10)
	v.SetDefault("engine.attrition.recency_grace_days", 30)
	v.SetDefault("engine.attrition.at_risk_threshold", 80)
	v.SetDefault("engine.attrition.declining_threshold", 50)

	v.SetDefault("engine.behavior.new_account_max_orders", 3)
	v.SetDefault("engine.behavior.project_max_orders", 3)
	v.SetDefault("engine.behavior.project_min_order_revenue", 5000)
	v.SetDefault("engine.behavior.seasonal_max_months", 4)
	v.SetDefault("engine.behavior.seasonal_min_years", 2)
	v.SetDefault("engine.behavior.seasonal_min_orders", 4)
	v.SetDefault("engine.behavior.steady_consistency_pct", 60)
	v.SetDefault("engine.behavior.single_product_share_pct", 80)
	v.SetDefault("engine.behavior.diverse_min_categories", 3)
	v.SetDefault("engine.behavior.diverse_min_share_pct", 10)

	v.SetDefault("engine.crosssell.popular_peer_share_pct", 75)
	v.SetDefault("engine.crosssell.opportunity_fraction", 0.15)
	v.SetDefault("engine.crosssell.max_opportunities", 15)

	v.SetDefault("engine.bucket.urgent_revenue_at_risk", 100000)
	v.SetDefault("engine.bucket.urgent_attrition_score", 80)
	v.SetDefault("engine.bucket.urgent_min_revenue", 50000)
	v.SetDefault("engine.bucket.defend_min_revenue", 20000)
	v.SetDefault("engine.bucket.defend_min_cross_sell", 10000)
	v.SetDefault("engine.bucket.defend_max_recency_days", 60)
	v.SetDefault("engine.bucket.nurture_max_revenue", 20000)
	v.SetDefault("engine.bucket.nurture_min_cross_sell", 5000)
	v.SetDefault("engine.bucket.exit_max_revenue", 5000)
	v.SetDefault("engine.bucket.exit_min_attrition_score", 60)
	v.SetDefault("engine.bucket.fallback_max_recency_days", 90)

	v.SetDefault("engine.quadrant.growth_pct", 5)
	v.SetDefault("engine.quadrant.major_decline_pct", -15)
	v.SetDefault("engine.quadrant.recency_threshold_days", 90)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
