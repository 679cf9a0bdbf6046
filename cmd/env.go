package main

import (
	"context"
	"os"
	"time"

	gosf "github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"

	"github.com/sells-group/account-intel/internal/facts"
	"github.com/sells-group/account-intel/internal/insight"
	"github.com/sells-group/account-intel/internal/model"
	"github.com/sells-group/account-intel/internal/store"
	"github.com/sells-group/account-intel/pkg/notion"
	"github.com/sells-group/account-intel/pkg/salesforce"
)

// openStore opens the configured persistence backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = "account-intel.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initSalesforce authenticates against Salesforce with the configured JWT.
func initSalesforce() (salesforce.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (ACCOUNT_INTEL_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := gosf.Init(gosf.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return salesforce.NewClient(sf), nil
}

// initNotion builds the contract-board client.
func initNotion() (notion.Client, error) {
	if cfg.Notion.Token == "" {
		return nil, eris.New("notion token is required (ACCOUNT_INTEL_NOTION_TOKEN)")
	}
	return notion.NewClient(cfg.Notion.Token), nil
}

// newEngine builds the scoring engine from config, loading the static
// cross-sell rule table when one is configured.
func newEngine() (*insight.Engine, error) {
	if err := insight.ValidateConfig(cfg.Engine); err != nil {
		return nil, err
	}
	rules, err := insight.LoadRules(cfg.Engine.RulesPath)
	if err != nil {
		return nil, err
	}
	return insight.NewEngine(cfg.Engine, rules), nil
}

// loadFacts builds the two-window fact set from stored transactions.
func loadFacts(ctx context.Context, s store.Store, now time.Time) ([]model.EntityPeriodFacts, error) {
	w := facts.WindowsEndingAt(now, cfg.Facts.WindowDays)
	return facts.Build(ctx, s, w)
}
