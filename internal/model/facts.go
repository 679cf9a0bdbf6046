// Package model defines the data contracts shared across the scoring engine,
// the fact provider, and the persistence and API layers.
package model

import (
	"time"
)

// Transaction is a single sales/contract line item attributed to an entity.
type Transaction struct {
	ID         string    `json:"id"`
	EntityID   string    `json:"entity_id"`
	EntityName string    `json:"entity_name"`
	ParentID   string    `json:"parent_id,omitempty"`
	Category   string    `json:"category"`
	Revenue    float64   `json:"revenue"`
	Cost       float64   `json:"cost"`
	Units      int       `json:"units"`
	Date       time.Time `json:"date"`
}

// PeriodFacts holds aggregated transaction facts for one entity over one
// time window.
type PeriodFacts struct {
	Revenue          float64            `json:"revenue"`
	Cost             float64            `json:"cost"`
	GrossProfit      float64            `json:"gross_profit"`
	Units            int                `json:"units"`
	TransactionCount int                `json:"transaction_count"`
	Categories       []string           `json:"categories"`
	CategoryRevenue  map[string]float64 `json:"category_revenue,omitempty"`
	TransactionDates []time.Time        `json:"transaction_dates"`
}

// HasActivity reports whether the window saw any transactions.
func (p PeriodFacts) HasActivity() bool {
	return p.TransactionCount > 0
}

// LastDate returns the most recent transaction date in the window,
// or the zero time when the window is empty.
func (p PeriodFacts) LastDate() time.Time {
	var last time.Time
	for _, d := range p.TransactionDates {
		if d.After(last) {
			last = d
		}
	}
	return last
}

// EntityPeriodFacts is the immutable per-run input to the scoring engine:
// one entity's facts over a current window and an equal-length, non-overlapping
// prior window with the same calendar offset.
type EntityPeriodFacts struct {
	EntityID   string      `json:"entity_id"`
	Name       string      `json:"name"`
	ParentID   string      `json:"parent_id,omitempty"`
	Current    PeriodFacts `json:"current"`
	Prior      PeriodFacts `json:"prior"`
	WindowDays int         `json:"window_days"`
}

// LastTransaction returns the most recent transaction date across both
// windows, or the zero time when the entity has no history at all.
func (f EntityPeriodFacts) LastTransaction() time.Time {
	cur := f.Current.LastDate()
	pri := f.Prior.LastDate()
	if cur.After(pri) {
		return cur
	}
	return pri
}

// TotalOrders returns the combined transaction count across both windows.
func (f EntityPeriodFacts) TotalOrders() int {
	return f.Current.TransactionCount + f.Prior.TransactionCount
}
