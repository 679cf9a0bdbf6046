// Package facts aggregates raw transaction rows into the per-entity,
// two-window fact records the scoring engine consumes.
package facts

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/account-intel/internal/model"
)

// TransactionSource supplies raw transactions for a date range. Implemented
// by the store and by in-memory fixtures in tests.
type TransactionSource interface {
	TransactionsBetween(ctx context.Context, from, to time.Time) ([]model.Transaction, error)
}

// Windows describes the two comparison windows: equal length, adjacent,
// non-overlapping, same calendar offset.
type Windows struct {
	CurrentFrom time.Time
	CurrentTo   time.Time
	PriorFrom   time.Time
	PriorTo     time.Time
	Days        int
}

// WindowsEndingAt returns trailing windows of the given length ending at now:
// current = [now-days, now), prior = [now-2*days, now-days).
func WindowsEndingAt(now time.Time, days int) Windows {
	if days <= 0 {
		days = 365
	}
	currentFrom := now.AddDate(0, 0, -days)
	return Windows{
		CurrentFrom: currentFrom,
		CurrentTo:   now,
		PriorFrom:   now.AddDate(0, 0, -2*days),
		PriorTo:     currentFrom,
		Days:        days,
	}
}

// Build fetches transactions covering both windows and aggregates them into
// one EntityPeriodFacts per entity, sorted by entity name for stable output.
//
// Transactions with missing numeric fields contribute zero rather than
// aborting the batch; one bad row never blocks scoring of the rest.
func Build(ctx context.Context, src TransactionSource, w Windows) ([]model.EntityPeriodFacts, error) {
	txns, err := src.TransactionsBetween(ctx, w.PriorFrom, w.CurrentTo)
	if err != nil {
		return nil, eris.Wrap(err, "facts: fetch transactions")
	}
	return Aggregate(txns, w), nil
}

// Aggregate groups transactions by entity and splits them into the current
// and prior windows. Rows outside both windows are dropped.
func Aggregate(txns []model.Transaction, w Windows) []model.EntityPeriodFacts {
	byEntity := make(map[string]*model.EntityPeriodFacts)

	for _, t := range txns {
		if t.EntityID == "" {
			continue
		}
		f, ok := byEntity[t.EntityID]
		if !ok {
			f = &model.EntityPeriodFacts{
				EntityID:   t.EntityID,
				Name:       t.EntityName,
				ParentID:   t.ParentID,
				WindowDays: w.Days,
			}
			f.Current.CategoryRevenue = make(map[string]float64)
			f.Prior.CategoryRevenue = make(map[string]float64)
			byEntity[t.EntityID] = f
		}
		if f.Name == "" {
			f.Name = t.EntityName
		}

		switch {
		case inWindow(t.Date, w.CurrentFrom, w.CurrentTo):
			addTransaction(&f.Current, t)
		case inWindow(t.Date, w.PriorFrom, w.PriorTo):
			addTransaction(&f.Prior, t)
		}
	}

	out := make([]model.EntityPeriodFacts, 0, len(byEntity))
	for _, f := range byEntity {
		finalize(&f.Current)
		finalize(&f.Prior)
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out
}

// inWindow tests from <= d < to.
func inWindow(d, from, to time.Time) bool {
	return !d.Before(from) && d.Before(to)
}

func addTransaction(p *model.PeriodFacts, t model.Transaction) {
	p.Revenue += t.Revenue
	p.Cost += t.Cost
	p.Units += t.Units
	p.TransactionCount++
	p.TransactionDates = append(p.TransactionDates, t.Date)
	if t.Category != "" {
		p.CategoryRevenue[t.Category] += t.Revenue
	}
}

// finalize derives the fields that depend on the complete window: gross
// profit, the sorted category list, and date ordering.
func finalize(p *model.PeriodFacts) {
	p.GrossProfit = p.Revenue - p.Cost

	p.Categories = make([]string, 0, len(p.CategoryRevenue))
	for c := range p.CategoryRevenue {
		p.Categories = append(p.Categories, c)
	}
	sort.Strings(p.Categories)

	sort.Slice(p.TransactionDates, func(i, j int) bool {
		return p.TransactionDates[i].Before(p.TransactionDates[j])
	})
}

// SiblingsOf filters facts to the entities sharing the given parent account.
func SiblingsOf(all []model.EntityPeriodFacts, parentID string) []model.EntityPeriodFacts {
	var out []model.EntityPeriodFacts
	for _, f := range all {
		if f.ParentID == parentID {
			out = append(out, f)
		}
	}
	return out
}
