package facts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/account-intel/internal/model"
)

var testNow = time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

func txn(entity string, daysAgo int, revenue, cost float64, category string) model.Transaction {
	return model.Transaction{
		ID:         fmt.Sprintf("%s-%d", entity, daysAgo),
		EntityID:   entity,
		EntityName: entity,
		Date:       testNow.AddDate(0, 0, -daysAgo),
		Revenue:    revenue,
		Cost:       cost,
		Units:      1,
		Category:   category,
	}
}

func TestWindowsEndingAt(t *testing.T) {
	w := WindowsEndingAt(testNow, 365)

	assert.Equal(t, testNow, w.CurrentTo)
	assert.Equal(t, testNow.AddDate(0, 0, -365), w.CurrentFrom)
	assert.Equal(t, w.CurrentFrom, w.PriorTo)
	assert.Equal(t, testNow.AddDate(0, 0, -730), w.PriorFrom)
	assert.Equal(t, 365, w.Days)
}

func TestWindowsEndingAtDefaultsDays(t *testing.T) {
	w := WindowsEndingAt(testNow, 0)
	assert.Equal(t, 365, w.Days)
	assert.Equal(t, testNow.AddDate(0, 0, -365), w.CurrentFrom)
}

func TestAggregateSplitsWindows(t *testing.T) {
	w := WindowsEndingAt(testNow, 365)

	txns := []model.Transaction{
		txn("acme", 10, 1_000, 700, "fasteners"),
		txn("acme", 100, 2_000, 1_400, "fasteners"),
		txn("acme", 400, 3_000, 2_000, "sealants"),
		txn("acme", 800, 9_999, 9_000, "sealants"), // outside both windows
	}

	out := Aggregate(txns, w)
	require.Len(t, out, 1)
	f := out[0]

	assert.Equal(t, "acme", f.EntityID)
	assert.Equal(t, 365, f.WindowDays)

	assert.Equal(t, 2, f.Current.TransactionCount)
	assert.InDelta(t, 3_000, f.Current.Revenue, 0.001)
	assert.InDelta(t, 2_100, f.Current.Cost, 0.001)
	assert.InDelta(t, 900, f.Current.GrossProfit, 0.001)
	assert.Equal(t, []string{"fasteners"}, f.Current.Categories)

	assert.Equal(t, 1, f.Prior.TransactionCount)
	assert.InDelta(t, 3_000, f.Prior.Revenue, 0.001)
	assert.Equal(t, []string{"sealants"}, f.Prior.Categories)
}

func TestAggregateWindowBoundaries(t *testing.T) {
	w := WindowsEndingAt(testNow, 365)

	txns := []model.Transaction{
		{ID: "a", EntityID: "x", EntityName: "x", Date: w.CurrentFrom, Revenue: 1}, // inclusive start
		{ID: "b", EntityID: "x", EntityName: "x", Date: w.CurrentTo, Revenue: 10},  // exclusive end, dropped
		{ID: "c", EntityID: "x", EntityName: "x", Date: w.PriorFrom, Revenue: 100}, // prior inclusive start
		{ID: "d", EntityID: "x", EntityName: "x", Date: w.PriorTo, Revenue: 1_000}, // lands in current
	}

	out := Aggregate(txns, w)
	require.Len(t, out, 1)
	assert.InDelta(t, 1_001, out[0].Current.Revenue, 0.001)
	assert.InDelta(t, 100, out[0].Prior.Revenue, 0.001)
}

func TestAggregateSortsAndOrdersDates(t *testing.T) {
	w := WindowsEndingAt(testNow, 365)

	txns := []model.Transaction{
		txn("zeta", 10, 100, 50, ""),
		txn("alpha", 30, 100, 50, ""),
		txn("alpha", 5, 100, 50, ""),
	}

	out := Aggregate(txns, w)
	require.Len(t, out, 2)
	assert.Equal(t, "alpha", out[0].Name)
	assert.Equal(t, "zeta", out[1].Name)

	dates := out[0].Current.TransactionDates
	require.Len(t, dates, 2)
	assert.True(t, dates[0].Before(dates[1]))
}

func TestAggregateSkipsMissingEntityID(t *testing.T) {
	w := WindowsEndingAt(testNow, 365)
	out := Aggregate([]model.Transaction{
		{ID: "a", Date: testNow.AddDate(0, 0, -5), Revenue: 500},
	}, w)
	assert.Empty(t, out)
}

type stubSource struct {
	txns []model.Transaction
	err  error

	from, to time.Time
}

func (s *stubSource) TransactionsBetween(_ context.Context, from, to time.Time) ([]model.Transaction, error) {
	s.from, s.to = from, to
	return s.txns, s.err
}

func TestBuild(t *testing.T) {
	w := WindowsEndingAt(testNow, 365)
	src := &stubSource{txns: []model.Transaction{txn("acme", 10, 1_000, 700, "")}}

	out, err := Build(context.Background(), src, w)
	require.NoError(t, err)
	require.Len(t, out, 1)

	// The fetch spans both windows in one query.
	assert.Equal(t, w.PriorFrom, src.from)
	assert.Equal(t, w.CurrentTo, src.to)
}

func TestBuildFetchError(t *testing.T) {
	src := &stubSource{err: eris.New("connection refused")}
	_, err := Build(context.Background(), src, WindowsEndingAt(testNow, 365))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "facts: fetch transactions")
}

func TestSiblingsOf(t *testing.T) {
	all := []model.EntityPeriodFacts{
		{EntityID: "a", ParentID: "p1"},
		{EntityID: "b", ParentID: "p2"},
		{EntityID: "c", ParentID: "p1"},
	}

	sibs := SiblingsOf(all, "p1")
	require.Len(t, sibs, 2)
	assert.Equal(t, "a", sibs[0].EntityID)
	assert.Equal(t, "c", sibs[1].EntityID)

	assert.Empty(t, SiblingsOf(all, "p9"))
}
