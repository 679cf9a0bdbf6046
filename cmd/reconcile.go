package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/account-intel/internal/model"
	"github.com/sells-group/account-intel/internal/reconcile"
	"github.com/sells-group/account-intel/internal/store"
	"github.com/sells-group/account-intel/pkg/notion"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile sales records against the contract tracking board",
	Long: `Reconcile matches per-account revenue totals from the sales system against
the Notion contract tracking board, using a cascade of name-matching
strategies ordered from exact identifiers down to single-word overlap. It
reports records present on only one side and matched pairs whose recorded
values disagree.

By default the source side is built from stored transactions; --file uses a
raw export instead. With --push, value mismatches are corrected on the board
and missing accounts get new board rows.

Examples:
  reconcile
  reconcile --file exports/opportunities.xlsx
  reconcile --push`,
	RunE: runReconcile,
}

func init() {
	f := reconcileCmd.Flags()
	f.String("file", "", "build the source side from an export file instead of the store")
	f.Bool("push", false, "write corrections back to the contract board")
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "table", "output format: table or json")

	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	filePath, _ := cmd.Flags().GetString("file")
	push, _ := cmd.Flags().GetBool("push")
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")

	if err := validFormat(format, "table", "json"); err != nil {
		return err
	}
	if cfg.Notion.ContractDB == "" {
		return eris.New("reconcile: notion contract database is required (ACCOUNT_INTEL_NOTION_CONTRACT_DB)")
	}

	sources, err := buildSources(ctx, filePath)
	if err != nil {
		return err
	}

	nc, err := initNotion()
	if err != nil {
		return err
	}

	contracts, err := notion.FetchContracts(ctx, nc, cfg.Notion.ContractDB)
	if err != nil {
		return err
	}

	idx := reconcile.NewTargetIndex(notion.Targets(contracts))
	report := reconcile.Reconcile(sources, idx)

	w, closeFn, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeFn()

	if format == "json" {
		if err := writeJSON(w, report); err != nil {
			return err
		}
	} else if err := writeReconcileReport(w, report); err != nil {
		return err
	}

	if push {
		return pushCorrections(ctx, nc, report, contracts)
	}
	return nil
}

// buildSources aggregates per-account revenue totals, from an export file
// when given and from stored current-window transactions otherwise.
func buildSources(ctx context.Context, filePath string) ([]reconcile.SourceRecord, error) {
	if filePath != "" {
		txns, err := parseExport(filePath, "")
		if err != nil {
			return nil, err
		}
		return aggregateSources(txns), nil
	}

	s, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close() //nolint:errcheck

	if err := s.Migrate(ctx); err != nil {
		return nil, eris.Wrap(err, "reconcile: migrate")
	}
	return storedSources(ctx, s)
}

// storedSources builds the source side from the store's current window.
func storedSources(ctx context.Context, s store.Store) ([]reconcile.SourceRecord, error) {
	now := time.Now().UTC()
	txns, err := s.TransactionsBetween(ctx, now.AddDate(0, 0, -cfg.Facts.WindowDays), now)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: load transactions")
	}
	return aggregateSources(txns), nil
}

func aggregateSources(txns []model.Transaction) []reconcile.SourceRecord {
	byEntity := make(map[string]*reconcile.SourceRecord)
	for _, t := range txns {
		if t.EntityID == "" {
			continue
		}
		rec, ok := byEntity[t.EntityID]
		if !ok {
			rec = &reconcile.SourceRecord{
				ID:       t.EntityID,
				Name:     t.EntityName,
				TargetID: t.EntityID,
			}
			byEntity[t.EntityID] = rec
		}
		rec.Value += t.Revenue
	}

	out := make([]reconcile.SourceRecord, 0, len(byEntity))
	for _, rec := range byEntity {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// pushCorrections applies the report to the board: value mismatches get the
// sales-system value, accounts missing from the board get new rows.
func pushCorrections(ctx context.Context, nc notion.Client, report reconcile.Report, contracts []notion.ContractRow) error {
	// Map target IDs back to board pages.
	pageByTarget := make(map[string]string, len(contracts))
	for _, c := range contracts {
		id := c.AccountID
		if id == "" {
			id = c.PageID
		}
		pageByTarget[id] = c.PageID
	}

	matchedBySource := make(map[string]model.MatchResult, len(report.Matches))
	for _, m := range report.Matches {
		if m.Matched() {
			matchedBySource[m.SourceName] = m
		}
	}

	updated := 0
	for _, mm := range report.Mismatches {
		m, ok := matchedBySource[mm.SourceName]
		if !ok {
			continue
		}
		pageID, ok := pageByTarget[m.TargetID]
		if !ok {
			continue
		}
		if err := notion.UpdateContractValue(ctx, nc, pageID, mm.SourceValue); err != nil {
			return err
		}
		updated++
	}

	created := 0
	for _, src := range report.OnlyInSource {
		err := notion.CreateContract(ctx, nc, cfg.Notion.ContractDB, notion.ContractRow{
			AccountID: src.ID,
			Name:      src.Name,
			Value:     src.Value,
		})
		if err != nil {
			return err
		}
		created++
	}

	zap.L().Info("board corrections pushed",
		zap.Int("values_updated", updated),
		zap.Int("rows_created", created),
	)
	fmt.Printf("Pushed %d value corrections and %d new rows to the board\n", updated, created)
	return nil
}

func writeReconcileReport(w *os.File, r reconcile.Report) error {
	fmt.Fprintf(w, "Matched:         %d of %d source records\n", r.MatchedCount, r.MatchedCount+len(r.OnlyInSource))
	fmt.Fprintf(w, "Source total:    $%s\n", formatMoney(r.SourceTotal))
	fmt.Fprintf(w, "Target total:    $%s\n", formatMoney(r.TargetTotal))

	if len(r.Mismatches) > 0 {
		fmt.Fprintf(w, "\nValue mismatches (%d):\n", len(r.Mismatches))
		for _, mm := range r.Mismatches {
			fmt.Fprintf(w, "  %-40s source $%s vs board $%s (%.1f%%)\n",
				truncName(mm.SourceName, 40),
				formatMoney(mm.SourceValue),
				formatMoney(mm.TargetValue),
				mm.DiffPct,
			)
		}
	}

	if len(r.OnlyInSource) > 0 {
		fmt.Fprintf(w, "\nOnly in sales system (%d):\n", len(r.OnlyInSource))
		for _, s := range r.OnlyInSource {
			fmt.Fprintf(w, "  %-40s $%s\n", truncName(s.Name, 40), formatMoney(s.Value))
		}
	}

	if len(r.OnlyInTarget) > 0 {
		fmt.Fprintf(w, "\nOnly on the board (%d):\n", len(r.OnlyInTarget))
		for _, t := range r.OnlyInTarget {
			fmt.Fprintf(w, "  %-40s $%s\n", truncName(t.Name, 40), formatMoney(t.Value))
		}
	}

	byType := map[model.MatchType]int{}
	for _, m := range r.Matches {
		byType[m.Type]++
	}
	fmt.Fprintf(w, "\nMatch strategies: ")
	parts := make([]string, 0, len(byType))
	for _, mt := range []model.MatchType{model.MatchExactID, model.MatchExactName, model.MatchContains, model.MatchWordOverlap, model.MatchSingleWord} {
		if byType[mt] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", mt, byType[mt]))
		}
	}
	fmt.Fprintln(w, strings.Join(parts, " "))
	return nil
}
