package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/account-intel/internal/model"
)

var crosssellCmd = &cobra.Command{
	Use:   "crosssell",
	Short: "List cross-sell opportunities across all accounts",
	Long: `Crosssell proposes product categories an account does not yet buy but most
of its peers do, sized from the account's current revenue. Single-product
accounts are excluded; they buy one thing on purpose.

Examples:
  crosssell
  crosssell --min-revenue 5000 --format csv --output opportunities.csv`,
	RunE: runCrosssell,
}

func init() {
	f := crosssellCmd.Flags()
	f.Float64("min-revenue", 0, "only show opportunities at or above this estimated revenue")
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "table", "output format: table, csv, or json")

	rootCmd.AddCommand(crosssellCmd)
}

func runCrosssell(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	minRevenue, _ := cmd.Flags().GetFloat64("min-revenue")
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")

	if err := validFormat(format, "table", "csv", "json"); err != nil {
		return err
	}

	signals, s, err := scoreStored(ctx)
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	var opps []model.CrossSellOpportunity
	for _, sig := range signals {
		for _, o := range sig.CrossSell {
			if o.EstimatedRevenue >= minRevenue {
				opps = append(opps, o)
			}
		}
	}

	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].EstimatedRevenue > opps[j].EstimatedRevenue
	})

	w, closeFn, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeFn()

	switch format {
	case "json":
		return writeJSON(w, opps)
	case "csv":
		return writeCrosssellCSV(w, opps)
	default:
		return writeCrosssellTable(w, opps)
	}
}

func writeCrosssellCSV(w *os.File, opps []model.CrossSellOpportunity) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"entity_id", "name", "recommended", "estimated_revenue", "current_categories", "reason"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "crosssell: write CSV header")
	}

	for _, o := range opps {
		row := []string{
			o.EntityID,
			o.Name,
			o.Recommended,
			fmt.Sprintf("%.2f", o.EstimatedRevenue),
			strings.Join(o.CurrentCategories, "; "),
			o.Reason,
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "crosssell: write CSV row")
		}
	}
	return nil
}

func writeCrosssellTable(w *os.File, opps []model.CrossSellOpportunity) error {
	header := fmt.Sprintf("%-40s %-25s %14s  %s\n",
		"Account", "Recommended", "Est. Revenue", "Reason")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "crosssell: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 110)); err != nil {
		return eris.Wrap(err, "crosssell: write table separator")
	}

	var total float64
	for _, o := range opps {
		total += o.EstimatedRevenue
		line := fmt.Sprintf("%-40s %-25s %14s  %s\n",
			truncName(o.Name, 40),
			truncName(o.Recommended, 25),
			"$"+formatMoney(o.EstimatedRevenue),
			o.Reason,
		)
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "crosssell: write table row")
		}
	}

	if _, err := fmt.Fprintf(w, "\nTotal potential: $%s across %d opportunities\n",
		formatMoney(total), len(opps)); err != nil {
		return eris.Wrap(err, "crosssell: write total")
	}
	return nil
}
