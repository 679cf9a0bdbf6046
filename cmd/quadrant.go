package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/account-intel/internal/facts"
	"github.com/sells-group/account-intel/internal/insight"
	"github.com/sells-group/account-intel/internal/model"
)

var quadrantCmd = &cobra.Command{
	Use:   "quadrant",
	Short: "Map a parent account's subsidiaries onto the value/health matrix",
	Long: `Quadrant places every subsidiary of a parent account into a 2x2 matrix:
revenue above or below the sibling median crossed with healthy-and-growing
or not. The quadrants mirror the strategic buckets at the portfolio level.

Examples:
  quadrant --parent 001A000001abcDE
  quadrant --parent 001A000001abcDE --format json`,
	RunE: runQuadrant,
}

func init() {
	f := quadrantCmd.Flags()
	f.String("parent", "", "parent account ID (required)")
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "table", "output format: table or json")
	_ = quadrantCmd.MarkFlagRequired("parent")

	rootCmd.AddCommand(quadrantCmd)
}

func runQuadrant(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	parentID, _ := cmd.Flags().GetString("parent")
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")

	if err := validFormat(format, "table", "json"); err != nil {
		return err
	}

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	if err := s.Migrate(ctx); err != nil {
		return eris.Wrap(err, "quadrant: migrate")
	}

	now := time.Now().UTC()
	entities, err := loadFacts(ctx, s, now)
	if err != nil {
		return err
	}

	siblings := facts.SiblingsOf(entities, parentID)
	if len(siblings) == 0 {
		fmt.Printf("No accounts found under parent %s.\n", parentID)
		return nil
	}

	placements := insight.MapQuadrants(siblings, cfg.Engine.Quadrant, now)

	w, closeFn, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeFn()

	if format == "json" {
		return writeJSON(w, placements)
	}
	return writeQuadrantTable(w, placements)
}

func writeQuadrantTable(w *os.File, placements []model.QuadrantPlacement) error {
	header := fmt.Sprintf("%-40s %-20s %14s %8s %8s %8s\n",
		"Account", "Quadrant", "Revenue", "Value", "Healthy", "Growing")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "quadrant: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 104)); err != nil {
		return eris.Wrap(err, "quadrant: write table separator")
	}

	for _, p := range placements {
		value := "low"
		if p.HighValue {
			value = "high"
		}
		line := fmt.Sprintf("%-40s %-20s %14s %8s %8v %8v\n",
			truncName(p.Name, 40),
			p.Quadrant,
			"$"+formatMoney(p.Revenue),
			value,
			p.Healthy,
			p.Growing,
		)
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "quadrant: write table row")
		}
	}
	return nil
}
