package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/account-intel/internal/fetcher"
	"github.com/sells-group/account-intel/internal/model"
	"github.com/sells-group/account-intel/internal/resilience"
	"github.com/sells-group/account-intel/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a sales-system export into the transaction store",
	Long: `Import parses a sales-system report export and upserts its rows into the
transaction store. Two export flavors are supported: real XLSX workbooks and
legacy .xls files, which are actually an HTML table.

Examples:
  # Import a local workbook
  import --file exports/opportunities.xlsx

  # Import a legacy HTML-table export
  import --file exports/legacy.xls

  # Pull the nightly drop over FTP
  import --ftp ftp://reports.example.com/nightly/opportunities.xls`,
	RunE: runImport,
}

func init() {
	f := importCmd.Flags()
	f.String("file", "", "path to a local export file")
	f.String("ftp", "", "FTP URL of the export (overrides config import.ftp_url)")
	f.String("sheet", "", "workbook sheet name (default: first sheet)")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	filePath, _ := cmd.Flags().GetString("file")
	ftpURL, _ := cmd.Flags().GetString("ftp")
	sheet, _ := cmd.Flags().GetString("sheet")

	if ftpURL == "" && filePath == "" {
		ftpURL = cfg.Import.FTPURL
	}
	if ftpURL == "" && filePath == "" {
		return eris.New("import: either --file or --ftp is required")
	}

	if ftpURL != "" {
		downloaded, cleanup, err := downloadExport(ctx, ftpURL)
		if err != nil {
			return err
		}
		defer cleanup()
		filePath = downloaded
	}

	txns, err := parseExport(filePath, sheet)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		fmt.Println("No transactions found in export.")
		return nil
	}

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	if err := s.Migrate(ctx); err != nil {
		return eris.Wrap(err, "import: migrate")
	}

	n, err := s.InsertTransactions(ctx, txns)
	if err != nil {
		return eris.Wrap(err, "import: insert transactions")
	}

	if err := saveRunSummary(ctx, s, "import", len(txns), map[string]any{
		"source":   filepath.Base(filePath),
		"inserted": n,
	}); err != nil {
		return err
	}

	zap.L().Info("import complete",
		zap.String("file", filePath),
		zap.Int("rows", len(txns)),
		zap.Int("inserted", n),
	)
	fmt.Printf("Imported %d transactions from %s\n", n, filepath.Base(filePath))
	return nil
}

// downloadExport pulls an FTP export to a temp file. The returned cleanup
// removes the file.
func downloadExport(ctx context.Context, ftpURL string) (string, func(), error) {
	timeout := time.Duration(cfg.Import.FTPTimeoutSecs) * time.Second
	f := fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: timeout})

	tmp, err := os.CreateTemp("", "account-intel-export-*"+filepath.Ext(ftpURL))
	if err != nil {
		return "", nil, eris.Wrap(err, "import: create temp file")
	}
	tmp.Close() //nolint:errcheck

	n, err := resilience.DoVal(ctx, resilience.DefaultRetryConfig(), "ftp download",
		func(ctx context.Context) (int64, error) {
			return f.DownloadToFile(ctx, ftpURL, tmp.Name())
		})
	if err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", nil, eris.Wrap(err, "import: download export")
	}

	zap.L().Info("export downloaded", zap.String("url", ftpURL), zap.Int64("bytes", n))
	return tmp.Name(), func() { _ = os.Remove(tmp.Name()) }, nil
}

// parseExport dispatches on file extension: .xlsx is a real workbook,
// anything else is treated as a legacy HTML-table export.
func parseExport(path, sheet string) ([]model.Transaction, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		header, rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{SheetName: sheet})
		if err != nil {
			return nil, err
		}
		return fetcher.RowsToTransactions(header, rows)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "import: open export %s", path)
	}
	defer f.Close() //nolint:errcheck

	header, rows, err := fetcher.ReadHTMLTable(f)
	if err != nil {
		return nil, err
	}
	return fetcher.RowsToTransactions(header, rows)
}

// saveRunSummary records one command invocation in the scoring_runs table.
func saveRunSummary(ctx context.Context, s store.Store, kind string, entities int, summary any) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrapf(err, "%s: marshal run summary", kind)
	}
	run := store.ScoringRun{
		ID:        uuid.NewString(),
		Kind:      kind,
		Entities:  entities,
		Summary:   raw,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.SaveRun(ctx, run); err != nil {
		return eris.Wrapf(err, "%s: save run", kind)
	}
	return nil
}
