// Package fetcher retrieves and parses sales-system report exports. The
// sales system ships two flavors of "Excel" export: real XLSX workbooks and
// legacy .xls files that are actually an HTML table, sometimes in a non-UTF8
// charset. Both decode to the same transaction rows.
package fetcher

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/account-intel/internal/model"
)

// Export column headers as emitted by the sales-system report builder.
// Matching is case-insensitive and whitespace-trimmed.
const (
	colOpportunityID = "opportunity id"
	colAccountID     = "account id"
	colAccountName   = "account name"
	colParentID      = "parent account id"
	colCategory      = "product category"
	colRevenue       = "est. opportunity rev."
	colCost          = "est. cost"
	colUnits         = "units"
	colCloseDate     = "contract effective/close date"
)

// exportDateFormats are tried in order when parsing the close date column.
var exportDateFormats = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// RowsToTransactions maps header-keyed export rows onto transactions.
// Rows without an account are dropped; missing numeric cells become zero so
// one bad row never blocks the batch; rows with an unparseable date are
// skipped and counted, since a transaction without a date cannot be windowed.
func RowsToTransactions(header []string, rows [][]string) ([]model.Transaction, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols[colAccountName]; !ok {
		return nil, eris.Errorf("export: missing required column %q", colAccountName)
	}
	if _, ok := cols[colCloseDate]; !ok {
		return nil, eris.Errorf("export: missing required column %q", colCloseDate)
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []model.Transaction
	skipped := 0
	for n, row := range rows {
		name := cell(row, colAccountName)
		if name == "" {
			continue
		}

		date, ok := parseExportDate(cell(row, colCloseDate))
		if !ok {
			skipped++
			continue
		}

		entityID := cell(row, colAccountID)
		if entityID == "" {
			// Legacy exports carry no account id; the normalized name is the
			// only stable key available.
			entityID = strings.ToLower(name)
		}

		id := cell(row, colOpportunityID)
		if id == "" {
			id = entityID + "/" + date.Format("2006-01-02") + "/" + strconv.Itoa(n)
		}

		out = append(out, model.Transaction{
			ID:         id,
			EntityID:   entityID,
			EntityName: name,
			ParentID:   cell(row, colParentID),
			Category:   cell(row, colCategory),
			Revenue:    parseExportNumber(cell(row, colRevenue)),
			Cost:       parseExportNumber(cell(row, colCost)),
			Units:      int(parseExportNumber(cell(row, colUnits))),
			Date:       date,
		})
	}

	if skipped > 0 {
		zap.L().Warn("export: skipped rows with unparseable dates", zap.Int("rows", skipped))
	}

	return out, nil
}

// parseExportNumber parses a currency/number cell, tolerating $ signs, commas
// and blanks. Malformed values become 0.
func parseExportNumber(s string) float64 {
	s = strings.NewReplacer("$", "", ",", "", "%", "").Replace(s)
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseExportDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range exportDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// htmlTable mirrors the markup of the legacy export: a single <table> of
// <tr><td> cells, first row the header.
type htmlTable struct {
	Rows []struct {
		Cells []string `xml:"td"`
		Heads []string `xml:"th"`
	} `xml:"tr"`
}

// ReadHTMLTable parses a legacy HTML-table export into a header row and data
// rows. Charset declarations other than UTF-8 are honored via the HTML
// charset index.
func ReadHTMLTable(r io.Reader) ([]string, [][]string, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "export: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return nil, nil, eris.New("export: no table found")
		}
		if err != nil {
			return nil, nil, eris.Wrap(err, "export: read token")
		}
		se, ok := tok.(xml.StartElement)
		if !ok || !strings.EqualFold(se.Name.Local, "table") {
			continue
		}

		var table htmlTable
		if err := decoder.DecodeElement(&table, &se); err != nil {
			return nil, nil, eris.Wrap(err, "export: decode table")
		}
		if len(table.Rows) == 0 {
			return nil, nil, eris.New("export: empty table")
		}

		first := table.Rows[0]
		header := first.Heads
		if len(header) == 0 {
			header = first.Cells
		}

		rows := make([][]string, 0, len(table.Rows)-1)
		for _, tr := range table.Rows[1:] {
			rows = append(rows, tr.Cells)
		}
		return header, rows, nil
	}
}
