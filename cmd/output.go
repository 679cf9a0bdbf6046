package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// openOutput returns the output writer for a command: outputPath when set,
// stdout otherwise. The caller owns closing the returned file; closeFn is a
// no-op for stdout.
func openOutput(outputPath string) (*os.File, func(), error) {
	if outputPath == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create output file %s", outputPath)
	}
	return f, func() { _ = f.Close() }, nil
}

// writeJSON pretty-prints v to the writer.
func writeJSON(w *os.File, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "encode json output")
	}
	return nil
}

// validFormat checks a --format flag against the set of supported formats.
func validFormat(format string, supported ...string) error {
	for _, s := range supported {
		if format == s {
			return nil
		}
	}
	return eris.Errorf("--format must be one of %s (got %q)", strings.Join(supported, ", "), format)
}

// truncName shortens a name for fixed-width table columns.
func truncName(name string, width int) string {
	if len(name) <= width {
		return name
	}
	return name[:width-3] + "..."
}

// formatMoney renders a dollar amount with thousands separators.
func formatMoney(amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := fmt.Sprintf("%.0f", amount)
	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	if neg {
		return "-" + string(result)
	}
	return string(result)
}
