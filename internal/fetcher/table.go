package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Table is a materialized staging table: one header row plus data rows, with
// case-insensitive column lookup.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// NewTable builds a table and its column index. Later duplicate column names
// are ignored; the first occurrence wins.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{Header: header, Rows: rows, index: make(map[string]int, len(header))}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, exists := t.index[key]; !exists {
			t.index[key] = i
		}
	}
	return t
}

// Column returns the index of the named column, case-insensitively.
func (t *Table) Column(name string) (int, bool) {
	i, ok := t.index[strings.ToLower(strings.TrimSpace(name))]
	return i, ok
}

// Cell returns the trimmed value of the named column in row, or "" when the
// column is absent or the row is short. Missing optional columns read as
// all-empty.
func (t *Table) Cell(row []string, name string) string {
	i, ok := t.Column(name)
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// TableOptions configures table loading.
type TableOptions struct {
	Encoding  string // IANA charset name for CSV/TSV input; empty means UTF-8
	SheetName string // XLSX only
}

// LoadTable reads a staging table from path, dispatching on the extension:
// .tsv is tab-delimited, .xlsx goes through the workbook reader, anything
// else is parsed as comma-separated.
func LoadTable(ctx context.Context, path string, opts TableOptions) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".xlsx" {
		header, rows, err := ReadXLSX(path, XLSXOptions{SheetName: opts.SheetName})
		if err != nil {
			return nil, err
		}
		zap.L().Debug("fetcher: table loaded",
			zap.String("path", path),
			zap.Int("rows", len(rows)),
		)
		return NewTable(header, rows), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	csvOpts := CSVOptions{
		HasHeader: true,
		TrimSpace: true,
		Encoding:  opts.Encoding,
	}
	if ext == ".tsv" {
		csvOpts.Delimiter = '\t'
	}

	header, rows, err := ReadCSV(ctx, f, csvOpts)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("fetcher: table loaded",
		zap.String("path", path),
		zap.Int("rows", len(rows)),
	)
	return NewTable(header, rows), nil
}
