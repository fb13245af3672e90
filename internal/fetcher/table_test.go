package fetcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamCSV(t *testing.T) {
	input := "Company Name,Close Status\nSupercell Oy,5 - Customer\nRovio, Qualified \n"
	headerCh := make(chan []string, 1)

	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	require.NoError(t, <-errCh)

	assert.Equal(t, []string{"Company Name", "Close Status"}, <-headerCh)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Rovio", "Qualified"}, rows[1])
}

func TestStreamCSVCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := StreamCSV(ctx, strings.NewReader("a,b\n1,2\n"), CSVOptions{})
	for range rowCh {
	}
	assert.Error(t, <-errCh)
}

func TestReadCSVEmptyInput(t *testing.T) {
	header, rows, err := ReadCSV(context.Background(), strings.NewReader(""), CSVOptions{HasHeader: true})
	require.NoError(t, err)
	assert.Nil(t, header)
	assert.Empty(t, rows)
}

func TestDecodeReader(t *testing.T) {
	t.Run("utf-8 passthrough", func(t *testing.T) {
		r := strings.NewReader("héllo")
		got, err := DecodeReader(r, "")
		require.NoError(t, err)
		assert.Equal(t, r, got)
	})

	t.Run("latin-1 decoded", func(t *testing.T) {
		// 0xE9 is é in ISO 8859-1.
		r := strings.NewReader("Montr\xe9al")
		decoded, err := DecodeReader(r, "iso-8859-1")
		require.NoError(t, err)

		got, err := io.ReadAll(decoded)
		require.NoError(t, err)
		assert.Equal(t, "Montréal", string(got))
	})

	t.Run("unknown encoding", func(t *testing.T) {
		_, err := DecodeReader(strings.NewReader("x"), "klingon-8")
		assert.Error(t, err)
	})
}

func TestTableColumnLookup(t *testing.T) {
	tbl := NewTable(
		[]string{"Company Name", " Close Status ", "Company Name"},
		[][]string{{"Supercell Oy", "5 - Customer", "dup"}, {"Rovio"}},
	)

	i, ok := tbl.Column("company name")
	require.True(t, ok)
	assert.Equal(t, 0, i) // first occurrence wins over the duplicate

	_, ok = tbl.Column("Missing")
	assert.False(t, ok)

	assert.Equal(t, "5 - Customer", tbl.Cell(tbl.Rows[0], "Close Status"))
	assert.Equal(t, "", tbl.Cell(tbl.Rows[1], "Close Status")) // short row
	assert.Equal(t, "", tbl.Cell(tbl.Rows[0], "Missing"))
}

func TestLoadTableCSVAndTSV(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "staging.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Company Name,Country\nSupercell Oy,Finland\n"), 0o644))

	tbl, err := LoadTable(context.Background(), csvPath, TableOptions{})
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "Finland", tbl.Cell(tbl.Rows[0], "Country"))

	tsvPath := filepath.Join(dir, "staging.tsv")
	require.NoError(t, os.WriteFile(tsvPath, []byte("Company Name\tCountry\nSupercell Oy\tFinland\n"), 0o644))

	tbl, err = LoadTable(context.Background(), tsvPath, TableOptions{})
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "Supercell Oy", tbl.Cell(tbl.Rows[0], "Company Name"))
}

func TestLoadTableMissingFile(t *testing.T) {
	_, err := LoadTable(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), TableOptions{})
	assert.Error(t, err)
}
