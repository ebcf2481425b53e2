package services

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"volur/types"
)

func exportFixture() []types.ValuationResult {
	return []types.ValuationResult{
		{
			Ticker:                 "ACME",
			Price:                  types.Some(50.0),
			IntrinsicValuePerShare: types.Some(100.0),
			MarginOfSafety:         types.Some(0.5),
			ValueScore:             types.Some(73.0),
			Interpretation:         "Good Value",
			PERatio:                types.Some(10.0),
		},
		{Ticker: "EMPTY"},
	}
}

func TestExportValuations(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportValuations(&buf, exportFixture()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ExportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, "ACME", rows[1][0])
	assert.Equal(t, "50", rows[1][1])
	assert.Equal(t, "100", rows[1][2])
	assert.Equal(t, "Good Value", rows[1][5])
	assert.Equal(t, "N/A", rows[1][7])
	assert.Equal(t, []string{"EMPTY", "N/A", "N/A", "N/A", "N/A", "N/A", "N/A", "N/A", "N/A", "N/A", "N/A"}, rows[2])
}

func TestExportValuationsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valuation.xlsx")
	require.NoError(t, ExportValuationsToFile(path, exportFixture()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ExportSheet}, f.GetSheetList())
}
