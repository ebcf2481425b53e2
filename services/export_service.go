package services

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"volur/types"
	"volur/utils/helpers"
)

const ExportSheet = "Valuation"

var exportHeaders = []string{
	"Ticker", "Price", "IV/Share", "MoS", "Score", "Interpretation",
	"P/E", "P/B", "ROE", "FCF Yield", "D/E",
}

// ExportValuations writes results as an XLSX workbook with a single "Valuation" sheet.
// Unknown figures are written as N/A.
func ExportValuations(w io.Writer, results []types.ValuationResult) error {
	f, err := buildWorkbook(results)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ExportValuationsToFile is ExportValuations for a file on disk.
func ExportValuationsToFile(path string, results []types.ValuationResult) error {
	f, err := buildWorkbook(results)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func buildWorkbook(results []types.ValuationResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		f.Close()
		return nil, err
	}

	header := make([]interface{}, len(exportHeaders))
	for i, h := range exportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}

	for i, r := range results {
		row := []interface{}{
			r.Ticker,
			cellValue(r.Price),
			cellValue(r.IntrinsicValuePerShare),
			cellValue(r.MarginOfSafety),
			cellValue(r.ValueScore),
			r.Interpretation,
			cellValue(r.PERatio),
			cellValue(r.PBRatio),
			cellValue(r.ROE),
			cellValue(r.FCFYield),
			cellValue(r.DebtToEquity),
		}
		if r.Interpretation == "" {
			row[5] = helpers.NotAvailable
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func cellValue(v types.Float) interface{} {
	if f, ok := v.Get(); ok {
		return f
	}
	return helpers.NotAvailable
}
