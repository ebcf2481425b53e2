package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"volur/types"
	"volur/utils/helpers"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

var tableHeaders = []string{"Ticker", "Price", "IV/Share", "MoS", "Score", "P/E", "P/B", "ROE", "FCF Yield"}

func renderTable(results []types.ValuationResult, source string) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Ticker,
			helpers.FormatCurrency(r.Price, r.Currency),
			helpers.FormatCurrency(r.IntrinsicValuePerShare, r.Currency),
			helpers.FormatPercentage(r.MarginOfSafety),
			helpers.FormatNumber(r.ValueScore),
			helpers.FormatNumber(r.PERatio),
			helpers.FormatNumber(r.PBRatio),
			helpers.FormatPercentage(r.ROE),
			helpers.FormatPercentage(r.FCFYield),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(tableHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	title := titleStyle.Render(fmt.Sprintf("VALUATION RESULTS - Data Source: %s", strings.ToUpper(source)))
	return lipgloss.JoinVertical(lipgloss.Left, title, t.String())
}
