package helpers

import (
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"volur/types"
)

const NotAvailable = "N/A"

var currencySymbols = map[string]string{
	"USD": "$",
	"INR": "₹",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// ParseNumber converts provider values such as "1,234.56", "₹ 2,500 Cr." or "15.2 %"
// into a Float. Percentages are returned as fractions.
func ParseNumber(value interface{}) types.Float {
	switch v := value.(type) {
	case float64:
		return finite(v)
	case int:
		return types.Some(float64(v))
	case int64:
		return types.Some(float64(v))
	case string:
		return parseNumberString(v)
	}
	return types.None[float64]()
}

func parseNumberString(str string) types.Float {
	// Remove currency symbols, units and separators
	cleanStr := strings.ReplaceAll(str, ",", "")
	cleanStr = strings.ReplaceAll(cleanStr, "₹", "")
	cleanStr = strings.ReplaceAll(cleanStr, "$", "")
	cleanStr = strings.ReplaceAll(cleanStr, "Cr.", "")
	cleanStr = strings.Join(strings.Fields(cleanStr), "")

	if cleanStr == "" || cleanStr == "-" || strings.EqualFold(cleanStr, "none") {
		return types.None[float64]()
	}

	percent := strings.HasSuffix(cleanStr, "%")
	cleanStr = strings.TrimSuffix(cleanStr, "%")

	f, err := strconv.ParseFloat(cleanStr, 64)
	if err != nil {
		zap.L().Debug("Error converting to float64", zap.String("value", str), zap.Error(err))
		return types.None[float64]()
	}
	if percent {
		return finite(f / 100.0)
	}
	return finite(f)
}

func finite(f float64) types.Float {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return types.None[float64]()
	}
	return types.Some(f)
}

// ParseTopRatios reads the name/value list at the top of a screener.in company page.
func ParseTopRatios(doc *goquery.Document) map[string]string {
	ratios := make(map[string]string)
	doc.Find("#top-ratios li").Each(func(index int, item *goquery.Selection) {
		key := strings.TrimSpace(item.Find("span.name").Text())
		if key == "" {
			return
		}
		value := strings.Join(strings.Fields(item.Find("span.value").Text()), " ")
		ratios[key] = value
	})
	return ratios
}

// ParseTableData maps each row label of a screener.in result table onto its cells,
// oldest period first. The trailing "+" of expandable rows is dropped from labels.
func ParseTableData(section *goquery.Selection, tableSelector string) map[string][]string {
	table := section.Find(tableSelector)
	if table.Length() == 0 {
		return nil
	}

	data := make(map[string][]string)
	table.Find("tbody tr").Each(func(i int, tr *goquery.Selection) {
		rowKey := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(tr.Find("td.text").Text()), "+"))
		if rowKey == "" {
			return
		}
		rowValues := []string{}
		tr.Find("td").Each(func(i int, td *goquery.Selection) {
			if i > 0 { // Skip the first column which is the row key
				rowValues = append(rowValues, strings.TrimSpace(td.Text()))
			}
		})
		data[rowKey] = rowValues
	})

	return data
}

// LatestValue returns the last parseable cell of a table row.
func LatestValue(row []string) types.Float {
	for i := len(row) - 1; i >= 0; i-- {
		if v := ParseNumber(row[i]); v.IsKnown() {
			return v
		}
	}
	return types.None[float64]()
}

func formatAmount(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

// FormatCurrency renders a price as "$1,234.56". Unknown currencies fall back to
// the dollar sign, unlisted ones are written as a prefix code.
func FormatCurrency(value types.Float, currency types.String) string {
	v, ok := value.Get()
	if !ok {
		return NotAvailable
	}
	symbol := "$"
	if code, ok := currency.Get(); ok {
		code = strings.ToUpper(code)
		if s, found := currencySymbols[code]; found {
			symbol = s
		} else {
			symbol = code + " "
		}
	}
	if v < 0 {
		return "-" + symbol + formatAmount(-v)
	}
	return symbol + formatAmount(v)
}

// FormatPercentage renders a fraction as "12.34%".
func FormatPercentage(value types.Float) string {
	v, ok := value.Get()
	if !ok {
		return NotAvailable
	}
	return strconv.FormatFloat(v*100, 'f', 2, 64) + "%"
}

func FormatNumber(value types.Float) string {
	v, ok := value.Get()
	if !ok {
		return NotAvailable
	}
	return formatAmount(v)
}
