package notifier

import (
	"strings"
	"testing"
	"time"

	"StockHawk/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func rec(sym, price, change, pct string) model.QuoteRecord {
	return model.QuoteRecord{
		Symbol:         sym,
		Price:          decimal.RequireFromString(price),
		AbsoluteChange: decimal.RequireFromString(change),
		PercentChange:  decimal.RequireFromString(pct),
	}
}

func TestParseDisplayMode(t *testing.T) {
	m, err := ParseDisplayMode(" Percentage ")
	require.NoError(t, err)
	require.Equal(t, ModePercentage, m)

	_, err = ParseDisplayMode("relative")
	require.Error(t, err)
}

func TestFormatMoney(t *testing.T) {
	require.Equal(t, "$1,234.50", FormatMoney(decimal.RequireFromString("1234.5")))
	require.Equal(t, "$0.00", FormatMoney(decimal.Zero))
	require.Equal(t, "$189.96", FormatMoney(decimal.RequireFromString("189.955")))
}

func TestFormatChange(t *testing.T) {
	up := rec("AAPL", "189.95", "1.2", "1.234")
	down := rec("MSFT", "415.5", "-2.1", "-0.5029")

	require.Equal(t, "+$1.20", FormatChange(up, ModeAbsolute))
	require.Equal(t, "+1.23%", FormatChange(up, ModePercentage))
	require.Equal(t, "-$2.10", FormatChange(down, ModeAbsolute))
	require.Equal(t, "-0.50%", FormatChange(down, ModePercentage))
}

func TestFormatQuoteList(t *testing.T) {
	out := FormatQuoteList([]model.QuoteRecord{
		rec("AAPL", "189.95", "1.2", "1.234"),
		rec("MSFT", "415.5", "-2.1", "-0.5029"),
	}, ModePercentage)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	require.Contains(t, lines[2], "AAPL")
	require.Contains(t, lines[2], "$189.95")
	require.Contains(t, lines[2], "+1.23%")
	require.Contains(t, lines[3], "-0.50%")

	require.Contains(t, FormatQuoteList(nil, ModeAbsolute), "empty")
}

func TestFormatDetail(t *testing.T) {
	r := rec("AAPL", "15", "1", "7.14")
	r.UpdatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// unsorted on purpose
	for _, i := range []int{2, 0, 1, 3} {
		r.History = append(r.History, model.HistoryPoint{
			Timestamp: start.AddDate(0, 0, 7*i).UnixMilli(),
			Close:     decimal.NewFromInt(int64(10 + i)),
		})
	}

	out := FormatDetail(r, 2)
	require.Contains(t, out, "AAPL $15.00 (+$1.00, +7.14%)")
	require.Contains(t, out, "52w high/low: $13.00 / $10.00")
	require.Contains(t, out, "MA20w: n/a")
	require.Contains(t, out, "Last 2 weeks:")
	require.Contains(t, out, "2024-01-15  $12.00")
	require.Contains(t, out, "2024-01-22  $13.00")
	require.NotContains(t, out, "2024-01-08")
	require.Less(t, strings.Index(out, "2024-01-15"), strings.Index(out, "2024-01-22"))
}

func TestFormatDetail_NoHistory(t *testing.T) {
	out := FormatDetail(rec("AAPL", "1", "0", "0"), 5)
	require.Contains(t, out, "No history yet.")
}
