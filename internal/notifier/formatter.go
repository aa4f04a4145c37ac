package notifier

import (
	"fmt"
	"strings"

	"StockHawk/internal/calculator"
	"StockHawk/internal/history"
	"StockHawk/internal/model"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DisplayMode selects how the daily change is rendered.
type DisplayMode string

const (
	ModeAbsolute   DisplayMode = "absolute"
	ModePercentage DisplayMode = "percentage"
)

// ParseDisplayMode accepts "absolute" or "percentage", case-insensitively.
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch m := DisplayMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAbsolute, ModePercentage:
		return m, nil
	default:
		return "", fmt.Errorf("unknown display mode %q (want absolute or percentage)", s)
	}
}

// Quotes are always quoted in US dollars.
var usd = *money.New(0, money.USD).Currency()

// FormatMoney renders a dollar amount, e.g. "$1,234.50".
func FormatMoney(d decimal.Decimal) string {
	return usd.Formatter().Format(d.Shift(int32(usd.Fraction)).Round(0).IntPart())
}

// FormatChange renders a change with an explicit sign: "+$1.20" or "-1.23%".
func FormatChange(r model.QuoteRecord, mode DisplayMode) string {
	v := r.AbsoluteChange
	if mode == ModePercentage {
		v = r.PercentChange
	}
	sign := "+"
	if v.IsNegative() {
		sign = "-"
	}
	if mode == ModePercentage {
		return sign + v.Abs().StringFixed(2) + "%"
	}
	return sign + FormatMoney(v.Abs())
}

// FormatQuoteList renders one line per record in the order given.
func FormatQuoteList(records []model.QuoteRecord, mode DisplayMode) string {
	if len(records) == 0 {
		return "Watchlist is empty. Add a symbol with /add SYM"
	}
	width := 0
	for _, r := range records {
		width = max(width, len(r.Symbol))
	}

	var b strings.Builder
	b.WriteString("📊 Stock Hawk\n\n")
	for _, r := range records {
		fmt.Fprintf(&b, "%-*s  %10s  %9s\n", width, r.Symbol, FormatMoney(r.Price), FormatChange(r, mode))
	}
	return b.String()
}

// FormatDetail renders price statistics over the stored weekly history,
// ending with the last n closes.
func FormatDetail(r model.QuoteRecord, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📈 %s %s (%s, %s)\n", r.Symbol, FormatMoney(r.Price),
		FormatChange(r, ModeAbsolute), FormatChange(r, ModePercentage))
	if !r.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "Updated: %s\n", r.UpdatedAt.Format("2006-01-02 15:04"))
	}

	points := history.Sorted(r.History)
	if len(points) == 0 {
		b.WriteString("\nNo history yet.\n")
		return b.String()
	}

	b.WriteString("\n")
	if high, low, err := calculator.Calculate52WeekRange(points); err == nil {
		pos, _ := calculator.CalculatePosition(r.Price.InexactFloat64(), high, low)
		fmt.Fprintf(&b, "52w high/low: %s / %s (at %.0f%%)\n",
			FormatMoney(decimal.NewFromFloat(high)), FormatMoney(decimal.NewFromFloat(low)), pos*100)
	}
	fmt.Fprintf(&b, "MA20w: %s | MA50w: %s\n",
		formatMA(calculator.CalculateMA20w(points)), formatMA(calculator.CalculateMA50w(points)))
	if rsi, err := calculator.CalculateRSI(points, 14); err == nil {
		fmt.Fprintf(&b, "Weekly RSI(14): %.0f\n", rsi)
	}

	if n > 0 {
		start := max(len(points)-n, 0)
		fmt.Fprintf(&b, "\nLast %d weeks:\n", len(points)-start)
		for _, p := range points[start:] {
			fmt.Fprintf(&b, "  %s  %s\n", p.Time().UTC().Format("2006-01-02"), FormatMoney(p.Close))
		}
	}
	return b.String()
}

func formatMA(v float64, err error) string {
	if err != nil {
		return "n/a"
	}
	return FormatMoney(decimal.NewFromFloat(v))
}
