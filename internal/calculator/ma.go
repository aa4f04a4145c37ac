package calculator

import (
	"errors"

	"StockHawk/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period), nil
}

// CalculateMA20w returns the 20-week simple moving average of a weekly series.
func CalculateMA20w(weekly []model.HistoryPoint) (float64, error) {
	return CalculateSMA(Closes(weekly), 20)
}

// CalculateMA50w returns the 50-week simple moving average of a weekly series.
func CalculateMA50w(weekly []model.HistoryPoint) (float64, error) {
	return CalculateSMA(Closes(weekly), 50)
}

// Closes extracts close prices in series order. Callers sort first.
func Closes(points []model.HistoryPoint) []float64 {
	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Close.InexactFloat64()
	}
	return closes
}
