package calculator

import (
	"errors"
	"math"

	"StockHawk/internal/model"
)

// WeeksPerYear is the number of weekly bars in a 52-week window.
const WeeksPerYear = 52

// CalculateRange returns the highest and lowest close over the last n points.
func CalculateRange(points []model.HistoryPoint, n int) (high, low float64, err error) {
	if len(points) == 0 {
		return 0, 0, errors.New("no history points provided")
	}
	if n <= 0 {
		return 0, 0, errors.New("window must be positive")
	}
	start := len(points) - n
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, c := range Closes(points[start:]) {
		high = math.Max(high, c)
		low = math.Min(low, c)
	}
	return high, low, nil
}

// Calculate52WeekRange is CalculateRange over one year of weekly closes.
func Calculate52WeekRange(weekly []model.HistoryPoint) (high, low float64, err error) {
	return CalculateRange(weekly, WeeksPerYear)
}

// CalculatePosition returns where the current price sits within [low, high] (0.0~1.0).
func CalculatePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	return math.Min(math.Max(pos, 0), 1), nil
}
