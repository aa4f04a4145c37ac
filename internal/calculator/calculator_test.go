package calculator

import (
	"testing"

	"StockHawk/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func series(closes ...float64) []model.HistoryPoint {
	const week = int64(7 * 24 * 60 * 60 * 1000)
	out := make([]model.HistoryPoint, len(closes))
	for i, c := range closes {
		out[i] = model.HistoryPoint{Timestamp: int64(i) * week, Close: decimal.NewFromFloat(c)}
	}
	return out
}

func TestCalculateSMA(t *testing.T) {
	v, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	require.InDelta(t, 4.0, v, 1e-9)

	_, err = CalculateSMA([]float64{1, 2}, 3)
	require.Error(t, err)

	_, err = CalculateSMA([]float64{1, 2}, 0)
	require.Error(t, err)
}

func TestCalculateMA20w(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	v, err := CalculateMA20w(series(closes...))
	require.NoError(t, err)
	// mean of 11..30
	require.InDelta(t, 20.5, v, 1e-9)

	_, err = CalculateMA50w(series(closes...))
	require.Error(t, err)
}

func TestCalculateRange(t *testing.T) {
	pts := series(50, 10, 30, 20, 40)

	high, low, err := CalculateRange(pts, 3)
	require.NoError(t, err)
	require.Equal(t, 40.0, high)
	require.Equal(t, 20.0, low)

	high, low, err = CalculateRange(pts, 100)
	require.NoError(t, err)
	require.Equal(t, 50.0, high)
	require.Equal(t, 10.0, low)

	_, _, err = CalculateRange(nil, 3)
	require.Error(t, err)
}

func TestCalculatePosition(t *testing.T) {
	pos, err := CalculatePosition(15, 20, 10)
	require.NoError(t, err)
	require.InDelta(t, 0.5, pos, 1e-9)

	pos, _ = CalculatePosition(25, 20, 10)
	require.Equal(t, 1.0, pos)

	pos, _ = CalculatePosition(5, 20, 10)
	require.Equal(t, 0.0, pos)

	pos, _ = CalculatePosition(5, 10, 10)
	require.Equal(t, 0.5, pos)

	_, err = CalculatePosition(5, 1, 10)
	require.Error(t, err)
}

func TestCalculateRSI(t *testing.T) {
	v, err := CalculateRSI(series(1, 2, 3), 14)
	require.NoError(t, err)
	require.Equal(t, 50.0, v)

	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(i)
	}
	v, err = CalculateRSI(series(rising...), 14)
	require.NoError(t, err)
	require.Equal(t, 100.0, v)

	falling := make([]float64, 20)
	for i := range falling {
		falling[i] = float64(100 - i)
	}
	v, err = CalculateRSI(series(falling...), 14)
	require.NoError(t, err)
	require.InDelta(t, 0.0, v, 1e-9)

	_, err = CalculateRSI(series(1, 2), 0)
	require.Error(t, err)
}
