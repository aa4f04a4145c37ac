package history

import (
	"testing"

	"StockHawk/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func pt(ts int64, c string) model.HistoryPoint {
	return model.HistoryPoint{Timestamp: ts, Close: decimal.RequireFromString(c)}
}

func TestEncode_Format(t *testing.T) {
	got := Encode([]model.HistoryPoint{pt(1700000000000, "150.25"), pt(1699395200000, "148")})
	require.Equal(t, "1700000000000, 150.25\n1699395200000, 148\n", got)
}

func TestEncode_Empty(t *testing.T) {
	require.Equal(t, "", Encode(nil))
	require.Equal(t, "", Encode([]model.HistoryPoint{}))
}

func TestDecode_RoundTripPreservesOrder(t *testing.T) {
	in := []model.HistoryPoint{
		pt(1700000000000, "150.25"),
		pt(1698790400000, "139.5"),
		pt(1699395200000, "148.0125"),
	}
	out, err := Decode(Encode(in))
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		require.Equal(t, in[i].Timestamp, out[i].Timestamp)
		require.Truef(t, in[i].Close.Equal(out[i].Close), "point %d: want %s, got %s", i, in[i].Close, out[i].Close)
	}
}

func TestDecode_Blank(t *testing.T) {
	out, err := Decode("  \n")
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []string{
		"abc, 1.0\n",
		"1700000000000, notaprice\n",
		"1700000000000\n",
		"1, 2, 3\n",
	}
	for _, blob := range tests {
		_, err := Decode(blob)
		require.Errorf(t, err, "blob %q should fail", blob)
	}
}

func TestSort_AscendingAndStable(t *testing.T) {
	points := []model.HistoryPoint{
		pt(30, "3"),
		pt(10, "1"),
		pt(20, "2"),
		pt(20, "9"),
		pt(5, "0.5"),
	}
	Sort(points)

	want := []int64{5, 10, 20, 20, 30}
	for i, ts := range want {
		require.Equal(t, ts, points[i].Timestamp)
	}
	// equal timestamps keep input order
	require.Equal(t, "2", points[2].Close.String())
	require.Equal(t, "9", points[3].Close.String())
}

func TestSorted_DoesNotMutateInput(t *testing.T) {
	in := []model.HistoryPoint{pt(2, "2"), pt(1, "1")}
	out := Sorted(in)
	require.Equal(t, int64(2), in[0].Timestamp)
	require.Equal(t, int64(1), out[0].Timestamp)
}
