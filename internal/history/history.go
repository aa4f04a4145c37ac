// Package history converts weekly price series to and from the text blob
// stored alongside each quote record.
//
// The blob holds one "<millis>, <close>" pair per line. Encoding preserves
// input order; consumers must call Sort before charting.
package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"StockHawk/internal/model"

	"github.com/shopspring/decimal"
)

// Encode serializes points in the order given.
func Encode(points []model.HistoryPoint) string {
	if len(points) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range points {
		b.WriteString(strconv.FormatInt(p.Timestamp, 10))
		b.WriteString(", ")
		b.WriteString(p.Close.String())
		b.WriteString("\n")
	}
	return b.String()
}

// Decode parses a blob produced by Encode. Blank input yields nil.
func Decode(blob string) ([]model.HistoryPoint, error) {
	if strings.TrimSpace(blob) == "" {
		return nil, nil
	}
	r := csv.NewReader(strings.NewReader(blob))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = 2

	var points []model.HistoryPoint
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		line, _ := r.FieldPos(0)
		ts, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode history line %d: timestamp: %w", line, err)
		}
		closePrice, err := decimal.NewFromString(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, fmt.Errorf("decode history line %d: close: %w", line, err)
		}
		points = append(points, model.HistoryPoint{Timestamp: ts, Close: closePrice})
	}
	return points, nil
}

// Sort orders points ascending by timestamp in place. Points sharing a
// timestamp keep their relative order.
func Sort(points []model.HistoryPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})
}

// Sorted returns an ascending copy, leaving the input untouched.
func Sorted(points []model.HistoryPoint) []model.HistoryPoint {
	out := append([]model.HistoryPoint(nil), points...)
	Sort(out)
	return out
}
