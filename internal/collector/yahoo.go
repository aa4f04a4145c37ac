package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"StockHawk/internal/model"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// JSON paths into one element of quoteResponse.result.
const (
	pathQuoteResult   = "$.quoteResponse.result"
	pathQuoteError    = "$.quoteResponse.error"
	pathSymbol        = "$.symbol"
	pathPrice         = "$.regularMarketPrice"
	pathChange        = "$.regularMarketChange"
	pathPercentChange = "$.regularMarketChangePercent"
)

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	baseURL      string
	client       HTTPClient
	historyYears int
	SymbolMap    map[string]string // maps internal symbol to Yahoo ticker
}

// YahooOption configures a YahooFetcher.
type YahooOption func(*YahooFetcher)

// WithBaseURL overrides the Yahoo API host.
func WithBaseURL(baseURL string) YahooOption {
	return func(f *YahooFetcher) {
		f.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client used for all requests.
func WithHTTPClient(c HTTPClient) YahooOption {
	return func(f *YahooFetcher) {
		f.client = c
	}
}

// WithHistoryYears sets the lookback window of the weekly series.
func WithHistoryYears(years int) YahooOption {
	return func(f *YahooFetcher) {
		if years > 0 {
			f.historyYears = years
		}
	}
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string, timeout time.Duration, opts ...YahooOption) *YahooFetcher {
	f := &YahooFetcher{
		baseURL:      defaultYahooBaseURL,
		client:       newHTTPClient(proxyURL, timeout),
		historyYears: 2,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// FetchQuotes performs one batched quote lookup, then one weekly chart
// lookup per resolved symbol.
func (f *YahooFetcher) FetchQuotes(ctx context.Context, symbols []string) (map[string]model.FetchResult, error) {
	out := make(map[string]model.FetchResult, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}

	tickers := make([]string, 0, len(symbols))
	for _, s := range symbols {
		tickers = append(tickers, f.yahooSymbol(s))
	}

	quotes, err := f.fetchQuoteBatch(ctx, tickers)
	if err != nil {
		return nil, err
	}

	for _, s := range symbols {
		found, ok := quotes[strings.ToUpper(f.yahooSymbol(s))]
		if !ok {
			out[s] = model.FetchResult{Err: &InvalidSymbolError{Symbol: s}}
			continue
		}
		// several internal symbols may share one Yahoo ticker
		q := *found
		q.Symbol = s

		hist, err := f.fetchWeeklyHistory(ctx, s)
		if err != nil {
			return nil, err
		}
		if len(hist) == 0 {
			log.Printf("[WARN] no historical quotes for %q, will try again next cycle", s)
		}
		q.History = hist
		out[s] = model.FetchResult{Quote: &q}
	}
	return out, nil
}

func (f *YahooFetcher) get(ctx context.Context, u string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// fetchQuoteBatch returns quotes keyed by upper-cased Yahoo ticker. Tickers
// missing from the response, or returned without a price, are left out.
func (f *YahooFetcher) fetchQuoteBatch(ctx context.Context, tickers []string) (map[string]*model.RawQuote, error) {
	u := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", f.baseURL, url.QueryEscape(strings.Join(tickers, ",")))

	status, body, err := f.get(ctx, u)
	if err != nil {
		return nil, networkErr("yahoo quote", err)
	}
	if status != http.StatusOK {
		return nil, networkErr("yahoo quote", fmt.Errorf("status %d, body: %s", status, string(body)))
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, networkErr("yahoo quote decode", err)
	}
	if apiErr, err := jsonpath.Get(pathQuoteError, doc); err == nil && apiErr != nil {
		return nil, networkErr("yahoo quote", fmt.Errorf("api error: %v", apiErr))
	}
	raw, err := jsonpath.Get(pathQuoteResult, doc)
	if err != nil {
		return nil, networkErr("yahoo quote decode", err)
	}
	items, _ := raw.([]any)

	quotes := make(map[string]*model.RawQuote, len(items))
	for _, item := range items {
		sym, err := jsonpath.Get(pathSymbol, item)
		if err != nil {
			continue
		}
		ticker, ok := sym.(string)
		if !ok || ticker == "" {
			continue
		}
		price, err := decimalAt(pathPrice, item)
		if err != nil {
			// Yahoo echoes unknown tickers with no market fields.
			log.Printf("[WARN] yahoo quote %s has no price: %v", ticker, err)
			continue
		}
		change, _ := decimalAt(pathChange, item)
		pct, _ := decimalAt(pathPercentChange, item)
		quotes[strings.ToUpper(ticker)] = &model.RawQuote{
			Symbol:        ticker,
			Price:         price,
			Change:        change,
			PercentChange: pct,
		}
	}
	return quotes, nil
}

func decimalAt(path string, item any) (decimal.Decimal, error) {
	v, err := jsonpath.Get(path, item)
	if err != nil {
		return decimal.Zero, err
	}
	return toDecimal(v)
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case json.Number:
		return decimal.NewFromString(n.String())
	case float64:
		return decimal.NewFromFloat(n), nil
	case nil:
		return decimal.Zero, fmt.Errorf("null value")
	default:
		return decimal.Zero, fmt.Errorf("unexpected type %T", v)
	}
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*json.Number `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// fetchWeeklyHistory returns the weekly closes over the lookback window.
// Missing data is reported as an empty series; only transport failures,
// rate limiting and server errors are returned as errors.
func (f *YahooFetcher) fetchWeeklyHistory(ctx context.Context, symbol string) ([]model.HistoryPoint, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1wk&range=%dy",
		f.baseURL, url.PathEscape(f.yahooSymbol(symbol)), f.historyYears)

	status, body, err := f.get(ctx, u)
	if err != nil {
		return nil, networkErr("yahoo chart "+symbol, err)
	}
	if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
		return nil, networkErr("yahoo chart "+symbol, fmt.Errorf("status %d", status))
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var chart yahooChart
	if err := dec.Decode(&chart); err != nil {
		if status != http.StatusOK {
			log.Printf("[WARN] yahoo chart %s: status %d", symbol, status)
			return nil, nil
		}
		return nil, networkErr("yahoo chart decode "+symbol, err)
	}
	if chart.Chart.Error != nil {
		log.Printf("[WARN] yahoo chart %s: %s", symbol, chart.Chart.Error.Description)
		return nil, nil
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	points := make([]model.HistoryPoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // skip null bars (holidays etc.)
		}
		c, err := decimal.NewFromString(closes[i].String())
		if err != nil {
			continue
		}
		points = append(points, model.HistoryPoint{
			Timestamp: time.Unix(ts, 0).UnixMilli(),
			Close:     c,
		})
	}
	return points, nil
}
