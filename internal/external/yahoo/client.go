// Package yahoo fetches daily bars from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/pkg/httputil"
	"github.com/wonny/frontier/pkg/logger"
)

// DefaultBaseURL is the public chart API host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client handles communication with the Yahoo chart API
// ⭐ SSOT: every Yahoo call goes through this client
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	suffix     string
}

// NewClient creates a Yahoo client. suffix is appended to bare symbols,
// e.g. ".IS" turns THYAO into THYAO.IS.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL, suffix string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("yahoo"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		suffix:     suffix,
	}
}

// Ticker maps a universe symbol to a Yahoo ticker. Symbols that already
// carry an exchange suffix or are indices (^XU100) are left alone.
func (c *Client) Ticker(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if c.suffix == "" || strings.Contains(symbol, ".") || strings.HasPrefix(symbol, "^") {
		return symbol
	}
	return symbol + c.suffix
}

// chartResponse is the subset of /v8/finance/chart we read.
// Quote arrays hold null for halted days, hence the pointers.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				Currency  string `json:"currency"`
				GMTOffset int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchBars fetches daily bars for symbol over the inclusive range [from, to]
// ⭐ SSOT: implements contracts.PriceProvider
func (c *Client) FetchBars(ctx context.Context, symbol string, from, to time.Time) ([]contracts.Bar, error) {
	ticker := c.Ticker(symbol)

	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", contracts.Day(from).Unix()))
	params.Set("period2", fmt.Sprintf("%d", contracts.Day(to).AddDate(0, 0, 1).Unix()))
	params.Set("interval", "1d")
	params.Set("events", "history")
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	var resp chartResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &resp); err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, contracts.NewDataUnavailable(symbol, "unknown ticker "+ticker, err)
		}
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}

	bars, err := parseChart(&resp)
	if err != nil {
		return nil, contracts.NewDataUnavailable(symbol, err.Error(), nil)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"ticker": ticker,
		"count":  len(bars),
	}).Debug("Fetched bars")

	return bars, nil
}

// parseChart converts the response into bars, skipping null closes
func parseChart(resp *chartResponse) ([]contracts.Bar, error) {
	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("%s: %s", e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, errors.New("no data returned")
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	offset := time.Duration(result.Meta.GMTOffset) * time.Second

	bars := make([]contracts.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bars = append(bars, contracts.Bar{
			// exchange-local calendar day of the session
			Date:   contracts.Day(time.Unix(ts, 0).UTC().Add(offset)),
			Open:   valueAt(quote.Open, i),
			High:   valueAt(quote.High, i),
			Low:    valueAt(quote.Low, i),
			Close:  *quote.Close[i],
			Volume: volumeAt(quote.Volume, i),
		})
	}

	if len(bars) == 0 {
		return nil, errors.New("empty bars")
	}
	return bars, nil
}

func valueAt(values []*float64, i int) float64 {
	if i < len(values) && values[i] != nil {
		return *values[i]
	}
	return 0
}

func volumeAt(values []*int64, i int) int64 {
	if i < len(values) && values[i] != nil {
		return *values[i]
	}
	return 0
}
