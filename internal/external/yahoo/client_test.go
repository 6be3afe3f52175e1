package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/pkg/httputil"
	"github.com/wonny/frontier/pkg/logger"
)

const chartJSON = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "THYAO.IS", "currency": "TRY", "gmtoffset": 10800},
      "timestamp": [1704178800, 1704265200, 1704351600],
      "indicators": {"quote": [{
        "open":   [250.0, 252.5, null],
        "high":   [255.0, 256.0, null],
        "low":    [249.0, 251.0, null],
        "close":  [253.5, 254.0, null],
        "volume": [1200000, 980000, null]
      }]}
    }],
    "error": null
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := httputil.New(logger.Nop(), 2*time.Second).DisableRetry()
	return NewClient(httpClient, logger.Nop(), server.URL, ".IS")
}

func TestTicker(t *testing.T) {
	c := NewClient(nil, logger.Nop(), "", ".IS")

	assert.Equal(t, "THYAO.IS", c.Ticker("thyao"))
	assert.Equal(t, "AAPL.US", c.Ticker("AAPL.US"))
	assert.Equal(t, "^XU100", c.Ticker("^XU100"))
}

func TestFetchBars(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v8/finance/chart/THYAO.IS"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "1704067200", r.URL.Query().Get("period1"))
		assert.Equal(t, "1704412800", r.URL.Query().Get("period2"))
		w.Write([]byte(chartJSON))
	})

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)

	bars, err := c.FetchBars(context.Background(), "THYAO", from, to)
	require.NoError(t, err)

	require.Len(t, bars, 2, "null close is skipped")
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, 253.5, bars[0].Close)
	assert.Equal(t, int64(980000), bars[1].Volume)
}

func TestFetchBars_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})

	_, err := c.FetchBars(context.Background(), "XXXXX", time.Now().AddDate(0, 0, -5), time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)

	asset, ok := contracts.UnavailableAsset(err)
	assert.True(t, ok)
	assert.Equal(t, "XXXXX", asset)
}

func TestFetchBars_ChartError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":{"code":"Bad Request","description":"Invalid period"}}}`))
	})

	_, err := c.FetchBars(context.Background(), "GARAN", time.Now().AddDate(0, 0, -5), time.Now())
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)
	assert.Contains(t, err.Error(), "Invalid period")
}

func TestParseChart_Empty(t *testing.T) {
	_, err := parseChart(&chartResponse{})
	assert.Error(t, err)
}
