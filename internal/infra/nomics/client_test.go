package nomics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/config"
	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/domain"
	errs "github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/errors"
	"github.com/stretchr/testify/require"
)

const btcTicker = `[{
	"id": "BTC",
	"currency": "BTC",
	"price": "45000.1234",
	"price_date": "2021-05-01T00:00:00Z",
	"1h":  {"price_change": "550.25", "price_change_pct": "0.0123"},
	"1d":  {"price_change": "-100.5", "price_change_pct": "-0.0022"},
	"7d":  {"price_change": "2000", "price_change_pct": "0.0465"},
	"30d": {"price_change": "-3000.75", "price_change_pct": "-0.0625"}
}]`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.NomicsConfig{
		BaseURL:   srv.URL + "/v1",
		Token:     "secret-key",
		Timeout:   2 * time.Second,
		UserAgent: "test-agent",
	})
}

func request(symbols ...string) domain.QuoteRequest {
	return domain.QuoteRequest{
		Symbols:  symbols,
		Horizons: domain.Horizons,
		Convert:  "EUR",
		PerPage:  100,
		Page:     1,
	}
}

func TestFetchQuotes_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/currencies/ticker", r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, "secret-key", q.Get("key"))
		require.Equal(t, "BTC,ETH", q.Get("ids"))
		require.Equal(t, "1h,1d,7d,30d", q.Get("interval"))
		require.Equal(t, "EUR", q.Get("convert"))
		require.Equal(t, "100", q.Get("per-page"))
		require.Equal(t, "1", q.Get("page"))
		require.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write([]byte(btcTicker))
	})

	quotes, err := c.FetchQuotes(context.Background(), request("BTC", "ETH"))
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	q := quotes[0]
	require.Equal(t, "BTC", q.Symbol)
	require.Equal(t, "45000.1234", q.Price.String())
	require.Equal(t, "2021-05-01T00:00:00Z", q.PriceDate)
	require.Len(t, q.Changes, 4)
	require.Equal(t, "0.0123", q.Changes[domain.HorizonHour].Fraction.String())
	require.Equal(t, "550.25", q.Changes[domain.HorizonHour].Absolute.String())
	require.Equal(t, "-0.0625", q.Changes[domain.HorizonMonth].Fraction.String())
}

func TestFetchQuotes_NumericFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"currency":"ETH","price":3000.5,"price_date":"2021-05-01T00:00:00Z",
			"1h":{"price_change":1,"price_change_pct":0.001},
			"1d":{"price_change":2,"price_change_pct":0.002},
			"7d":{"price_change":3,"price_change_pct":0.003},
			"30d":{"price_change":4,"price_change_pct":0.004}}]`))
	})

	quotes, err := c.FetchQuotes(context.Background(), request("ETH"))
	require.NoError(t, err)
	require.Equal(t, "3000.5", quotes[0].Price.String())
}

func TestFetchQuotes_InvalidJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := c.FetchQuotes(context.Background(), request("BTC"))
	require.ErrorIs(t, err, errs.ErrDataFormat)
}

func TestFetchQuotes_MissingFields(t *testing.T) {
	cases := map[string]string{
		"price":    strings.Replace(btcTicker, `"price": "45000.1234",`, ``, 1),
		"interval": strings.Replace(btcTicker, `"7d":  {"price_change": "2000", "price_change_pct": "0.0465"},`, ``, 1),
		"pct":      strings.Replace(btcTicker, `"price_change_pct": "0.0123"`, `"price_change_pct": null`, 1),
		"date":     strings.Replace(btcTicker, `"price_date": "2021-05-01T00:00:00Z",`, ``, 1),
	}
	for name, body := range cases {
		body := body
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			})
			_, err := c.FetchQuotes(context.Background(), request("BTC"))
			require.ErrorIs(t, err, errs.ErrDataFormat)
		})
	}
}

func TestFetchQuotes_BadStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := c.FetchQuotes(context.Background(), request("BTC"))
	require.ErrorIs(t, err, errs.ErrUnavailable)
}

func TestFetchQuotes_TimeoutDoesNotLeakKey(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.FetchQuotes(ctx, request("BTC"))
	require.ErrorIs(t, err, errs.ErrUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotContains(t, err.Error(), "secret-key")
}
