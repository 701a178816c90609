package nomics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/config"
	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/domain"
	errs "github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

type Client struct {
	cfg        config.NomicsConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// tickerResponse - элемент ответа /currencies/ticker. Числа API отдаёт строками.
type tickerResponse struct {
	ID        string                  `json:"id"`
	Currency  string                  `json:"currency"`
	Price     decimal.NullDecimal     `json:"price"`
	PriceDate string                  `json:"price_date"`
	Intervals map[string]intervalData `json:"-"`
}

type intervalData struct {
	PriceChange    decimal.NullDecimal `json:"price_change"`
	PriceChangePct decimal.NullDecimal `json:"price_change_pct"`
}

// UnmarshalJSON - окна приходят ключами верхнего уровня: "1h", "1d", "7d", "30d"
func (t *tickerResponse) UnmarshalJSON(data []byte) error {
	type plain tickerResponse
	if err := json.Unmarshal(data, (*plain)(t)); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Intervals = make(map[string]intervalData)
	for _, h := range domain.Horizons {
		msg, ok := raw[string(h)]
		if !ok || string(msg) == "null" {
			continue
		}
		var iv intervalData
		if err := json.Unmarshal(msg, &iv); err != nil {
			return fmt.Errorf("interval %s: %w", h, err)
		}
		t.Intervals[string(h)] = iv
	}
	return nil
}

// NewClient - клиент Nomics API с таймаутом и ограничением частоты запросов.
func NewClient(cfg config.NomicsConfig) *Client {
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// FetchQuotes - один пакетный запрос по всем символам.
// Сеть, таймаут и не-200 - ErrUnavailable; неразборчивый ответ или пропуски полей - ErrDataFormat.
func (c *Client) FetchQuotes(ctx context.Context, req domain.QuoteRequest) ([]domain.Quote, error) {
	u, err := c.tickerURL(req)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", errs.ErrUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", errs.ErrUnavailable, redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: request failed: %s", errs.ErrUnavailable, resp.Status)
	}

	var data []tickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: reading response: %w", errs.ErrUnavailable, err)
		}
		return nil, fmt.Errorf("%w: decoding response: %v", errs.ErrDataFormat, err)
	}

	out := make([]domain.Quote, 0, len(data))
	for _, d := range data {
		q, err := d.toQuote(req.Horizons)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrDataFormat, err)
		}
		out = append(out, q)
	}
	return out, nil
}

func (c *Client) tickerURL(req domain.QuoteRequest) (string, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	u = u.JoinPath("currencies", "ticker")

	intervals := make([]string, 0, len(req.Horizons))
	for _, h := range req.Horizons {
		intervals = append(intervals, string(h))
	}

	q := u.Query()
	q.Set("key", c.cfg.Token)
	q.Set("ids", strings.Join(req.Symbols, ","))
	q.Set("interval", strings.Join(intervals, ","))
	q.Set("convert", req.Convert)
	q.Set("per-page", strconv.Itoa(req.PerPage))
	q.Set("page", strconv.Itoa(req.Page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (t tickerResponse) toQuote(horizons []domain.Horizon) (domain.Quote, error) {
	symbol := t.Currency
	if symbol == "" {
		symbol = t.ID
	}
	if symbol == "" {
		return domain.Quote{}, errors.New("quote without currency")
	}
	if !t.Price.Valid {
		return domain.Quote{}, fmt.Errorf("%s: missing price", symbol)
	}
	if t.PriceDate == "" {
		return domain.Quote{}, fmt.Errorf("%s: missing price_date", symbol)
	}

	q := domain.Quote{
		Symbol:    symbol,
		Price:     t.Price.Decimal,
		PriceDate: t.PriceDate,
		Changes:   make(map[domain.Horizon]domain.Change, len(horizons)),
	}
	for _, h := range horizons {
		iv, ok := t.Intervals[string(h)]
		if !ok {
			return domain.Quote{}, fmt.Errorf("%s: missing %s interval", symbol, h)
		}
		if !iv.PriceChange.Valid || !iv.PriceChangePct.Valid {
			return domain.Quote{}, fmt.Errorf("%s: incomplete %s interval", symbol, h)
		}
		q.Changes[h] = domain.Change{
			Fraction: iv.PriceChangePct.Decimal,
			Absolute: iv.PriceChange.Decimal,
		}
	}
	return q, nil
}

// redact - url.Error содержит полный адрес вместе с key, в логи он попасть не должен
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return &url.Error{Op: uerr.Op, URL: "[redacted]", Err: uerr.Err}
	}
	return err
}
