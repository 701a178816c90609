package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/domain"
	errs "github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/errors"
	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/pkg/botfmt"
	"github.com/samber/lo"
)

// Отчёт по списку монет: один пакетный запрос к API и текст по каждой монете

//go:generate mockgen -destination=mocks/quote_provider.go -package=mocks . QuoteProvider

// QuoteProvider - внешний источник котировок (Nomics API)
type QuoteProvider interface {
	FetchQuotes(ctx context.Context, req domain.QuoteRequest) ([]domain.Quote, error)
}

type Config struct {
	Convert string
	PerPage int
	Timeout time.Duration
}

type Service struct {
	provider QuoteProvider
	cfg      Config
	logger   *slog.Logger
}

func NewService(provider QuoteProvider, cfg Config, logger *slog.Logger) *Service {
	if cfg.Convert == "" {
		cfg.Convert = "EUR"
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = 100
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Service{provider: provider, cfg: cfg, logger: logger}
}

// Render - текст отчёта по symbols.
// Пустой список - фиксированная фраза без обращения к API.
// Символы, по которым API ничего не вернуло, идут в конце строкой "X: no market data".
func (s *Service) Render(ctx context.Context, symbols []string) (string, error) {
	if len(symbols) == 0 {
		return botfmt.EmptyReport, nil
	}

	ids := lo.Uniq(symbols)
	req := domain.QuoteRequest{
		Symbols:  ids,
		Horizons: domain.Horizons,
		Convert:  s.cfg.Convert,
		PerPage:  s.cfg.PerPage,
		Page:     1,
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	started := time.Now()
	quotes, err := s.provider.FetchQuotes(fetchCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, errs.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", errs.ErrUnavailable, err)
		}
		s.logger.Error("report.fetch failed",
			slog.Int("symbols", len(ids)),
			slog.String("err", err.Error()))
		return "", err
	}
	s.logger.Debug("report.quotes_fetched",
		slog.Int("requested", len(ids)),
		slog.Int("received", len(quotes)),
		slog.Duration("duration", time.Since(started)))

	blocks := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(quotes))
	for _, q := range quotes {
		block, err := botfmt.FormatQuote(q)
		if err != nil {
			s.logger.Error("report.format failed", slog.String("symbol", q.Symbol), slog.String("err", err.Error()))
			return "", fmt.Errorf("%w: %v", errs.ErrDataFormat, err)
		}
		blocks = append(blocks, block)
		seen[strings.ToUpper(q.Symbol)] = struct{}{}
	}

	for _, sym := range ids {
		if _, ok := seen[strings.ToUpper(sym)]; !ok {
			s.logger.Warn("report.symbol_missing", slog.String("symbol", sym))
			blocks = append(blocks, botfmt.FormatMissing(sym))
		}
	}
	return botfmt.JoinBlocks(blocks), nil
}
