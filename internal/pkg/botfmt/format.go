package botfmt

import (
	"fmt"
	"strings"

	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/domain"
	"github.com/shopspring/decimal"
)

// EmptyReport - единственный ответ на отчёт по пустому списку
const EmptyReport = "No cryptos being tracked. Add some to the watchlist"

var hundred = decimal.NewFromInt(100)

// FormatQuote - блок из пяти строк: цена и изменение за 1h, 1d, 7d, 30d.
// Отсутствующее окно - ошибка, частичный блок не строим.
func FormatQuote(q domain.Quote) (string, error) {
	lines := make([]string, 0, 1+len(domain.Horizons))
	lines = append(lines, fmt.Sprintf("%s was %s€ at %s", q.Symbol, q.Price.StringFixed(3), q.PriceDate))
	for _, h := range domain.Horizons {
		ch, ok := q.Changes[h]
		if !ok {
			return "", fmt.Errorf("%s: no %s change", q.Symbol, h)
		}
		lines = append(lines, FormatChange(h, ch))
	}
	return strings.Join(lines, "\n"), nil
}

// FormatChange - "1h_:   1.230% 550.2500"
func FormatChange(h domain.Horizon, ch domain.Change) string {
	pct := ch.Fraction.Mul(hundred).StringFixed(3)
	return fmt.Sprintf("%s: %7s%% %s", h.Label(), pct, ch.Absolute.StringFixed(4))
}

// FormatMissing - строка для символа, по которому API ничего не вернуло
func FormatMissing(symbol string) string {
	return symbol + ": no market data"
}

// FormatWatchlist - список для /display
func FormatWatchlist(symbols []string) string {
	if len(symbols) == 0 {
		return "Nothing being tracked."
	}
	return strings.Join(symbols, ",")
}

// JoinBlocks - блоки отчёта разделяются одной пустой строкой
func JoinBlocks(blocks []string) string {
	return strings.Join(blocks, "\n\n")
}
