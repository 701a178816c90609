package botfmt

import (
	"strings"
	"testing"

	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func btcQuote() domain.Quote {
	return domain.Quote{
		Symbol:    "BTC",
		Price:     dec("45000.1234"),
		PriceDate: "2021-05-01T00:00:00Z",
		Changes: map[domain.Horizon]domain.Change{
			domain.HorizonHour:  {Fraction: dec("0.0123"), Absolute: dec("550.25")},
			domain.HorizonDay:   {Fraction: dec("-0.05"), Absolute: dec("-2368.4")},
			domain.HorizonWeek:  {Fraction: dec("0.1"), Absolute: dec("4090.92")},
			domain.HorizonMonth: {Fraction: dec("-0.254321"), Absolute: dec("-15340.1")},
		},
	}
}

func TestFormatQuote(t *testing.T) {
	got, err := FormatQuote(btcQuote())
	require.NoError(t, err)

	want := strings.Join([]string{
		"BTC was 45000.123€ at 2021-05-01T00:00:00Z",
		"1h_:   1.230% 550.2500",
		"1d_:  -5.000% -2368.4000",
		"7d_:  10.000% 4090.9200",
		"30d: -25.432% -15340.1000",
	}, "\n")
	require.Equal(t, want, got)
}

func TestFormatQuote_MissingHorizon(t *testing.T) {
	q := btcQuote()
	delete(q.Changes, domain.HorizonWeek)

	_, err := FormatQuote(q)
	require.ErrorContains(t, err, "7d")
}

func TestHorizonLabels(t *testing.T) {
	var labels []string
	for _, h := range domain.Horizons {
		labels = append(labels, h.Label())
	}
	require.Equal(t, []string{"1h_", "1d_", "7d_", "30d"}, labels)
}

func TestFormatWatchlist(t *testing.T) {
	require.Equal(t, "Nothing being tracked.", FormatWatchlist(nil))
	require.Equal(t, "BTC,ETH,DOGE", FormatWatchlist([]string{"BTC", "ETH", "DOGE"}))
}

// Округление идёт по точному десятичному значению: половина - от нуля, отрицательного нуля нет
func TestFormatChange_DecimalRounding(t *testing.T) {
	require.Equal(t, "1h_:   0.000% 0.0000",
		FormatChange(domain.HorizonHour, domain.Change{Fraction: dec("-0.000000001"), Absolute: dec("-0.00001")}))
	require.Equal(t, "1d_:   0.013% 0.0001",
		FormatChange(domain.HorizonDay, domain.Change{Fraction: dec("0.000125"), Absolute: dec("0.00005")}))
	require.Equal(t, "7d_:  -0.013% -0.0001",
		FormatChange(domain.HorizonWeek, domain.Change{Fraction: dec("-0.000125"), Absolute: dec("-0.00005")}))
}
