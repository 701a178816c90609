package consts

import "strings"

// DefaultSymbols - набор, который получает чат после /start, если в конфиге не задан свой
var DefaultSymbols = []string{"BTC", "ETH", "BNB", "ADA"}

// NormalizeSymbol - приводит ввод пользователя к виду, в котором символы хранятся и уходят в API
func NormalizeSymbol(sym string) string {
	return strings.ToUpper(strings.TrimSpace(sym))
}
