package domain

import "github.com/shopspring/decimal"

// Horizon - окно, за которое считается изменение цены
type Horizon string

const (
	HorizonHour  Horizon = "1h"
	HorizonDay   Horizon = "1d"
	HorizonWeek  Horizon = "7d"
	HorizonMonth Horizon = "30d"
)

// Horizons - фиксированный порядок окон в отчёте
var Horizons = []Horizon{HorizonHour, HorizonDay, HorizonWeek, HorizonMonth}

// Label - подпись окна в отчёте, выровненная до трёх символов: 1h_, 1d_, 7d_, 30d
func (h Horizon) Label() string {
	label := string(h)
	for len(label) < 3 {
		label += "_"
	}
	return label
}

// Change - изменение цены за окно
type Change struct {
	Fraction decimal.Decimal // доля: 0.0123 = +1.23%
	Absolute decimal.Decimal // абсолютное изменение в валюте котировки
}

// Quote - снимок цены одной монеты на момент запроса, не сохраняется
type Quote struct {
	Symbol    string
	Price     decimal.Decimal
	PriceDate string // время цены как его вернул API
	Changes   map[Horizon]Change
}

// QuoteRequest - один пакетный запрос к API курсов
type QuoteRequest struct {
	Symbols  []string
	Horizons []Horizon
	Convert  string
	PerPage  int
	Page     int
}
