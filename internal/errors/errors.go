package errors

import "errors"

var (
	// ErrNotInitialized - чат ещё не выполнял /start
	ErrNotInitialized = errors.New("watchlist not initialized")
	// ErrMissingArgument - команде нужен символ, а он не передан
	ErrMissingArgument = errors.New("missing argument")
	// ErrDataFormat - ответ API курсов не удалось разобрать
	ErrDataFormat = errors.New("invalid market data format")
	// ErrUnavailable - API курсов недоступно (сеть, таймаут, не 200)
	ErrUnavailable = errors.New("market data unavailable")
	// ErrPersistence - ошибка чтения/записи хранилища списков
	ErrPersistence = errors.New("persistence failure")
	ErrInternal    = errors.New("internal error")
)
