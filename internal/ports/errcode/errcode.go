package errcode

import (
	"errors"

	errs "github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/errors"
)

type Code string

const (
	NotInitialized  Code = "NOT_INITIALIZED"
	MissingArgument Code = "MISSING_ARGUMENT"

	DataFormat  Code = "DATA_FORMAT"
	Unavailable Code = "UNAVAILABLE"

	Persistence Code = "PERSISTENCE"
	BadRequest  Code = "BAD_REQUEST"
	Internal    Code = "INTERNAL_ERROR"
)

// FromError - переводит ошибку сервисного слоя в стабильный код для транспорта
func FromError(err error) Code {
	switch {
	case errors.Is(err, errs.ErrNotInitialized):
		return NotInitialized
	case errors.Is(err, errs.ErrMissingArgument):
		return MissingArgument
	case errors.Is(err, errs.ErrDataFormat):
		return DataFormat
	case errors.Is(err, errs.ErrUnavailable):
		return Unavailable
	case errors.Is(err, errs.ErrPersistence):
		return Persistence
	default:
		return Internal
	}
}
