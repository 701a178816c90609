package httptransport

import (
	"errors"
	"net/http"

	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/ports/errcode"
)

var errBadChatID = errors.New("bad chat id")

func FromServiceError(err error) errcode.Code {
	if errors.Is(err, errBadChatID) {
		return errcode.BadRequest
	}
	return errcode.FromError(err)
}

func translateHTTPError(code errcode.Code) (int, string) {
	switch code {
	case errcode.BadRequest:
		return http.StatusBadRequest, "bad_chat_id"
	case errcode.NotInitialized:
		return http.StatusNotFound, "not_initialized"
	case errcode.Unavailable:
		return http.StatusBadGateway, "market_data_unavailable"
	case errcode.DataFormat:
		return http.StatusBadGateway, "invalid_market_data"
	default:
		return http.StatusInternalServerError, "internal_server_error"
	}
}
