package bot

import "github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/ports/errcode"

func translateBotError(code errcode.Code) string {
	switch code {
	case errcode.NotInitialized:
		return "type /start to initialize tracking"
	case errcode.Unavailable, errcode.DataFormat:
		return "Market data is unavailable right now, try again later."
	case errcode.MissingArgument:
		return "Missing argument, see /help"
	default:
		return "Internal error, try again later."
	}
}
