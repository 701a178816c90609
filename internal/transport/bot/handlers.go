package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/consts"
	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/pkg/botfmt"
	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/ports/errcode"
	"gopkg.in/telebot.v4"
)

const helpText = "/display - Shows all currently tracked cryptos\n" +
	"/snapshot - Shows current market price of currently tracking cryptos\n" +
	"/track X - Track X cryptocurrency (must be in abreviated form)\n" +
	"/drop X - Stop tracking X if already being tracked\n" +
	"/set N - Send the report every N minutes\n" +
	"/unset - Stop scheduled reports"

const (
	trackUsage = "Usage: /track <crypto>"
	dropUsage  = "Usage: /drop <crypto>"
	setUsage   = "Usage: /set <minutes>"
)

var ErrInvalidInterval = errors.New("invalid interval")

// handleStart - сбрасывает список чата, присылает справку и ставит авторассылку
func (b *Bot) handleStart(c telebot.Context) error {
	for _, msg := range b.replyStart(context.Background(), c.Chat().ID) {
		if err := c.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) handleHelp(c telebot.Context) error {
	return c.Send(helpText)
}

func (b *Bot) handleDisplay(c telebot.Context) error {
	return c.Send(b.replyDisplay(c.Chat().ID))
}

// handleSnapshot - отчёт по текущему списку чата
func (b *Bot) handleSnapshot(c telebot.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.snapTimeout)
	defer cancel()

	_ = c.Notify(telebot.Typing)
	return sendSplit(b.replySnapshot(ctx, c.Chat().ID), func(part string) error {
		return c.Send(part)
	})
}

func (b *Bot) handleTrack(c telebot.Context) error {
	return c.Send(b.replyTrack(c.Chat().ID, c.Args()))
}

func (b *Bot) handleDrop(c telebot.Context) error {
	return c.Send(b.replyDrop(c.Chat().ID, c.Args()))
}

func (b *Bot) handleSet(c telebot.Context) error {
	return c.Send(b.replySet(c.Chat().ID, c.Args()))
}

func (b *Bot) handleUnset(c telebot.Context) error {
	return c.Send(b.replyUnset(c.Chat().ID))
}

// Ответы собираются отдельно от telebot.Context, чтобы их можно было проверить без сети

func (b *Bot) replyStart(ctx context.Context, chatID int64) []string {
	_, replaced := b.cmd.Start(ctx, chatID)
	return []string{helpText, taskSet(replaced)}
}

func (b *Bot) replyDisplay(chatID int64) string {
	symbols, err := b.cmd.Display(chatID)
	if err != nil {
		return b.replyError(chatID, "/display", err, "")
	}
	return botfmt.FormatWatchlist(symbols)
}

func (b *Bot) replySnapshot(ctx context.Context, chatID int64) string {
	text, err := b.cmd.Snapshot(ctx, chatID)
	if err != nil {
		return b.replyError(chatID, "/snapshot", err, "")
	}
	return text
}

func (b *Bot) replyTrack(chatID int64, args []string) string {
	symbol := firstArg(args)
	if err := b.cmd.Track(chatID, symbol); err != nil {
		return b.replyError(chatID, "/track", err, trackUsage)
	}
	return fmt.Sprintf("%s added to the watchlist!", symbol)
}

func (b *Bot) replyDrop(chatID int64, args []string) string {
	symbol := firstArg(args)
	removed, err := b.cmd.Drop(chatID, symbol)
	if err != nil {
		return b.replyError(chatID, "/drop", err, dropUsage)
	}
	if removed == 0 {
		return fmt.Sprintf("%s is not in the watchlist.", symbol)
	}
	return fmt.Sprintf("%s removed from the watchlist!", symbol)
}

// replySet - авторассылка с периодом в минутах вместо часа по умолчанию
func (b *Bot) replySet(chatID int64, args []string) string {
	if len(args) != 1 {
		return setUsage
	}
	mins, err := parseMinutes(args[0])
	if err != nil {
		b.logger.Warn("bot./set invalid interval",
			slog.Int64("chat_id", chatID),
			slog.String("arg", args[0]))
		return setUsage
	}
	replaced, err := b.cmd.Enable(chatID, time.Duration(mins)*time.Minute)
	if err != nil {
		return b.replyError(chatID, "/set", err, setUsage)
	}
	return taskSet(replaced)
}

func taskSet(replaced bool) string {
	if replaced {
		return "Task successfully set! Old task was removed."
	}
	return "Task successfully set!"
}

func (b *Bot) replyUnset(chatID int64) string {
	if b.cmd.Disable(chatID) {
		return "Task successfully cancelled!"
	}
	return "You have no active Task."
}

// replyError - логирует ошибку команды и переводит её в текст для пользователя
func (b *Bot) replyError(chatID int64, command string, err error, usage string) string {
	code := errcode.FromError(err)
	level := slog.LevelWarn
	if code == errcode.Internal || code == errcode.Persistence {
		level = slog.LevelError
	}
	b.logger.Log(context.Background(), level, "bot.command failed",
		slog.Int64("chat_id", chatID),
		slog.String("command", command),
		slog.String("code", string(code)),
		slog.String("err", err.Error()))
	if code == errcode.MissingArgument && usage != "" {
		return usage
	}
	return translateBotError(code)
}

// firstArg - символ из аргументов команды в нормализованном виде; "" если аргумента нет
func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return consts.NormalizeSymbol(args[0])
}

// parseMinutes - парсит строку с минутами и валидирует значение (> 0)
func parseMinutes(s string) (int, error) {
	s = strings.TrimSpace(s)
	m, err := strconv.Atoi(s)
	if err != nil || m <= 0 {
		return 0, ErrInvalidInterval
	}
	return m, nil
}
