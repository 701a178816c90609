package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/config"
	"gopkg.in/telebot.v4"
)

//go:generate mockgen -destination=mocks/commander.go -package=mocks . Commander

// Commander - команды чата, которые бот пробрасывает в сервис
type Commander interface {
	Start(ctx context.Context, chatID int64) ([]string, bool)
	Display(chatID int64) ([]string, error)
	Track(chatID int64, symbol string) error
	Drop(chatID int64, symbol string) (int, error)
	Snapshot(ctx context.Context, chatID int64) (string, error)
	Enable(chatID int64, interval time.Duration) (bool, error)
	Disable(chatID int64) bool
}

// Bot - Telegram-транспорт
type Bot struct {
	bot         *telebot.Bot
	cmd         Commander
	logger      *slog.Logger
	snapTimeout time.Duration
}

// NewTelebot - клиент Telegram с long polling
func NewTelebot(cfg config.TelegramConfig) (*telebot.Bot, error) {
	const defaultPollTimeout = 10 * time.Second

	timeout := cfg.LongPollTimeout
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	return telebot.NewBot(telebot.Settings{
		Token:  cfg.Token,
		Poller: &telebot.LongPoller{Timeout: timeout},
	})
}

// New - регистрирует обработчики команд на tb
func New(tb *telebot.Bot, cmd Commander, logger *slog.Logger) *Bot {
	bot := &Bot{
		bot:         tb,
		cmd:         cmd,
		logger:      logger,
		snapTimeout: 15 * time.Second,
	}

	// маршруты команд
	tb.Handle("/start", bot.handleStart)
	tb.Handle("/help", bot.handleHelp)
	tb.Handle("/display", bot.handleDisplay)
	tb.Handle("/snapshot", bot.handleSnapshot)
	tb.Handle("/track", bot.handleTrack)
	tb.Handle("/drop", bot.handleDrop)
	tb.Handle("/set", bot.handleSet)
	tb.Handle("/unset", bot.handleUnset)
	return bot
}

// Start публикует список команд и запускает polling
func (b *Bot) Start(_ context.Context) {
	if err := b.bot.SetCommands(commands); err != nil {
		// без меню команды всё равно работают
		b.logger.Warn("bot.set_commands failed", slog.String("err", err.Error()))
	}
	go b.bot.Start()
	b.logger.Info("bot.started", slog.String("username", b.bot.Me.Username))
}

// Stop останавливает бота
func (b *Bot) Stop() {
	b.bot.Stop()
}

var commands = []telebot.Command{
	{Text: "start", Description: "Reset the watchlist and enable hourly reports"},
	{Text: "help", Description: "Show available commands"},
	{Text: "display", Description: "Show tracked cryptos"},
	{Text: "snapshot", Description: "Show current prices of tracked cryptos"},
	{Text: "track", Description: "Track a crypto: /track BTC"},
	{Text: "drop", Description: "Stop tracking a crypto: /drop BTC"},
	{Text: "set", Description: "Report every N minutes: /set 60"},
	{Text: "unset", Description: "Disable scheduled reports"},
}
