package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	errs "github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/errors"
	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/scheduler"
)

//go:generate mockgen -destination=mocks/deps.go -package=mocks . WatchlistStore,Reporter,JobScheduler,Sender

// WatchlistStore - списки отслеживания чатов
type WatchlistStore interface {
	Initialize(chatID int64) []string
	Get(chatID int64) ([]string, error)
	Add(chatID int64, symbol string) error
	Remove(chatID int64, symbol string) (int, error)
	Chats() []int64
}

// Reporter - текст отчёта по списку символов
type Reporter interface {
	Render(ctx context.Context, symbols []string) (string, error)
}

// JobScheduler - не больше одной периодической задачи на чат
type JobScheduler interface {
	Schedule(chatID int64, interval time.Duration, job scheduler.Job) bool
	Cancel(chatID int64) bool
}

// Sender - отправка текста в чат
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type Service struct {
	store       WatchlistStore
	reporter    Reporter
	jobs        JobScheduler
	sender      Sender
	interval    time.Duration
	sendTimeout time.Duration
	log         *slog.Logger
}

func New(store WatchlistStore, reporter Reporter, jobs JobScheduler, sender Sender, interval time.Duration, log *slog.Logger) *Service {
	if interval <= 0 {
		interval = scheduler.DefaultInterval
	}
	return &Service{
		store:       store,
		reporter:    reporter,
		jobs:        jobs,
		sender:      sender,
		interval:    interval,
		sendTimeout: 10 * time.Second,
		log:         log,
	}
}

// Start - /start: сбрасывает список к набору по умолчанию и ставит авторассылку.
// replaced - у чата уже была задача, и она заменена.
func (s *Service) Start(_ context.Context, chatID int64) (symbols []string, replaced bool) {
	symbols = s.store.Initialize(chatID)
	replaced = s.jobs.Schedule(chatID, s.interval, s.job(chatID))
	s.log.Info("subscriptions.start",
		slog.Int64("chat_id", chatID),
		slog.Int("symbols", len(symbols)),
		slog.Bool("replaced", replaced))
	return symbols, replaced
}

// Display - текущий список чата
func (s *Service) Display(chatID int64) ([]string, error) {
	return s.store.Get(chatID)
}

// Track - добавляет символ в конец списка.
// Неинициализированный чат проверяется раньше пустого аргумента.
func (s *Service) Track(chatID int64, symbol string) error {
	if _, err := s.store.Get(chatID); err != nil {
		return err
	}
	if symbol == "" {
		return errs.ErrMissingArgument
	}
	if err := s.store.Add(chatID, symbol); err != nil {
		return err
	}
	s.log.Info("subscriptions.track", slog.Int64("chat_id", chatID), slog.String("symbol", symbol))
	return nil
}

// Drop - убирает символ из списка; removed == 0, если его там не было
func (s *Service) Drop(chatID int64, symbol string) (removed int, err error) {
	if _, err := s.store.Get(chatID); err != nil {
		return 0, err
	}
	if symbol == "" {
		return 0, errs.ErrMissingArgument
	}
	removed, err = s.store.Remove(chatID, symbol)
	if err != nil {
		return 0, err
	}
	s.log.Info("subscriptions.drop",
		slog.Int64("chat_id", chatID),
		slog.String("symbol", symbol),
		slog.Int("removed", removed))
	return removed, nil
}

// Snapshot - отчёт по текущему списку чата
func (s *Service) Snapshot(ctx context.Context, chatID int64) (string, error) {
	symbols, err := s.store.Get(chatID)
	if err != nil {
		return "", err
	}
	return s.reporter.Render(ctx, symbols)
}

// Enable - ставит (или заменяет) авторассылку с заданным периодом
func (s *Service) Enable(chatID int64, interval time.Duration) (replaced bool, err error) {
	if _, err := s.store.Get(chatID); err != nil {
		return false, err
	}
	if interval <= 0 {
		interval = s.interval
	}
	replaced = s.jobs.Schedule(chatID, interval, s.job(chatID))
	s.log.Info("subscriptions.enable ok",
		slog.Int64("chat_id", chatID),
		slog.Duration("interval", interval),
		slog.Bool("replaced", replaced))
	return replaced, nil
}

// Disable - снимает авторассылку; false - снимать было нечего
func (s *Service) Disable(chatID int64) bool {
	removed := s.jobs.Cancel(chatID)
	s.log.Info("subscriptions.disable", slog.Int64("chat_id", chatID), slog.Bool("removed", removed))
	return removed
}

// Resume - после рестарта заново ставит авторассылку всем известным чатам
func (s *Service) Resume(_ context.Context) int {
	chats := s.store.Chats()
	for _, chatID := range chats {
		s.jobs.Schedule(chatID, s.interval, s.job(chatID))
	}
	s.log.Info("subscriptions.resumed", slog.Int("chats", len(chats)))
	return len(chats)
}

// Dispatch - одна итерация авторассылки для чата: отчёт и отправка.
// Ошибка логируется и возвращается; в этом цикле чат остаётся без отчёта.
func (s *Service) Dispatch(ctx context.Context, chatID int64) error {
	started := time.Now()
	text, err := s.Snapshot(ctx, chatID)
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, errs.ErrNotInitialized) {
			level = slog.LevelWarn
		}
		s.log.Log(ctx, level, "subscriptions.report failed",
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()))
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()
	if err := s.sender.SendText(sendCtx, chatID, text); err != nil {
		s.log.Error("subscriptions.send failed",
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()))
		return err
	}
	s.log.Debug("subscriptions.dispatch_done",
		slog.Int64("chat_id", chatID),
		slog.Duration("duration", time.Since(started)))
	return nil
}

func (s *Service) job(chatID int64) scheduler.Job {
	return func(ctx context.Context) {
		_ = s.Dispatch(ctx, chatID)
	}
}
