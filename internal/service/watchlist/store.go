package watchlist

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/domain"
	errs "github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/errors"
	"github.com/jpillora/backoff"
	"github.com/samber/lo"
)

//go:generate mockgen -destination=mocks/persister.go -package=mocks . Persister

// Persister - долговременное хранилище: весь набор списков читается и пишется целиком
type Persister interface {
	Load(ctx context.Context) (domain.Watchlists, error)
	Save(ctx context.Context, lists domain.Watchlists) error
}

// Options - настройки хранилища
type Options struct {
	Defaults     []string // список после /start
	SaveAttempts int
	RetryMin     time.Duration
	RetryMax     time.Duration
}

// Store - списки отслеживания всех чатов в памяти.
// Все чтения и изменения идут под одним мьютексом: бот обрабатывает обновления конкурентно.
type Store struct {
	repo   Persister
	opts   Options
	logger *slog.Logger

	mu    sync.RWMutex
	lists domain.Watchlists

	saveMu sync.Mutex
}

// Load - поднимает хранилище из repo. Отсутствие данных - пустое хранилище;
// любая другая ошибка возвращается, молча стартовать с пустыми списками нельзя.
func Load(ctx context.Context, repo Persister, opts Options, logger *slog.Logger) (*Store, error) {
	lists, err := repo.Load(ctx)
	if err != nil {
		logger.Error("watchlist.load failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("load watchlists: %w", err)
	}
	if lists == nil {
		lists = domain.Watchlists{}
	}
	if opts.SaveAttempts <= 0 {
		opts.SaveAttempts = 1
	}
	if opts.RetryMin <= 0 {
		opts.RetryMin = 200 * time.Millisecond
	}
	if opts.RetryMax <= 0 {
		opts.RetryMax = 2 * time.Second
	}
	logger.Info("watchlist.loaded", slog.Int("chats", len(lists)))
	return &Store{
		repo:   repo,
		opts:   opts,
		logger: logger,
		lists:  lists,
	}, nil
}

// Save - пишет согласованный снимок всех списков. Неудачные попытки повторяются с backoff;
// итоговая ошибка оборачивает ErrPersistence.
func (s *Store) Save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	snapshot := s.Snapshot()

	b := &backoff.Backoff{Min: s.opts.RetryMin, Max: s.opts.RetryMax, Jitter: true}
	var err error
	for attempt := 1; attempt <= s.opts.SaveAttempts; attempt++ {
		if err = s.repo.Save(ctx, snapshot); err == nil {
			s.logger.Info("watchlist.saved", slog.Int("chats", len(snapshot)), slog.Int("attempt", attempt))
			return nil
		}
		s.logger.Error("watchlist.save failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", s.opts.SaveAttempts),
			slog.String("err", err.Error()))
		if attempt == s.opts.SaveAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: save aborted: %v (last error: %v)", errs.ErrPersistence, ctx.Err(), err)
		case <-time.After(b.Duration()):
		}
	}
	return fmt.Errorf("%w: save watchlists: %v", errs.ErrPersistence, err)
}

// Initialize - сбрасывает список чата к набору по умолчанию, прежние изменения теряются
func (s *Store) Initialize(chatID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lists[chatID] = append([]string{}, s.opts.Defaults...)
	return append([]string{}, s.opts.Defaults...)
}

// Get - копия списка чата или ErrNotInitialized. Пустой список - это не ошибка.
func (s *Store) Get(chatID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbols, ok := s.lists[chatID]
	if !ok {
		return nil, errs.ErrNotInitialized
	}
	return append([]string{}, symbols...), nil
}

// Add - добавляет символ в конец списка, дубликаты не проверяются
func (s *Store) Add(chatID int64, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbols, ok := s.lists[chatID]
	if !ok {
		return errs.ErrNotInitialized
	}
	s.lists[chatID] = append(symbols, symbol)
	return nil
}

// Remove - убирает все вхождения symbol (точное сравнение строк) и возвращает их число.
// Символа нет в списке - 0 без ошибки.
func (s *Store) Remove(chatID int64, symbol string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbols, ok := s.lists[chatID]
	if !ok {
		return 0, errs.ErrNotInitialized
	}
	kept := lo.Without(symbols, symbol)
	s.lists[chatID] = kept
	return len(symbols) - len(kept), nil
}

func (s *Store) IsInitialized(chatID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.lists[chatID]
	return ok
}

// Snapshot - глубокая копия всех списков
func (s *Store) Snapshot() domain.Watchlists {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lists.Clone()
}

// Chats - идентификаторы всех инициализированных чатов по возрастанию
func (s *Store) Chats() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.lists))
	for id := range s.lists {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lists)
}
