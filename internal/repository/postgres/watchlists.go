package postgres

import (
	"context"
	"fmt"

	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/domain"
	errs "github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WatchlistRepo - хранение списков в таблице watchlists (symbols TEXT[]).
// Как и файловый вариант, читается целиком при старте и пишется целиком при остановке.
type WatchlistRepo struct {
	db *pgxpool.Pool
}

func NewWatchlistRepo(db *pgxpool.Pool) *WatchlistRepo {
	return &WatchlistRepo{db: db}
}

// EnsureSchema - создаёт таблицу, если её ещё нет
func (r *WatchlistRepo) EnsureSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS watchlists (
		chat_id    BIGINT PRIMARY KEY,
		symbols    TEXT[] NOT NULL DEFAULT '{}',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("%w: ensure schema: %v", errs.ErrPersistence, err)
	}
	return nil
}

// Load - все списки из таблицы
func (r *WatchlistRepo) Load(ctx context.Context) (domain.Watchlists, error) {
	query := `SELECT chat_id, symbols FROM watchlists`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query watchlists: %v", errs.ErrPersistence, err)
	}
	defer rows.Close()

	out := make(domain.Watchlists)
	for rows.Next() {
		var (
			chatID  int64
			symbols []string
		)
		if err := rows.Scan(&chatID, &symbols); err != nil {
			return nil, fmt.Errorf("%w: scan watchlist: %v", errs.ErrPersistence, err)
		}
		if symbols == nil {
			symbols = []string{}
		}
		out[chatID] = symbols
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read watchlists: %v", errs.ErrPersistence, err)
	}
	return out, nil
}

// Save - upsert каждого чата одной транзакцией через pgx.Batch.
// Чаты из хранилища не удаляются, поэтому DELETE не нужен.
func (r *WatchlistRepo) Save(ctx context.Context, lists domain.Watchlists) error {
	query := `
	INSERT INTO watchlists (chat_id, symbols, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (chat_id)
	DO UPDATE SET symbols = EXCLUDED.symbols,
	              updated_at = EXCLUDED.updated_at`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", errs.ErrPersistence, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // после Commit это no-op

	batch := &pgx.Batch{}
	for chatID, symbols := range lists {
		if symbols == nil {
			symbols = []string{}
		}
		batch.Queue(query, chatID, symbols)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("%w: upsert watchlist: %v", errs.ErrPersistence, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("%w: close batch: %v", errs.ErrPersistence, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", errs.ErrPersistence, err)
	}
	return nil
}
