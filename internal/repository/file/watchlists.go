package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/domain"
	errs "github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/errors"
	"github.com/samber/lo"
)

// WatchlistRepo - списки в одном JSON-файле формата {"<chat_id>": "BTC,ETH"}.
// Формат совместим с файлами старой версии бота.
type WatchlistRepo struct {
	path string
}

// NewWatchlistRepo - репозиторий поверх файла path; файл может ещё не существовать.
func NewWatchlistRepo(path string) *WatchlistRepo {
	return &WatchlistRepo{path: path}
}

func (r *WatchlistRepo) Path() string { return r.path }

// Load - читает весь документ. Нет файла - пустой набор, это первый запуск, а не ошибка.
func (r *WatchlistRepo) Load(_ context.Context) (domain.Watchlists, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Watchlists{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", errs.ErrPersistence, r.path, err)
	}

	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", errs.ErrPersistence, r.path, err)
	}

	out := make(domain.Watchlists, len(doc))
	for key, csv := range doc {
		chatID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad chat id %q in %s", errs.ErrPersistence, key, r.path)
		}
		out[chatID] = decodeSymbols(csv)
	}
	return out, nil
}

// Save - пишет во временный файл рядом с целевым и переименовывает его,
// чтобы при сбое на диске не остался обрезанный документ.
func (r *WatchlistRepo) Save(_ context.Context, lists domain.Watchlists) error {
	doc := make(map[string]string, len(lists))
	for chatID, symbols := range lists {
		doc[strconv.FormatInt(chatID, 10)] = strings.Join(symbols, ",")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", errs.ErrPersistence, err)
	}

	dir, base := filepath.Split(r.path)
	if dir == "" {
		dir = "."
	}
	fp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", errs.ErrPersistence, err)
	}
	defer func() {
		fp.Close()
		os.Remove(fp.Name()) // после успешного rename файла уже нет
	}()

	if _, err := fp.Write(data); err != nil {
		return fmt.Errorf("%w: write %s: %v", errs.ErrPersistence, fp.Name(), err)
	}
	if err := fp.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %v", errs.ErrPersistence, fp.Name(), err)
	}
	if err := fp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", errs.ErrPersistence, fp.Name(), err)
	}
	if err := os.Rename(fp.Name(), r.path); err != nil {
		return fmt.Errorf("%w: rename to %s: %v", errs.ErrPersistence, r.path, err)
	}
	return nil
}

// decodeSymbols - CSV в список; пустые элементы (",DOGE" после track по пустому списку) отбрасываем
func decodeSymbols(csv string) []string {
	return lo.Compact(strings.Split(csv, ","))
}
