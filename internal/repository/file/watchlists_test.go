package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/domain"
	errs "github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	repo := NewWatchlistRepo(filepath.Join(t.TempDir(), "chats_db"))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewWatchlistRepo(filepath.Join(t.TempDir(), "chats_db"))

	in := domain.Watchlists{
		12345:      {"BTC", "ETH", "BNB", "ADA"},
		-100200300: {"DOGE", "DOGE"},
		42:         {},
	}
	require.NoError(t, repo.Save(ctx, in))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, in, got)
}

func TestSave_WritesLegacyFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chats_db")
	repo := NewWatchlistRepo(path)

	require.NoError(t, repo.Save(context.Background(), domain.Watchlists{7: {"BTC", "ETH"}, 8: {}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `{"7":"BTC,ETH","8":""}`, string(data))

	// временных файлов рядом не остаётся
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestSave_Overwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewWatchlistRepo(filepath.Join(t.TempDir(), "chats_db"))

	require.NoError(t, repo.Save(ctx, domain.Watchlists{1: {"BTC"}, 2: {"ETH"}}))
	require.NoError(t, repo.Save(ctx, domain.Watchlists{1: {"ADA"}}))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.Watchlists{1: {"ADA"}}, got)
}

func TestLoad_LegacyEmptyElements(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chats_db")
	require.NoError(t, os.WriteFile(path, []byte(`{"5": ",DOGE", "6": ""}`), 0o600))

	got, err := NewWatchlistRepo(path).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"DOGE"}, got[5])
	require.Empty(t, got[6])
	require.Contains(t, got, int64(6))
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chats_db")
	require.NoError(t, os.WriteFile(path, []byte(`{"5": `), 0o600))

	_, err := NewWatchlistRepo(path).Load(context.Background())
	require.ErrorIs(t, err, errs.ErrPersistence)
}

func TestLoad_BadChatID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chats_db")
	require.NoError(t, os.WriteFile(path, []byte(`{"not-a-chat": "BTC"}`), 0o600))

	_, err := NewWatchlistRepo(path).Load(context.Background())
	require.ErrorIs(t, err, errs.ErrPersistence)
}

func TestLoad_Unreadable(t *testing.T) {
	// каталог вместо файла: чтение падает не с ErrNotExist
	dir := t.TempDir()

	_, err := NewWatchlistRepo(dir).Load(context.Background())
	require.ErrorIs(t, err, errs.ErrPersistence)
}
