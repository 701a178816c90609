package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	errs "github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/errors"
	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/transport/bot/mocks"
	"github.com/golang/mock/gomock"
)

func setupBot(t *testing.T) (*gomock.Controller, *mocks.MockCommander, *Bot) {
	t.Helper()
	ctrl := gomock.NewController(t)
	cmd := mocks.NewMockCommander(ctrl)
	b := &Bot{cmd: cmd, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	return ctrl, cmd, b
}

func TestReplyStart(t *testing.T) {
	ctrl, cmd, b := setupBot(t)
	defer ctrl.Finish()

	gomock.InOrder(
		cmd.EXPECT().Start(gomock.Any(), int64(1)).Return([]string{"BTC"}, false),
		cmd.EXPECT().Start(gomock.Any(), int64(1)).Return([]string{"BTC"}, true),
	)

	msgs := b.replyStart(context.Background(), 1)
	if len(msgs) != 2 || msgs[0] != helpText || msgs[1] != "Task successfully set!" {
		t.Fatalf("unexpected replies: %q", msgs)
	}
	msgs = b.replyStart(context.Background(), 1)
	if msgs[1] != "Task successfully set! Old task was removed." {
		t.Fatalf("unexpected replace reply: %q", msgs[1])
	}
}

func TestReplyDisplay(t *testing.T) {
	ctrl, cmd, b := setupBot(t)
	defer ctrl.Finish()

	gomock.InOrder(
		cmd.EXPECT().Display(int64(1)).Return(nil, errs.ErrNotInitialized),
		cmd.EXPECT().Display(int64(1)).Return([]string{}, nil),
		cmd.EXPECT().Display(int64(1)).Return([]string{"BTC", "ETH"}, nil),
	)

	for _, want := range []string{"type /start to initialize tracking", "Nothing being tracked.", "BTC,ETH"} {
		if got := b.replyDisplay(1); got != want {
			t.Fatalf("got %q want %q", got, want)
		}
	}
}

func TestReplyTrack(t *testing.T) {
	ctrl, cmd, b := setupBot(t)
	defer ctrl.Finish()

	// символ нормализуется до вызова сервиса
	cmd.EXPECT().Track(int64(1), "DOGE").Return(nil)
	cmd.EXPECT().Track(int64(1), "").Return(errs.ErrMissingArgument)
	cmd.EXPECT().Track(int64(2), "BTC").Return(errs.ErrNotInitialized)

	if got := b.replyTrack(1, []string{" doge "}); got != "DOGE added to the watchlist!" {
		t.Fatalf("unexpected reply: %q", got)
	}
	if got := b.replyTrack(1, nil); got != trackUsage {
		t.Fatalf("unexpected reply: %q", got)
	}
	if got := b.replyTrack(2, []string{"btc"}); got != "type /start to initialize tracking" {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestReplyDrop(t *testing.T) {
	ctrl, cmd, b := setupBot(t)
	defer ctrl.Finish()

	gomock.InOrder(
		cmd.EXPECT().Drop(int64(1), "BTC").Return(1, nil),
		cmd.EXPECT().Drop(int64(1), "BTC").Return(0, nil),
		cmd.EXPECT().Drop(int64(1), "").Return(0, errs.ErrMissingArgument),
	)

	if got := b.replyDrop(1, []string{"btc"}); got != "BTC removed from the watchlist!" {
		t.Fatalf("unexpected reply: %q", got)
	}
	if got := b.replyDrop(1, []string{"BTC"}); got != "BTC is not in the watchlist." {
		t.Fatalf("unexpected reply: %q", got)
	}
	if got := b.replyDrop(1, []string{}); got != dropUsage {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestReplySnapshot(t *testing.T) {
	ctrl, cmd, b := setupBot(t)
	defer ctrl.Finish()

	gomock.InOrder(
		cmd.EXPECT().Snapshot(gomock.Any(), int64(1)).Return("report", nil),
		cmd.EXPECT().Snapshot(gomock.Any(), int64(1)).Return("", fmt.Errorf("fetch: %w", errs.ErrUnavailable)),
		cmd.EXPECT().Snapshot(gomock.Any(), int64(1)).Return("", errs.ErrDataFormat),
		cmd.EXPECT().Snapshot(gomock.Any(), int64(1)).Return("", errs.ErrNotInitialized),
	)

	want := []string{
		"report",
		"Market data is unavailable right now, try again later.",
		"Market data is unavailable right now, try again later.",
		"type /start to initialize tracking",
	}
	for _, w := range want {
		if got := b.replySnapshot(context.Background(), 1); got != w {
			t.Fatalf("got %q want %q", got, w)
		}
	}
}

func TestReplyUnset(t *testing.T) {
	ctrl, cmd, b := setupBot(t)
	defer ctrl.Finish()

	gomock.InOrder(
		cmd.EXPECT().Disable(int64(1)).Return(true),
		cmd.EXPECT().Disable(int64(1)).Return(false),
	)

	if got := b.replyUnset(1); got != "Task successfully cancelled!" {
		t.Fatalf("unexpected reply: %q", got)
	}
	if got := b.replyUnset(1); got != "You have no active Task." {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestReplySet(t *testing.T) {
	ctrl, cmd, b := setupBot(t)
	defer ctrl.Finish()

	gomock.InOrder(
		cmd.EXPECT().Enable(int64(1), 30*time.Minute).Return(false, nil),
		cmd.EXPECT().Enable(int64(1), 5*time.Minute).Return(true, nil),
		cmd.EXPECT().Enable(int64(2), time.Minute).Return(false, errs.ErrNotInitialized),
	)

	if got := b.replySet(1, []string{"30"}); got != "Task successfully set!" {
		t.Fatalf("unexpected reply: %q", got)
	}
	if got := b.replySet(1, []string{" 5 "}); got != "Task successfully set! Old task was removed." {
		t.Fatalf("unexpected reply: %q", got)
	}
	if got := b.replySet(2, []string{"1"}); got != "type /start to initialize tracking" {
		t.Fatalf("unexpected reply: %q", got)
	}
	for _, args := range [][]string{nil, {"0"}, {"-3"}, {"abc"}, {"1", "2"}} {
		if got := b.replySet(1, args); got != setUsage {
			t.Fatalf("args %q: unexpected reply %q", args, got)
		}
	}
}

func TestSnapshot_LongReportIsSplit(t *testing.T) {
	ctrl, cmd, b := setupBot(t)
	defer ctrl.Finish()

	// 40 блоков по ~150 байт - заметно больше лимита Telegram
	block := "BTC was 45000.123€ at 2021-05-01T00:00:00Z\n" +
		"1h_:   1.230% 550.2500\n1d_:  -5.000% -2368.4000\n" +
		"7d_:  10.000% 4090.9200\n30d: -25.432% -15340.1000"
	blocks := make([]string, 40)
	for i := range blocks {
		blocks[i] = block
	}
	report := strings.Join(blocks, "\n\n")
	cmd.EXPECT().Snapshot(gomock.Any(), int64(1)).Return(report, nil)

	var sent []string
	err := sendSplit(b.replySnapshot(context.Background(), 1), func(part string) error {
		sent = append(sent, part)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sent) < 2 {
		t.Fatalf("expected several messages, got %d", len(sent))
	}
	for i, part := range sent {
		if len(part) > maxMessageLen {
			t.Fatalf("message %d exceeds limit: %d bytes", i, len(part))
		}
	}
	if strings.Join(sent, "\n\n") != report {
		t.Fatalf("report content changed after splitting")
	}
}

func TestSendSplit_StopsOnError(t *testing.T) {
	calls := 0
	err := sendSplit(strings.Repeat("x\n\n", 3000), func(string) error {
		calls++
		return errs.ErrUnavailable
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected to stop after first failure: calls=%d err=%v", calls, err)
	}
}

func TestSplitMessage(t *testing.T) {
	if parts := splitMessage("short", 10); len(parts) != 1 || parts[0] != "short" {
		t.Fatalf("unexpected parts: %q", parts)
	}

	block := strings.Repeat("x", 6)
	text := strings.Join([]string{block, block, block}, "\n\n")
	parts := splitMessage(text, 14)
	if len(parts) != 2 || parts[0] != block+"\n\n"+block || parts[1] != block {
		t.Fatalf("blocks must not be split: %q", parts)
	}

	// блок длиннее лимита режется по строкам
	long := "aaaa\nbbbb\ncccc"
	parts = splitMessage(long, 10)
	for _, p := range parts {
		if len(p) > 10 {
			t.Fatalf("part exceeds limit: %q", p)
		}
	}
	if strings.Join(parts, "\n") != long {
		t.Fatalf("content lost: %q", parts)
	}
}
