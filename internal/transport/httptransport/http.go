package httptransport

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

//go:generate mockgen -destination=mocks/deps.go -package=mocks . Watchlists,Jobs,Reporter

// Watchlists - чтение списков чатов
type Watchlists interface {
	Get(chatID int64) ([]string, error)
	Len() int
}

// Jobs - число активных авторассылок
type Jobs interface {
	Len() int
}

// Reporter - текст отчёта по списку символов
type Reporter interface {
	Render(ctx context.Context, symbols []string) (string, error)
}

// Health - ответ /healthz
type Health struct {
	Status string `json:"status"`
	Chats  int    `json:"chats"`
	Jobs   int    `json:"jobs"`
}

// Watchlist - DTO списка чата
type Watchlist struct {
	ChatID  int64    `json:"chat_id"`
	Symbols []string `json:"symbols"`
}

// WatchlistHandler - HTTP-handler статуса бота и списков (только чтение)
type WatchlistHandler struct {
	logger   *slog.Logger
	lists    Watchlists
	jobs     Jobs
	reporter Reporter
	timeout  time.Duration
}

func NewWatchlistHandler(logger *slog.Logger, lists Watchlists, jobs Jobs, reporter Reporter, timeout time.Duration) *WatchlistHandler {
	if logger == nil {
		log.Fatal("nil logger")
	}
	if lists == nil || jobs == nil || reporter == nil {
		log.Fatal("nil dependency")
	}
	// Задаём таймаут по умолчанию, если он не задан
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WatchlistHandler{
		logger:   logger,
		lists:    lists,
		jobs:     jobs,
		reporter: reporter,
		timeout:  timeout,
	}
}

func (h *WatchlistHandler) RegisterRoutes(r interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}) {
	r.GET("/healthz", h.Health)
	r.GET("/watchlists/:chat_id", h.GetWatchlist)
	r.GET("/watchlists/:chat_id/report", h.GetReport)
}

func (h *WatchlistHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, Health{
		Status: "ok",
		Chats:  h.lists.Len(),
		Jobs:   h.jobs.Len(),
	})
}

func (h *WatchlistHandler) GetWatchlist(c echo.Context) error {
	chatID, err := parseChatID(c)
	if err != nil {
		return h.fail(c, "GetWatchlist", err)
	}

	symbols, err := h.lists.Get(chatID)
	if err != nil {
		return h.fail(c, "GetWatchlist", err)
	}
	if symbols == nil {
		symbols = []string{}
	}
	return c.JSON(http.StatusOK, Watchlist{ChatID: chatID, Symbols: symbols})
}

// GetReport - тот же текст, что уходит в чат по /snapshot
func (h *WatchlistHandler) GetReport(c echo.Context) error {
	chatID, err := parseChatID(c)
	if err != nil {
		return h.fail(c, "GetReport", err)
	}
	symbols, err := h.lists.Get(chatID)
	if err != nil {
		return h.fail(c, "GetReport", err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	text, err := h.reporter.Render(ctx, symbols)
	if err != nil {
		return h.fail(c, "GetReport", err)
	}
	return c.String(http.StatusOK, text)
}

// fail - ошибка сервиса -> статус и стабильный код в теле
func (h *WatchlistHandler) fail(c echo.Context, op string, err error) error {
	code := FromServiceError(err)
	status, body := translateHTTPError(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("http request failed",
			slog.String("op", op),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return c.JSON(status, echo.Map{"error": body})
}

func parseChatID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("chat_id"), 10, 64)
	if err != nil {
		return 0, errBadChatID
	}
	return id, nil
}
