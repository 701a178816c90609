package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/config"
	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/consts"
	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/infra/db"
	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/infra/nomics"
	repofile "github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/repository/file"
	repopg "github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/repository/postgres"
	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/scheduler"
	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/service/report"
	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/service/subscription"
	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/service/watchlist"
	botpkg "github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/transport/bot"
	"github.com/NastyaGoryachaya/crypto-watchlist-bot/internal/transport/httptransport"
	"github.com/NastyaGoryachaya/crypto-watchlist-bot/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
)

type App struct {
	cfg config.Config
	log *slog.Logger

	db   *pgxpool.Pool
	e    *echo.Echo
	serv *http.Server

	store   *watchlist.Store
	reports *report.Service
	subs    *subscription.Service

	jobs     *scheduler.Scheduler
	stopJobs context.CancelFunc
	bot      *botpkg.Bot
}

// NewApp - собирает приложение. Ошибка загрузки списков фатальна: стартовать с пустыми нельзя,
// иначе при остановке они перезапишут сохранённые.
func NewApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	app := &App{cfg: cfg, log: log}

	repo, err := app.persister(ctx)
	if err != nil {
		app.closeDB()
		return nil, err
	}

	defaults := lo.Map(cfg.Watchlist.DefaultSymbols, func(s string, _ int) string {
		return consts.NormalizeSymbol(s)
	})
	app.store, err = watchlist.Load(ctx, repo, watchlist.Options{
		Defaults:     lo.Compact(defaults),
		SaveAttempts: cfg.Storage.SaveAttempts,
	}, logger.Component(log, "watchlist"))
	if err != nil {
		app.closeDB()
		return nil, err
	}

	app.reports = report.NewService(nomics.NewClient(cfg.Nomics), report.Config{
		Convert: cfg.Nomics.Convert,
		PerPage: cfg.Nomics.PerPage,
		Timeout: cfg.Nomics.Timeout,
	}, logger.Component(log, "report"))

	jobsCtx, cancel := context.WithCancel(context.Background())
	app.stopJobs = cancel
	app.jobs = scheduler.NewScheduler(jobsCtx, logger.Component(log, "scheduler"))

	tb, err := botpkg.NewTelebot(cfg.Telegram)
	if err != nil {
		log.Error("telegram init failed", slog.String("error", err.Error()))
		cancel()
		app.closeDB()
		return nil, fmt.Errorf("telegram: %w", err)
	}

	app.subs = subscription.New(
		app.store,
		app.reports,
		app.jobs,
		botpkg.NewNotifier(tb),
		cfg.Scheduler.Interval,
		logger.Component(log, "subscriptions"),
	)
	app.bot = botpkg.New(tb, app.subs, logger.Component(log, "bot"))

	if cfg.Server.Enabled {
		e := echo.New()
		e.HideBanner = true
		e.HidePort = true
		app.e = e

		wh := httptransport.NewWatchlistHandler(logger.Component(log, "http"), app.store, app.jobs, app.reports, cfg.Server.WriteTimeout)
		wh.RegisterRoutes(e)

		app.serv = &http.Server{
			Addr:         cfg.Server.Addr,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
			Handler:      e,
		}
	}

	log.Info("app initialized",
		slog.String("storage", cfg.Storage.Driver),
		slog.Int("chats", app.store.Len()),
		slog.Duration("report_interval", cfg.Scheduler.Interval),
		slog.Bool("http_enabled", cfg.Server.Enabled),
	)
	return app, nil
}

// persister - файл (формат исходного бота) или PostgreSQL
func (a *App) persister(ctx context.Context) (watchlist.Persister, error) {
	switch a.cfg.Storage.Driver {
	case "postgres":
		pool, err := db.NewPool(ctx, &a.cfg.Postgres)
		if err != nil {
			a.log.Error("postgres connect failed", slog.String("error", err.Error()))
			return nil, err
		}
		a.db = pool
		repo := repopg.NewWatchlistRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			a.log.Error("postgres schema failed", slog.String("error", err.Error()))
			return nil, err
		}
		return repo, nil
	default:
		repo := repofile.NewWatchlistRepo(a.cfg.Storage.Path)
		a.log.Info("watchlist file storage", slog.String("path", repo.Path()))
		return repo, nil
	}
}

func (a *App) Run(ctx context.Context) error {
	if !a.cfg.Scheduler.SkipResume {
		a.subs.Resume(ctx)
	}

	a.log.Info("starting bot")
	a.bot.Start(ctx)

	if a.e != nil {
		a.log.Info("starting server", slog.String("addr", a.cfg.Server.Addr))
		go func() {
			if err := a.e.StartServer(a.serv); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("http server error", slog.String("error", err.Error()))
			}
		}()
	}

	<-ctx.Done()
	return a.Shutdown(context.Background())
}

// Shutdown - порядок важен: сначала перестаём принимать команды и снимаем задачи,
// затем пишем финальный снимок списков
func (a *App) Shutdown(ctx context.Context) error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if a.e != nil {
		if err := a.e.Shutdown(shCtx); err != nil {
			a.log.Error("http shutdown error", slog.String("error", err.Error()))
		}
	}

	a.bot.Stop()

	a.jobs.Stop()
	a.stopJobs()

	var saveErr error
	if err := a.store.Save(shCtx); err != nil {
		a.log.Error("watchlist save failed", slog.String("error", err.Error()))
		saveErr = err
	}

	a.closeDB()
	a.log.Info("application stopped")
	return saveErr
}

func (a *App) closeDB() {
	if a.db != nil {
		a.db.Close()
	}
}
