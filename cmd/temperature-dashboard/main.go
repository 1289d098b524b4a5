package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/temperature-dashboard/internal/api/http"
	"github.com/i474232898/temperature-dashboard/internal/config"
	"github.com/i474232898/temperature-dashboard/internal/dashboard"
	"github.com/i474232898/temperature-dashboard/internal/dashboard/providers"
	"github.com/i474232898/temperature-dashboard/internal/logger"
	"github.com/i474232898/temperature-dashboard/internal/scheduler"
	"github.com/i474232898/temperature-dashboard/internal/state"
	"github.com/i474232898/temperature-dashboard/internal/store"
	"github.com/i474232898/temperature-dashboard/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	l, err := logger.New(cfg.App.Name, cfg.App.Env, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = l.Stop() }()

	initialDate, err := cfg.InitialDate(time.Now())
	if err != nil {
		l.Fatal("invalid default date", map[string]any{"cause": err})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound API calls.
	httpClient := resty.New().
		SetTimeout(cfg.Upstream.Timeout).
		SetHeader("User-Agent", cfg.App.Name)

	backoff := providers.BackoffConfig{
		MaxRetries:      cfg.Upstream.MaxRetries,
		InitialInterval: cfg.Upstream.BackoffInitial,
		MaxInterval:     cfg.Upstream.BackoffMax,
	}
	departmentsClient := providers.NewDepartmentsClient(httpClient, cfg.Upstream.DepartmentsURL, backoff)
	temperaturesClient := providers.NewTemperaturesClient(
		httpClient, cfg.Upstream.TemperaturesURL, cfg.Upstream.Dataset, cfg.Upstream.PageSize, backoff,
	)

	opts := []dashboard.Option{
		dashboard.WithHistoryMonths(cfg.Dashboard.HistoryMonths),
		dashboard.WithLogger(l),
	}
	if cfg.Dashboard.HistoryCacheSize > 0 {
		history := store.NewHistoryCache(cfg.Dashboard.HistoryCacheSize, cfg.Dashboard.HistoryCacheTTL)
		opts = append(opts, dashboard.WithHistoryCache(history))
	}

	facade := dashboard.NewFacade(
		departmentsClient,
		temperaturesClient,
		state.NewDepartmentsStore(),
		state.NewTemperatureStore(),
		state.NewDateSelectionStore(initialDate),
		opts...,
	)

	go func() {
		if err := facade.LoadDepartments(ctx); err != nil {
			l.Warning("initial department load failed; waiting for next refresh")
		}
	}()
	stopLoading := facade.LoadTemperaturesForSelectedDateIfNotLoaded(ctx)
	defer stopLoading()

	sched := scheduler.New(cfg.Dashboard.RefreshInterval, facade, l)
	if err := sched.Start(); err != nil {
		l.Fatal("failed to start scheduler", map[string]any{"cause": err})
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": cfg.App.Name,
		})
	})

	httpapi.RegisterRoutes(app, facade)

	ui, err := web.NewServer("Températures départementales", facade, l)
	if err != nil {
		l.Fatal("failed to build ui", map[string]any{"cause": err})
	}

	go func() {
		l.Info("api listening", map[string]any{"port": cfg.Server.Port})
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			l.Error(err, map[string]any{"server": "api"})
			stop()
		}
	}()
	go func() {
		if err := ui.Start(":" + cfg.Server.UIPort); err != nil {
			l.Error(err, map[string]any{"server": "ui"})
			stop()
		}
	}()

	<-ctx.Done()
	l.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		l.Error(err, map[string]any{"server": "api"})
	}
	if err := ui.Shutdown(shutdownCtx); err != nil {
		l.Error(err, map[string]any{"server": "ui"})
	}
}
