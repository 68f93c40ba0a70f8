package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	httpapi "github.com/i474232898/coffee-machine/internal/api/http"
	"github.com/i474232898/coffee-machine/internal/coffee"
	"github.com/i474232898/coffee-machine/internal/config"
	"github.com/i474232898/coffee-machine/internal/scheduler"
	"github.com/i474232898/coffee-machine/internal/store"
	"github.com/i474232898/coffee-machine/internal/weather"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.ConfigureLogging(); err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound weather calls.
	httpClient := &http.Client{
		Timeout: cfg.Weather.HTTPTimeout,
	}

	weatherClient, err := weather.NewClient(httpClient, weather.Config{
		URLTemplate:    cfg.Weather.APIURLTemplate,
		TempPath:       cfg.Weather.TempPath,
		CircuitBreaker: cfg.Weather.CircuitBreaker,
	})
	if err != nil {
		log.Fatalf("failed to create weather client: %v", err)
	}

	requestStore, err := store.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer requestStore.Close()

	engine := coffee.NewEngine(requestStore, weatherClient, coffee.Settings{
		Threshold: cfg.Weather.Threshold,
		City:      cfg.Weather.City,
	})

	sched := scheduler.New(engine, cfg.StatusInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               httpapi.ServiceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2 * cfg.Weather.HTTPTimeout,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, engine, time.Now)

	go func() {
		log.WithFields(log.Fields{
			"port":    cfg.Port,
			"backend": cfg.Store.Backend,
		}).Info("coffee machine listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorf("fiber server stopped: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorf("error during shutdown: %v", err)
	}
}
