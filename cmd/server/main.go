package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/example/jinsharnam/internal/config"
	"github.com/example/jinsharnam/internal/database"
	"github.com/example/jinsharnam/internal/handlers"
	"github.com/example/jinsharnam/internal/logging"
	"github.com/example/jinsharnam/internal/metrics"
	"github.com/example/jinsharnam/internal/routes"
	"github.com/example/jinsharnam/internal/services"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      "Jinsharnam Backend",
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Authorization, Accept",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
	app.Use(metrics.Middleware())

	routes.Register(app, db, cfg, integrations(cfg))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.AppPort); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func integrations(cfg *config.Config) routes.Integrations {
	ext := routes.Integrations{
		Notifier: services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat),
	}

	if cfg.Fast2SMSAPIKey != "" {
		ext.SMS = services.NewFast2SMSSender(cfg.Fast2SMSAPIKey, cfg.Fast2SMSURL, cfg.OTPCountryCode, cfg.OTPTTL, cfg.SMSTimeout)
	} else {
		slog.Warn("FAST2SMS_API_KEY not set, OTP codes will only be logged")
		ext.SMS = services.LogSMSSender{}
	}

	if cfg.StripeSecretKey != "" {
		ext.Payments = services.NewStripeGateway(cfg.StripeSecretKey, cfg.PaymentTimeout)
	} else {
		slog.Warn("STRIPE_SECRET_KEY not set, payment endpoints disabled")
	}

	return ext
}
