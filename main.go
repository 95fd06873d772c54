package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"modrelay-bot/internal/auth"
	"modrelay-bot/internal/config"
	"modrelay-bot/internal/database"
	"modrelay-bot/internal/handlers"
	"modrelay-bot/internal/health"
	"modrelay-bot/internal/locales"
	"modrelay-bot/internal/mediagroups"
	"modrelay-bot/internal/metrics"
	"modrelay-bot/internal/moderation"

	telegoBot "modrelay-bot/bot"

	sentry "github.com/getsentry/sentry-go"
	telego "github.com/mymmrac/telego"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize localization bundle
	locales.Init(cfg.DefaultLanguage)

	// Initialize Sentry (if DSN is provided)
	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		Release:          cfg.Version,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Flush(2 * time.Second)

	// Creating context for application lifecycle
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	connectCtx, cancelConnect := context.WithTimeout(ctx, 15*time.Second)
	client, db, err := database.ConnectDB(connectCtx, cfg)
	cancelConnect()
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}
	defer func() {
		if err = client.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
			sentry.CaptureException(err)
		} else {
			log.Println("Disconnected from MongoDB.")
		}
	}()

	// Create repository instances
	submissionRepo := database.NewMongoSubmissionRepository(db)
	eventLogger := database.NewMongoEventLogger(db)
	if err := eventLogger.LogStartup(ctx, cfg.Version); err != nil {
		log.Printf("Failed to record startup event: %v", err)
	}

	appMetrics := metrics.New()

	// --- Bot Initialization ---
	var bot *telego.Bot
	if cfg.Debug {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultDebugLogger())
	} else {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultLogger(false, false))
	}
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create telego bot: %v", err)
	}

	adminChecker, err := auth.NewAdminChecker(cfg.AdminIDs)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create admin checker: %v", err)
	}

	mediaGroupManager := mediagroups.NewManager(cfg.MediaGroupDelay, mediagroups.DefaultMaxGroupSize)

	moderationManager := moderation.NewManager(
		bot,
		submissionRepo,
		cfg.ChannelID,
		adminChecker,
		cfg.AdminIDs,
		appMetrics,
		mediaGroupManager,
	)

	messageHandler := handlers.NewMessageHandler(
		cfg.ChannelID,
		cfg.Version,
		submissionRepo,
		moderationManager,
		adminChecker,
		appMetrics,
	)

	updatesChan, err := bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to start long polling: %v", err)
	}

	appBot, err := telegoBot.New(telegoBot.BotDeps{
		Bot:           bot,
		UpdatesChan:   updatesChan,
		Debug:         cfg.Debug,
		ModerationMgr: moderationManager,
		Handler:       messageHandler,
		MediaGroupMgr: mediaGroupManager,
		EventLogger:   eventLogger,
		Metrics:       appMetrics,
	})
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}

	// Health endpoint for container probes
	healthServer := health.NewServer(cfg.HealthAddr, bot, client, cfg.ChannelID)
	go func() {
		if err := healthServer.Run(ctx); err != nil {
			log.Printf("Health server error: %v", err)
			sentry.CaptureException(err)
		}
	}()

	// Start the bot wrapper's processing loop in a separate goroutine
	go appBot.Start(ctx)

	// Wait for context cancellation (e.g., SIGINT, SIGTERM)
	<-ctx.Done()

	log.Println("Shutting down bot...")
	appBot.Stop()

	log.Println("Bot shutdown complete.")
}
