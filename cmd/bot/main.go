package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ravenhall/questboard/internal/bot"
	"github.com/ravenhall/questboard/internal/config"
	"github.com/ravenhall/questboard/internal/database"
	"github.com/ravenhall/questboard/internal/jobs"
	"github.com/ravenhall/questboard/internal/repository"
	"github.com/ravenhall/questboard/internal/service"
)

func main() {
	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load .env if present, then configuration from the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if !cfg.Discord.Enabled {
		slog.Error("DISCORD_ENABLED must be true for the bot process")
		os.Exit(1)
	}

	// Initialize database connection. The bot shares storage with the API
	// server; both write paths go through the same services.
	db := database.NewMongo(database.Config{
		URI:      cfg.Database.URI,
		Database: cfg.Database.Database,
	})

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer cancelConnect()
	if err := db.Connect(connectCtx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.EnsureIndexes(connectCtx); err != nil {
		slog.Error("failed to ensure indexes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize repositories and services
	questRepo := repository.NewQuestRepository(db)
	userRepo := repository.NewUserRepository(db)
	characterRepo := repository.NewCharacterRepository(db)

	questService := service.NewQuestService(service.QuestServiceConfig{
		QuestRepo: questRepo,
		UserRepo:  userRepo,
		CharRepo:  characterRepo,
		Logger:    logger,
	})
	userService := service.NewUserService(service.UserServiceConfig{
		UserRepo: userRepo,
	})
	characterService := service.NewCharacterService(service.CharacterServiceConfig{
		CharRepo: characterRepo,
		UserRepo: userRepo,
	})

	// Initialize and start the bot
	b, err := bot.New(bot.Config{
		Token:      cfg.Discord.BotToken,
		AppID:      cfg.Discord.AppID,
		Quests:     questService,
		Users:      userService,
		Characters: characterService,
		Logger:     logger,
	})
	if err != nil {
		slog.Error("failed to create bot", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	if err := b.Start(ctx); err != nil {
		slog.Error("failed to start bot", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Summary reminders delivered into announcement channels.
	summaryReminder := jobs.NewSummaryReminder(questRepo, b, 6*time.Hour)
	summaryReminder.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down bot...")
	summaryReminder.Stop()
	if err := b.Stop(); err != nil {
		slog.Error("bot shutdown error", slog.String("error", err.Error()))
	}
	slog.Info("bot exited")
}
