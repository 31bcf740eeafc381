package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ravenhall/questboard/internal/config"
	"github.com/ravenhall/questboard/internal/database"
	"github.com/ravenhall/questboard/internal/handler"
	"github.com/ravenhall/questboard/internal/jobs"
	"github.com/ravenhall/questboard/internal/middleware"
	"github.com/ravenhall/questboard/internal/repository"
	"github.com/ravenhall/questboard/internal/service"
	"github.com/ravenhall/questboard/pkg/jwt"
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

	// Initialize database connection
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

	slog.Info("connected to database", slog.String("database", cfg.Database.Database))

	// Initialize service-token verification
	jwtService, err := jwt.NewService(jwt.Config{
		Secret:         cfg.JWT.Secret,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize repositories
	questRepo := repository.NewQuestRepository(db)
	userRepo := repository.NewUserRepository(db)
	characterRepo := repository.NewCharacterRepository(db)
	summaryRepo := repository.NewSummaryRepository(db)

	// Initialize services
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

	summaryService := service.NewSummaryService(service.SummaryServiceConfig{
		SummaryRepo:  summaryRepo,
		QuestService: questService,
	})

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:   100,
		Window: time.Minute,
		Burst:  20,
	})
	defer rateLimiter.Stop()

	// Initialize idempotency store for bot retries
	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{
		TTL:     24 * time.Hour,
		Cleanup: time.Hour,
	})
	defer idempotencyStore.Stop()

	// Summary reminder scan. The server variant logs; the bot process pings
	// announcement channels.
	summaryReminder := jobs.NewSummaryReminder(questRepo, jobs.SlogNotifier{Logger: logger}, 6*time.Hour)
	summaryReminder.Start()
	defer summaryReminder.Stop()

	// Initialize handlers
	questHandler := handler.NewQuestHandler(questService, userService)
	userHandler := handler.NewUserHandler(userService)
	characterHandler := handler.NewCharacterHandler(characterService, userService)
	summaryHandler := handler.NewSummaryHandler(summaryService, userService)

	// Create router and register routes
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", handler.Health)

	authMiddleware := middleware.Auth(jwtService)
	guildScope := middleware.GuildScope()
	protected := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(guildScope(h))
	}

	// Quest lifecycle endpoints
	mux.Handle("POST /v1/guilds/{guildId}/quests", protected(questHandler.Create))
	mux.Handle("GET /v1/guilds/{guildId}/quests", protected(questHandler.List))
	mux.Handle("GET /v1/guilds/{guildId}/quests/{questId}", protected(questHandler.Get))
	mux.Handle("DELETE /v1/guilds/{guildId}/quests/{questId}", protected(questHandler.Delete))
	mux.Handle("POST /v1/guilds/{guildId}/quests/{questId}/announce", protected(questHandler.Announce))
	mux.Handle("POST /v1/guilds/{guildId}/quests/{questId}/close-signups", protected(questHandler.CloseSignups))
	mux.Handle("POST /v1/guilds/{guildId}/quests/{questId}/start", protected(questHandler.Start))
	mux.Handle("POST /v1/guilds/{guildId}/quests/{questId}/complete", protected(questHandler.Complete))
	mux.Handle("POST /v1/guilds/{guildId}/quests/{questId}/cancel", protected(questHandler.Cancel))
	mux.Handle("POST /v1/guilds/{guildId}/quests/{questId}/nudge", protected(questHandler.Nudge))

	// Signup sub-resource
	mux.Handle("POST /v1/guilds/{guildId}/quests/{questId}/signups", protected(questHandler.AddSignup))
	mux.Handle("POST /v1/guilds/{guildId}/quests/{questId}/signups/{userId}/select", protected(questHandler.SelectSignup))
	mux.Handle("DELETE /v1/guilds/{guildId}/quests/{questId}/signups/{userId}", protected(questHandler.RemoveSignup))

	// Summary endpoints
	mux.Handle("POST /v1/guilds/{guildId}/summaries", protected(summaryHandler.Create))
	mux.Handle("GET /v1/guilds/{guildId}/summaries", protected(summaryHandler.List))
	mux.Handle("GET /v1/guilds/{guildId}/summaries/{summaryId}", protected(summaryHandler.Get))
	mux.Handle("PATCH /v1/guilds/{guildId}/summaries/{summaryId}", protected(summaryHandler.Edit))
	mux.Handle("POST /v1/guilds/{guildId}/summaries/{summaryId}/links/quests", protected(summaryHandler.LinkQuest))
	mux.Handle("POST /v1/guilds/{guildId}/summaries/{summaryId}/links/summaries", protected(summaryHandler.LinkSummary))
	mux.Handle("GET /v1/guilds/{guildId}/quests/{questId}/summaries", protected(summaryHandler.ListByQuest))

	// User endpoints
	mux.Handle("POST /v1/guilds/{guildId}/users", protected(userHandler.Provision))
	mux.Handle("GET /v1/guilds/{guildId}/users", protected(userHandler.List))
	mux.Handle("GET /v1/guilds/{guildId}/users/{userId}", protected(userHandler.Get))
	mux.Handle("GET /v1/guilds/{guildId}/users/discord/{discordId}", protected(userHandler.GetByDiscordID))
	mux.Handle("POST /v1/guilds/{guildId}/users/{userId}/roles", protected(userHandler.GrantRole))
	mux.Handle("DELETE /v1/guilds/{guildId}/users/{userId}/roles/{role}", protected(userHandler.RevokeRole))
	mux.Handle("POST /v1/guilds/{guildId}/telemetry", protected(userHandler.RecordTelemetry))

	// Character endpoints
	mux.Handle("POST /v1/guilds/{guildId}/characters", protected(characterHandler.Create))
	mux.Handle("GET /v1/guilds/{guildId}/characters", protected(characterHandler.List))
	mux.Handle("GET /v1/guilds/{guildId}/characters/{characterId}", protected(characterHandler.Get))
	mux.Handle("DELETE /v1/guilds/{guildId}/characters/{characterId}", protected(characterHandler.Delete))

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.RateLimit(rateLimiter),
		middleware.Idempotency(idempotencyStore),
		middleware.Compress,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}
