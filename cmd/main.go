// cmd/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"go_stoic_journal/internal/config"
	"go_stoic_journal/internal/handlers"
	"go_stoic_journal/internal/middleware"
	"go_stoic_journal/internal/repository"
	"go_stoic_journal/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	// .env があれば読み込む (無くてもエラーにしない)
	_ = godotenv.Load()

	//　設定ファイル読み込み用の一時的なロガー設定
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)

	// Configを読み込み
	if err := config.LoadConfig("configs"); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// === 設定に基づいて slog ロガーを初期化 ===
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(config.Cfg.Log.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", config.Cfg.Log.Level))
	}

	var handler slog.Handler
	appEnv := config.Cfg.App.Env
	if strings.ToLower(appEnv) == "dev" {
		// 開発環境は色付きのテキストログ
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		})
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		})
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("Application starting...", slog.String("app", config.AppName), slog.String("version", config.AppVersion))

	// 2. Initialize Database Connection (GORM)
	db, err := repository.NewDB(config.Cfg.Database.URL, appEnv, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("Database connection closed.")
		}
	}()

	// 3. Dependency Injection
	catalogRepo := repository.NewGormCatalogRepository()
	progressRepo := repository.NewGormProgressRepository()
	journalRepo := repository.NewGormJournalRepository()
	discussionRepo := repository.NewGormDiscussionRepository()
	settingsRepo := repository.NewGormSettingsRepository()

	mentor := service.NewOpenAIMentor(config.Cfg.Mentor)

	curriculumService := service.NewCurriculumService(db, catalogRepo, progressRepo, settingsRepo)
	journalService := service.NewJournalService(db, journalRepo, catalogRepo, progressRepo)
	discussionService := service.NewDiscussionService(db, discussionRepo, catalogRepo, mentor)
	settingsService := service.NewSettingsService(db, settingsRepo)

	curriculumHandler := handlers.NewCurriculumHandler(curriculumService, logger)
	journalHandler := handlers.NewJournalHandler(journalService, logger)
	discussionHandler := handlers.NewDiscussionHandler(discussionService, logger)
	settingsHandler := handlers.NewSettingsHandler(settingsService, logger)

	// 4. Setup Router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(logger))

	// CORS 設定と適用 (設定ファイルから読み込んだ値を使用)
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   config.Cfg.CORS.AllowedOrigins,
		AllowedMethods:   config.Cfg.CORS.AllowedMethods,
		AllowedHeaders:   config.Cfg.CORS.AllowedHeaders,
		ExposedHeaders:   config.Cfg.CORS.ExposedHeaders,
		AllowCredentials: config.Cfg.CORS.AllowCredentials,
		MaxAge:           config.Cfg.CORS.MaxAge,
	})
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// API Routes
	r.Route("/api/v1/curriculum", func(r chi.Router) {
		r.Get("/today", curriculumHandler.GetToday)
		r.Get("/overview", curriculumHandler.GetOverview)
		r.Get("/phases", curriculumHandler.GetPhases)
		r.Get("/texts/{text_id}/passages", curriculumHandler.GetTextPassages)
		r.Get("/passages/{passage_id}", curriculumHandler.GetPassage)
		r.Get("/passages/{passage_id}/neighbors", curriculumHandler.GetNeighbors)

		r.Get("/progress", curriculumHandler.GetProgress)
		r.Post("/progress/{passage_id}", curriculumHandler.PostProgress)

		r.Route("/journal", func(r chi.Router) {
			r.Post("/", journalHandler.PostEntry)
			r.Get("/", journalHandler.GetEntries)
			r.Get("/{passage_id}", journalHandler.GetEntry)
		})

		r.Route("/discuss", func(r chi.Router) {
			r.Post("/", discussionHandler.PostDiscuss)
			r.Get("/{passage_id}", discussionHandler.GetHistory)
			r.Delete("/{passage_id}", discussionHandler.DeleteHistory)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", settingsHandler.GetSettings)
			r.Post("/", settingsHandler.PostSettings)
		})
	})

	// Health Check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := sqlDB.PingContext(ctx); err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not ping DB", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// 5. Start Server
	server := &http.Server{
		Addr:         config.Cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 90 * time.Second, // メンター応答待ちよりも長く取る
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", config.Cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", config.Cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}
