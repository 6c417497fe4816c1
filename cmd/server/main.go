package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/studyhall/studyhall-backend/internal/config"
	"github.com/studyhall/studyhall-backend/internal/database"
	"github.com/studyhall/studyhall-backend/internal/handler"
	"github.com/studyhall/studyhall-backend/internal/logger"
	"github.com/studyhall/studyhall-backend/internal/random"
	"github.com/studyhall/studyhall-backend/internal/repository"
	"github.com/studyhall/studyhall-backend/internal/router"
	"github.com/studyhall/studyhall-backend/internal/service"
	"github.com/studyhall/studyhall-backend/internal/validator"
	"github.com/studyhall/studyhall-backend/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting StudyHall Backend")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	for _, dir := range []string{cfg.UploadDir, cfg.ExportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("Failed to create data directory")
		}
	}

	userRepo := repository.NewUserRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	eventLogRepo := repository.NewEventLogRepository(pool)

	rng := random.New()

	logbook := service.NewLogbook(rdb, eventLogRepo, log)
	authService := service.NewAuthService(cfg, rdb)
	userService := service.NewUserService(userRepo, sessionRepo, resultRepo, authService, logbook, log)
	courseService := service.NewCourseService(courseRepo, sessionRepo, resultRepo, rng, logbook, cfg.BcryptCost, log)
	examService := service.NewExamSessionService(courseService, sessionRepo, resultRepo, logbook, log)
	exportService := service.NewExportService(courseRepo, resultRepo, cfg.ExportDir, log)
	mediaService := service.NewMediaService(cfg, rng)

	handlers := &router.Handlers{
		Auth:   handler.NewAuthHandler(authService, userService, mediaService),
		Course: handler.NewCourseHandler(courseService, exportService, mediaService),
		Exam:   handler.NewExamHandler(examService),
		Admin:  handler.NewAdminHandler(userService, logbook),
		WS:     handler.NewWSHandler(rdb, log, cfg.AllowedOrigins),
	}

	// Background worker draining the event queue into PostgreSQL.
	workerCtx, workerCancel := context.WithCancel(context.Background())

	eventWorker := worker.NewEventLogWorker(eventLogRepo, rdb, log)
	go eventWorker.Start(workerCtx)

	r := router.SetupRouter(authService, handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Stop the worker and let it drain the queue.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
