package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"quizlet/internal/adapter/llm"
	"quizlet/internal/adapter/pdftext"
	"quizlet/internal/adapter/quizgen"
	"quizlet/internal/config"
	"quizlet/internal/handler"
	"quizlet/internal/logger"
	"quizlet/internal/middleware"
	"quizlet/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		// Process request
		err := c.Next()

		// Log request details
		duration := time.Since(start)
		status := c.Response().StatusCode()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	appLogger := logger.Get()
	defer logger.Sync()
	if cfg.File != "" {
		appLogger.Info("Using config file", zap.String("path", cfg.File))
	}

	// Completion client
	completer, err := llm.NewCompleter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create completion client", zap.Error(err))
	}
	appLogger.Info("Completion client initialized",
		zap.String("client", cfg.LLM.Client),
		zap.String("model", cfg.LLM.Model))

	generator, err := quizgen.NewGenerator(completer, quizgen.Options{
		Timeout:    cfg.LLM.Timeout,
		MaxRetries: cfg.LLM.MaxRetries,
		RetryDelay: quizgen.DefaultRetryDelay,
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create quiz generator", zap.Error(err))
	}

	// Initialize services
	quizService := service.NewQuizService(pdftext.NewExtractor(appLogger), generator, cfg.Quiz.MaxSourceChars, appLogger)
	jobManager := service.NewJobManager(quizService, cfg.Quiz.JobRetention, appLogger)

	// Initialize handlers
	quizHandler := handler.NewQuizHandler(quizService, jobManager)
	validationMiddleware := middleware.NewValidationMiddleware(cfg.Quiz.DefaultQuestions)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(), // Global error handler
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept", MaxAge: 300}))
	app.Use(recover.New())

	handler.RegisterRoutes(app.Group("/api"), quizHandler, validationMiddleware)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", os.Getenv("ENV")))
		return app.Listen(":" + strconv.Itoa(cfg.Server.Port))
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			return err
		}
		return jobManager.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Fatal("Server stopped with error", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
