// Command quizcli generates a multiple-choice quiz from a PDF and lets you
// test yourself in the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizlet/internal/adapter/llm"
	"quizlet/internal/adapter/pdftext"
	"quizlet/internal/adapter/quizgen"
	"quizlet/internal/config"
	"quizlet/internal/domain"
	"quizlet/internal/logger"
	"quizlet/internal/render"
	"quizlet/internal/service"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		os.Exit(1)
	}
}

func run() error {
	filePath := flag.String("file", "", "path to the PDF document")
	numQuestions := flag.Int("n", 0,
		fmt.Sprintf("number of questions (%d-%d, default quiz.default_questions)", domain.MinQuestionCount, domain.MaxQuestionCount))
	verbose := flag.Bool("v", false, "log pipeline details to stderr")
	flag.Parse()

	if *filePath == "" {
		flag.Usage()
		return domain.NewInvalidInputError(domain.MsgMissingDocument)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if !flagPassed("n") {
		*numQuestions = cfg.Quiz.DefaultQuestions
	}

	// Keep stdout for the quiz itself.
	cfg.Logger.Output = "stderr"
	if !*verbose {
		cfg.Logger.Level = "error"
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()
	if cfg.File != "" {
		appLogger.Debug("Using config file", zap.String("path", cfg.File))
	}

	count := domain.ClampQuestionCount(*numQuestions)
	if count != *numQuestions {
		fmt.Fprintf(os.Stderr, "Number of questions clamped to %d\n", count)
	}

	document, err := os.ReadFile(*filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", *filePath, err)
	}

	completer, err := llm.NewCompleter(cfg, appLogger)
	if err != nil {
		return err
	}
	generator, err := quizgen.NewGenerator(completer, quizgen.Options{
		Timeout:    cfg.LLM.Timeout,
		MaxRetries: cfg.LLM.MaxRetries,
		RetryDelay: quizgen.DefaultRetryDelay,
	}, appLogger)
	if err != nil {
		return err
	}
	quizService := service.NewQuizService(pdftext.NewExtractor(appLogger), generator, cfg.Quiz.MaxSourceChars, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stopSpinner := render.Spinner(ctx, os.Stderr, "Generating questions...", isatty.IsTerminal(os.Stderr.Fd()), 120*time.Millisecond)
	quiz, err := quizService.GenerateFromDocument(ctx, document, count)
	stopSpinner()
	if err != nil {
		appLogger.Error("Quiz generation failed", zap.Error(err))
		return err
	}

	return render.NewTerminal(os.Stdin, os.Stdout).RenderQuiz(quiz)
}

func flagPassed(name string) bool {
	passed := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			passed = true
		}
	})
	return passed
}

// userMessage prefers the user-facing message of a domain error.
func userMessage(err error) string {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
