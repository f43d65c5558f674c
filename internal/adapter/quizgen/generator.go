package quizgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizlet/internal/adapter/llm"
	"quizlet/internal/domain"

	"go.uber.org/zap"
)

// Options tunes a Generator. A zero Timeout falls back to DefaultTimeout.
type Options struct {
	// Timeout bounds the whole generation, retries included.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after a transient failure (0 or 1).
	MaxRetries int
	// RetryDelay is the pause before the retry; zero retries immediately.
	RetryDelay time.Duration
}

const (
	DefaultTimeout    = 60 * time.Second
	DefaultRetryDelay = time.Second
)

// Generator implements domain.QuizGenerationService on top of a Completer.
type Generator struct {
	completer domain.Completer
	opts      Options
	logger    *zap.Logger
}

// NewGenerator creates a new quiz generator.
func NewGenerator(completer domain.Completer, opts Options, logger *zap.Logger) (*Generator, error) {
	if completer == nil {
		return nil, fmt.Errorf("completer cannot be nil")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.MaxRetries > 1 {
		opts.MaxRetries = 1
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{completer: completer, opts: opts, logger: logger}, nil
}

// Generate builds the prompt, calls the completion service and validates the result.
// It returns GENERATION_ERROR/GENERATION_TIMEOUT for service failures and
// SCHEMA_VALIDATION_ERROR for malformed output. Validation failures are never retried.
func (g *Generator) Generate(ctx context.Context, sourceText string, desiredQuestionCount int) (*domain.Quiz, error) {
	req, err := domain.NewGenerationRequest(sourceText, desiredQuestionCount)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(req.SourceText, req.DesiredQuestionCount)
	g.logger.Debug("Built quiz prompt",
		zap.Int("num_questions", req.DesiredQuestionCount),
		zap.Int("prompt_chars", len(prompt)))

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := g.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("Raw completion received", zap.String("raw_response", raw), zap.Duration("elapsed", time.Since(start)))

	questions, err := ParseQuestions(raw)
	if err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			g.logger.Warn("Completion failed quiz validation",
				zap.Any("details", domainErr.Details),
				zap.Error(domainErr.Err))
		}
		return nil, err
	}

	quiz := applyCountPolicy(questions, req.DesiredQuestionCount)
	for _, w := range quiz.Warnings {
		g.logger.Warn("Question count mismatch", zap.String("warning", w))
	}

	g.logger.Info("Generated quiz",
		zap.Int("requested", req.DesiredQuestionCount),
		zap.Int("returned", quiz.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return quiz, nil
}

// complete calls the completer, retrying once on transient failures while the
// overall deadline still allows it.
func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= g.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying completion after transient failure",
				zap.Int("attempt", attempt+1),
				zap.Error(lastErr))
			if err := sleepCtx(ctx, g.opts.RetryDelay); err != nil {
				return "", classifyCallError(ctx, err)
			}
		}

		raw, err := g.completer.Complete(ctx, prompt)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if ctx.Err() != nil || !llm.IsTransient(err) {
			break
		}
	}

	g.logger.Error("Completion failed", zap.Error(lastErr))
	return "", classifyCallError(ctx, lastErr)
}

func classifyCallError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewGenerationTimeoutError(err)
	}
	return domain.NewGenerationError(err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// applyCountPolicy keeps at most want questions (in their original order) and
// records a warning whenever the model did not honour the requested count.
func applyCountPolicy(questions []domain.Question, want int) *domain.Quiz {
	quiz := &domain.Quiz{Requested: want}
	switch {
	case len(questions) > want:
		quiz.Warnings = append(quiz.Warnings,
			fmt.Sprintf("received %d questions, kept the first %d", len(questions), want))
		questions = questions[:want]
	case len(questions) < want:
		quiz.Warnings = append(quiz.Warnings,
			fmt.Sprintf("requested %d questions but only %d were generated", want, len(questions)))
	}
	quiz.Questions = questions
	return quiz
}

// Static assertion to ensure Generator implements QuizGenerationService
var _ domain.QuizGenerationService = (*Generator)(nil)
