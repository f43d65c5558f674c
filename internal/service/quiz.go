package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"quizlet/internal/domain"
	"quizlet/internal/dto"

	"go.uber.org/zap"
)

// QuizService defines the interface for quiz-related operations
type QuizService interface {
	GenerateFromDocument(ctx context.Context, document []byte, numQuestions int) (*dto.QuizResponse, error)
}

// quizService implements QuizService
type quizService struct {
	extractor      domain.TextExtractor
	generator      domain.QuizGenerationService
	maxSourceChars int
	logger         *zap.Logger
}

// NewQuizService creates a new instance of quizService.
// maxSourceChars <= 0 disables truncation of the extracted text.
func NewQuizService(
	extractor domain.TextExtractor,
	generator domain.QuizGenerationService,
	maxSourceChars int,
	logger *zap.Logger,
) QuizService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &quizService{
		extractor:      extractor,
		generator:      generator,
		maxSourceChars: maxSourceChars,
		logger:         logger,
	}
}

// GenerateFromDocument runs document -> text -> quiz. Input problems are reported
// before anything is sent to the completion service.
func (s *quizService) GenerateFromDocument(ctx context.Context, document []byte, numQuestions int) (*dto.QuizResponse, error) {
	if len(document) == 0 {
		return nil, domain.NewInvalidInputError(domain.MsgMissingDocument)
	}
	if err := (domain.GenerationRequest{DesiredQuestionCount: numQuestions}).Validate(); err != nil {
		return nil, err
	}

	extraction, err := s.extractor.Extract(ctx, document)
	if err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) || ctx.Err() != nil {
			return nil, err
		}
		return nil, domain.NewDocumentFormatError(err)
	}

	if strings.TrimSpace(extraction.Text) == "" {
		s.logger.Info("Document has no extractable text",
			zap.Int("page_count", extraction.PageCount),
			zap.Ints("skipped_pages", extraction.SkippedPages))
		return nil, domain.NewInvalidInputError(domain.MsgNoText)
	}

	sourceText, truncated := truncateRunes(extraction.Text, s.maxSourceChars)
	if truncated {
		s.logger.Warn("Source text truncated",
			zap.Int("original_chars", utf8.RuneCountInString(extraction.Text)),
			zap.Int("max_chars", s.maxSourceChars))
	}

	quiz, err := s.generator.Generate(ctx, sourceText, numQuestions)
	if err != nil {
		return nil, err
	}

	resp := dto.NewQuizResponse(quiz, extraction)
	if truncated {
		resp.Warnings = append([]string{
			fmt.Sprintf("source text was truncated to the first %d characters", s.maxSourceChars),
		}, resp.Warnings...)
	}
	return resp, nil
}

// truncateRunes cuts s to at most max runes without splitting a character.
func truncateRunes(s string, max int) (string, bool) {
	if max <= 0 || len(s) <= max {
		return s, false
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i], true
		}
		count++
	}
	return s, false
}
