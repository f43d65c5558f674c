package service

import (
	"context"

	"quizlet/internal/domain"
	"quizlet/internal/dto"

	"github.com/stretchr/testify/mock"
)

// --- MockTextExtractor ---
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) Extract(ctx context.Context, document []byte) (*domain.ExtractionResult, error) {
	args := m.Called(ctx, document)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionResult), args.Error(1)
}

// --- MockQuizGenerator ---
type MockQuizGenerator struct {
	mock.Mock
}

func (m *MockQuizGenerator) Generate(ctx context.Context, sourceText string, desiredQuestionCount int) (*domain.Quiz, error) {
	args := m.Called(ctx, sourceText, desiredQuestionCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quiz), args.Error(1)
}

// --- MockQuizService ---
type MockQuizService struct {
	mock.Mock
}

func (m *MockQuizService) GenerateFromDocument(ctx context.Context, document []byte, numQuestions int) (*dto.QuizResponse, error) {
	args := m.Called(ctx, document, numQuestions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.QuizResponse), args.Error(1)
}

func sampleQuiz(requested int, ids ...int) *domain.Quiz {
	quiz := &domain.Quiz{Requested: requested}
	for _, id := range ids {
		quiz.Questions = append(quiz.Questions, domain.Question{
			ID:            id,
			Prompt:        "What is an opcode?",
			Options:       []string{"A. A register", "B. A mnemonic for a machine instruction"},
			CorrectAnswer: "B. A mnemonic for a machine instruction",
		})
	}
	return quiz
}
