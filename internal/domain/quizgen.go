package domain

import (
	"context"
)

// TextExtractor pulls the plain text out of a document.
type TextExtractor interface {
	// Extract returns the text of every page that yields any, in page order.
	// A document without extractable text is not an error.
	Extract(ctx context.Context, document []byte) (*ExtractionResult, error)
}

// Completer is the port to the external text-generation service.
type Completer interface {
	// Complete sends prompt as a single system message and returns the completion text.
	Complete(ctx context.Context, prompt string) (string, error)
}

// QuizGenerationService turns source text into a validated quiz.
type QuizGenerationService interface {
	Generate(ctx context.Context, sourceText string, desiredQuestionCount int) (*Quiz, error)
}
