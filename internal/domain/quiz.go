package domain

import (
	"fmt"
)

const (
	MinQuestionCount     = 1
	MaxQuestionCount     = 10
	DefaultQuestionCount = 5
)

// Question is a single multiple-choice question.
type Question struct {
	ID            int      `json:"id"`
	Prompt        string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// HasOption reports whether answer exactly matches one of the options.
func (q Question) HasOption(answer string) bool {
	for _, opt := range q.Options {
		if opt == answer {
			return true
		}
	}
	return false
}

// Quiz is the validated result of one generation call.
// It is built once and not mutated afterwards.
type Quiz struct {
	Questions []Question
	Requested int
	Warnings  []string
}

// Len returns the number of questions in the quiz
func (q *Quiz) Len() int {
	if q == nil {
		return 0
	}
	return len(q.Questions)
}

// GenerationRequest is the input of the quiz generator.
type GenerationRequest struct {
	SourceText           string
	DesiredQuestionCount int
}

// NewGenerationRequest creates a validated GenerationRequest
func NewGenerationRequest(sourceText string, desiredQuestionCount int) (GenerationRequest, error) {
	req := GenerationRequest{
		SourceText:           sourceText,
		DesiredQuestionCount: desiredQuestionCount,
	}
	return req, req.Validate()
}

// Validate validates the generation request
func (r GenerationRequest) Validate() error {
	if r.DesiredQuestionCount < MinQuestionCount || r.DesiredQuestionCount > MaxQuestionCount {
		return NewInvalidInputError(fmt.Sprintf("number of questions must be between %d and %d, got %d",
			MinQuestionCount, MaxQuestionCount, r.DesiredQuestionCount))
	}
	return nil
}

// ClampQuestionCount forces n into the supported range.
func ClampQuestionCount(n int) int {
	if n < MinQuestionCount {
		return MinQuestionCount
	}
	if n > MaxQuestionCount {
		return MaxQuestionCount
	}
	return n
}

// ExtractionResult is the text pulled out of a document.
type ExtractionResult struct {
	// Text is the concatenation of every non-empty page, in page order.
	Text string
	// PageCount is the number of pages in the document.
	PageCount int
	// SkippedPages holds the 1-based numbers of pages that produced no text.
	SkippedPages []int
}
