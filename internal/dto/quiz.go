package dto

import (
	"time"

	"quizlet/internal/domain"
)

// QuestionResponse represents one multiple-choice question in the API response
// @Description Generated multiple-choice question
type QuestionResponse struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// QuizResponse represents a generated quiz in the API response
// @Description Generated quiz
type QuizResponse struct {
	Questions    []QuestionResponse `json:"questions"`
	Requested    int                `json:"requested"`
	PageCount    int                `json:"page_count"`
	SkippedPages []int              `json:"skipped_pages,omitempty"`
	Warnings     []string           `json:"warnings,omitempty"`
}

// NewQuizResponse maps a generated quiz and the extraction it came from to the API shape.
func NewQuizResponse(quiz *domain.Quiz, extraction *domain.ExtractionResult) *QuizResponse {
	resp := &QuizResponse{
		Questions: make([]QuestionResponse, 0, quiz.Len()),
	}
	if quiz != nil {
		resp.Requested = quiz.Requested
		resp.Warnings = append(resp.Warnings, quiz.Warnings...)
		for _, q := range quiz.Questions {
			resp.Questions = append(resp.Questions, QuestionResponse{
				ID:            q.ID,
				Question:      q.Prompt,
				Options:       append([]string(nil), q.Options...),
				CorrectAnswer: q.CorrectAnswer,
			})
		}
	}
	if extraction != nil {
		resp.PageCount = extraction.PageCount
		resp.SkippedPages = append(resp.SkippedPages, extraction.SkippedPages...)
	}
	return resp
}

// JobStatus is the lifecycle state of an asynchronous generation job.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// Done reports whether the job has reached a final state.
func (s JobStatus) Done() bool {
	return s != JobStatusRunning
}

// JobError is the user-facing failure of a job.
type JobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JobResponse represents an asynchronous generation job
// @Description Quiz generation job
type JobResponse struct {
	JobID      string        `json:"job_id"`
	Status     JobStatus     `json:"status"`
	Requested  int           `json:"requested"`
	CreatedAt  time.Time     `json:"created_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Quiz       *QuizResponse `json:"quiz,omitempty"`
	Error      *JobError     `json:"error,omitempty"`
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}
