package handler

import (
	"fmt"
	"io"
	"mime/multipart"

	"quizlet/internal/domain"
	"quizlet/internal/dto"
	"quizlet/internal/logger"
	"quizlet/internal/middleware"
	"quizlet/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// QuizHandler handles quiz-related HTTP requests
type QuizHandler struct {
	quizzes service.QuizService
	jobs    service.JobService
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(quizzes service.QuizService, jobs service.JobService) *QuizHandler {
	return &QuizHandler{
		quizzes: quizzes,
		jobs:    jobs,
	}
}

// Health godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (h *QuizHandler) Health(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{Status: "ok"})
}

// GenerateQuiz godoc
// @Summary Generate a quiz from a PDF
// @Description Extracts the text of the uploaded PDF and generates multiple-choice questions from it
// @Tags quiz
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF document"
// @Param num_questions formData int false "Number of questions (1-10)"
// @Success 200 {object} dto.QuizResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Failure 504 {object} middleware.ErrorResponse
// @Router /quizzes [post]
func (h *QuizHandler) GenerateQuiz(c *fiber.Ctx) error {
	document, numQuestions, err := uploadFromLocals(c)
	if err != nil {
		return err
	}

	quiz, err := h.quizzes.GenerateFromDocument(c.UserContext(), document, numQuestions)
	if err != nil {
		logger.Get().Error("Failed to generate quiz",
			zap.Error(err),
			zap.Int("num_questions", numQuestions),
		)
		return err
	}

	return c.JSON(quiz)
}

// SubmitQuizJob godoc
// @Summary Start an asynchronous quiz generation
// @Tags quiz-jobs
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF document"
// @Param num_questions formData int false "Number of questions (1-10)"
// @Success 202 {object} dto.JobResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /quiz-jobs [post]
func (h *QuizHandler) SubmitQuizJob(c *fiber.Ctx) error {
	document, numQuestions, err := uploadFromLocals(c)
	if err != nil {
		return err
	}

	job, err := h.jobs.Submit(document, numQuestions)
	if err != nil {
		return err
	}

	c.Location(fmt.Sprintf("%s/%s", c.Path(), job.JobID))
	return c.Status(fiber.StatusAccepted).JSON(job)
}

// GetQuizJob godoc
// @Summary Get the state of a quiz generation job
// @Tags quiz-jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} dto.JobResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quiz-jobs/{id} [get]
func (h *QuizHandler) GetQuizJob(c *fiber.Ctx) error {
	job, err := h.jobs.Get(jobIDFromLocals(c))
	if err != nil {
		return err
	}
	return c.JSON(job)
}

// CancelQuizJob godoc
// @Summary Cancel a running quiz generation job
// @Tags quiz-jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} dto.JobResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quiz-jobs/{id} [delete]
func (h *QuizHandler) CancelQuizJob(c *fiber.Ctx) error {
	job, err := h.jobs.Cancel(jobIDFromLocals(c))
	if err != nil {
		return err
	}
	return c.JSON(job)
}

func uploadFromLocals(c *fiber.Ctx) ([]byte, int, error) {
	file, ok := c.Locals(middleware.LocalFile).(*multipart.FileHeader)
	if !ok || file == nil {
		return nil, 0, domain.NewInvalidInputError(domain.MsgMissingDocument)
	}
	numQuestions, ok := c.Locals(middleware.LocalNumQuestions).(int)
	if !ok {
		numQuestions = domain.DefaultQuestionCount
	}

	document, err := readUpload(file)
	if err != nil {
		return nil, 0, domain.NewInternalError("Failed to read uploaded file", err)
	}
	return document, numQuestions, nil
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", file.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %q: %w", file.Filename, err)
	}
	return data, nil
}

func jobIDFromLocals(c *fiber.Ctx) string {
	if id, ok := c.Locals(middleware.LocalJobID).(string); ok {
		return id
	}
	return c.Params("id")
}
