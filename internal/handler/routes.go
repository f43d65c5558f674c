package handler

import (
	"quizlet/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the quiz API under router (normally the /api group).
func RegisterRoutes(router fiber.Router, h *QuizHandler, validator *middleware.ValidationMiddleware) {
	router.Get("/health", h.Health)

	router.Post("/quizzes", validator.ValidateQuizUpload(), h.GenerateQuiz)

	jobs := router.Group("/quiz-jobs")
	jobs.Post("/", validator.ValidateQuizUpload(), h.SubmitQuizJob)
	jobs.Get("/:id", validator.ValidateJobID(), h.GetQuizJob)
	jobs.Delete("/:id", validator.ValidateJobID(), h.CancelQuizJob)
}
