package middleware

import (
	"quizlet/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Locals keys populated by the validation middleware
const (
	LocalFile         = "validated_file"
	LocalNumQuestions = "validated_num_questions"
	LocalJobID        = "validated_job_id"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware(defaultQuestions int) *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(defaultQuestions),
	}
}

// ValidateQuizUpload validates the multipart PDF upload and the num_questions field
func (vm *ValidationMiddleware) ValidateQuizUpload() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// A missing part is reported by the validator, not as a parse failure.
		file, _ := c.FormFile(validation.FieldFile)

		count, errors := vm.validator.ValidateGenerateQuizRequest(file, c.FormValue(validation.FieldNumQuestions))
		if len(errors) > 0 {
			return errors // This will be handled by ErrorHandler middleware
		}

		// Store validated values in context for handlers to use
		c.Locals(LocalFile, file)
		c.Locals(LocalNumQuestions, count)
		return c.Next()
	}
}

// ValidateJobID validates the :id path parameter of the job routes
func (vm *ValidationMiddleware) ValidateJobID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if errors := vm.validator.ValidateJobID(id); len(errors) > 0 {
			return errors
		}

		c.Locals(LocalJobID, id)
		return c.Next()
	}
}
