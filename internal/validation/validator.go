package validation

import (
	"mime/multipart"
	"strconv"
	"strings"

	"quizlet/internal/domain"
	"quizlet/internal/util"
)

// Form field names accepted by the quiz endpoints
const (
	FieldFile         = "file"
	FieldNumQuestions = "num_questions"
	FieldJobID        = "id"
)

// Validator provides request validation functionality
type Validator struct {
	defaultQuestions int
}

// NewValidator creates a new validator instance. defaultQuestions is used
// when a request omits num_questions.
func NewValidator(defaultQuestions int) *Validator {
	if defaultQuestions < domain.MinQuestionCount || defaultQuestions > domain.MaxQuestionCount {
		defaultQuestions = domain.DefaultQuestionCount
	}
	return &Validator{defaultQuestions: defaultQuestions}
}

// ValidateGenerateQuizRequest validates an upload and resolves the question count.
func (v *Validator) ValidateGenerateQuizRequest(file *multipart.FileHeader, numQuestions string) (int, domain.ValidationErrors) {
	var errors domain.ValidationErrors

	if file == nil || file.Size == 0 {
		errors = append(errors, domain.NewMissingFieldError(FieldFile, domain.MsgMissingDocument))
	}

	count := v.defaultQuestions
	if raw := strings.TrimSpace(numQuestions); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			errors = append(errors, domain.NewInvalidFormatError(FieldNumQuestions, numQuestions))
		case n < domain.MinQuestionCount || n > domain.MaxQuestionCount:
			errors = append(errors, domain.NewOutOfRangeError(FieldNumQuestions, n, domain.MinQuestionCount, domain.MaxQuestionCount))
		default:
			count = n
		}
	}

	return count, errors
}

// ValidateJobID validates a job id path parameter
func (v *Validator) ValidateJobID(id string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(id) == "" {
		errors = append(errors, domain.NewMissingFieldError(FieldJobID, "job id is required"))
	} else if !util.IsULID(id) {
		errors = append(errors, domain.NewInvalidFormatError(FieldJobID, id))
	}

	return errors
}
