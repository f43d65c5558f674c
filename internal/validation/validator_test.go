package validation

import (
	"mime/multipart"
	"testing"

	"quizlet/internal/domain"
	"quizlet/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGenerateQuizRequest(t *testing.T) {
	upload := &multipart.FileHeader{Filename: "notes.pdf", Size: 1024}

	tests := []struct {
		name         string
		file         *multipart.FileHeader
		numQuestions string
		wantCount    int
		wantCodes    []domain.ErrorCode
	}{
		{"defaults", upload, "", 5, nil},
		{"explicit count", upload, "7", 7, nil},
		{"count with spaces", upload, " 3 ", 3, nil},
		{"lower bound", upload, "1", 1, nil},
		{"upper bound", upload, "10", 10, nil},
		{"zero", upload, "0", 5, []domain.ErrorCode{domain.CodeOutOfRange}},
		{"too many", upload, "11", 5, []domain.ErrorCode{domain.CodeOutOfRange}},
		{"not a number", upload, "five", 5, []domain.ErrorCode{domain.CodeInvalidFormat}},
		{"missing file", nil, "", 5, []domain.ErrorCode{domain.CodeMissingField}},
		{"empty file", &multipart.FileHeader{Filename: "empty.pdf"}, "", 5, []domain.ErrorCode{domain.CodeMissingField}},
		{"missing file and bad count", nil, "x", 5, []domain.ErrorCode{domain.CodeMissingField, domain.CodeInvalidFormat}},
	}

	v := NewValidator(5)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, errs := v.ValidateGenerateQuizRequest(tt.file, tt.numQuestions)

			assert.Equal(t, tt.wantCount, count)
			require.Len(t, errs, len(tt.wantCodes))
			for i, code := range tt.wantCodes {
				assert.Equal(t, code, errs[i].Code)
			}
		})
	}
}

func TestValidateGenerateQuizRequest_MissingFileMessage(t *testing.T) {
	_, errs := NewValidator(5).ValidateGenerateQuizRequest(nil, "")
	require.Len(t, errs, 1)
	assert.Equal(t, FieldFile, errs[0].Field)
	assert.Equal(t, domain.MsgMissingDocument, errs[0].Message)
}

func TestNewValidator_FallsBackToDefaultCount(t *testing.T) {
	count, errs := NewValidator(99).ValidateGenerateQuizRequest(&multipart.FileHeader{Size: 1}, "")
	assert.Empty(t, errs)
	assert.Equal(t, domain.DefaultQuestionCount, count)
}

func TestValidateJobID(t *testing.T) {
	v := NewValidator(5)

	assert.Empty(t, v.ValidateJobID(util.NewULID()))

	errs := v.ValidateJobID("")
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeMissingField, errs[0].Code)

	errs = v.ValidateJobID("not-a-ulid")
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeInvalidFormat, errs[0].Code)
}
