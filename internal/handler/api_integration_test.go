package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"quizlet/internal/adapter/llm"
	"quizlet/internal/adapter/pdftext"
	"quizlet/internal/adapter/quizgen"
	"quizlet/internal/config"
	"quizlet/internal/domain"
	"quizlet/internal/dto"
	"quizlet/internal/handler"
	"quizlet/internal/middleware"
	"quizlet/internal/service"
	"quizlet/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// chatProvider answers OpenAI-style chat completion requests with a scripted
// sequence of status codes; the last entry repeats.
type chatProvider struct {
	statuses []int
	content  string
	calls    atomic.Int32
}

func (p *chatProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := int(p.calls.Add(1))
	status := p.statuses[len(p.statuses)-1]
	if n <= len(p.statuses) {
		status = p.statuses[n-1]
	}

	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
		fmt.Fprint(w, `{"error":{"message":"upstream unavailable","type":"server_error"}}`)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-integration",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-3.5-turbo-16k",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": p.content},
			"finish_reason": "stop",
		}},
	})
}

// newStack wires the real pipeline against a fake provider.
func newStack(t *testing.T, client string, provider *chatProvider) (*fiber.App, *service.JobManager) {
	t.Helper()
	srv := httptest.NewServer(provider)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		LLM: config.LLMConfig{
			Client:     client,
			Model:      "gpt-3.5-turbo-16k",
			BaseURL:    srv.URL + "/v1",
			Timeout:    5 * time.Second,
			MaxRetries: 1,
		},
		Quiz:         config.QuizConfig{DefaultQuestions: 5, MaxSourceChars: 40000, JobRetention: time.Minute},
		OpenAIAPIKey: "sk-integration",
	}
	require.NoError(t, cfg.Validate())

	completer, err := llm.NewCompleter(cfg, zap.NewNop())
	require.NoError(t, err)
	generator, err := quizgen.NewGenerator(completer, quizgen.Options{
		Timeout:    cfg.LLM.Timeout,
		MaxRetries: cfg.LLM.MaxRetries,
	}, zap.NewNop())
	require.NoError(t, err)

	quizzes := service.NewQuizService(pdftext.NewExtractor(zap.NewNop()), generator, cfg.Quiz.MaxSourceChars, zap.NewNop())
	jobs := service.NewJobManager(quizzes, cfg.Quiz.JobRetention, zap.NewNop())

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	handler.RegisterRoutes(app.Group("/api"), handler.NewQuizHandler(quizzes, jobs), middleware.NewValidationMiddleware(cfg.Quiz.DefaultQuestions))
	return app, jobs
}

func postPDF(t *testing.T, app *fiber.App, target string, document []byte, numQuestions string) *http.Response {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", "lecture.pdf")
	require.NoError(t, err)
	_, err = part.Write(document)
	require.NoError(t, err)
	if numQuestions != "" {
		require.NoError(t, w.WriteField("num_questions", numQuestions))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req, 10_000)
	require.NoError(t, err)
	return resp
}

func cloneResponseBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	bodyBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	return bodyBytes
}

func lectureNotes() []byte {
	return testutil.BuildPDF(
		"Assembler directives provide information to the assembler.",
		"",
		"Opcodes are mnemonic codes representing machine instructions.",
	)
}

func TestAPI_GenerateQuiz_EndToEnd(t *testing.T) {
	for _, client := range []string{config.LLMClientLangchain, config.LLMClientOpenAISDK} {
		t.Run(client, func(t *testing.T) {
			provider := &chatProvider{statuses: []int{http.StatusOK}, content: quizgen.ExampleResponse}
			app, _ := newStack(t, client, provider)

			resp := postPDF(t, app, "/api/quizzes", lectureNotes(), "5")
			raw := cloneResponseBody(t, resp)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

			var quiz dto.QuizResponse
			require.NoError(t, json.Unmarshal(raw, &quiz))
			require.Len(t, quiz.Questions, 2)
			assert.Equal(t, 1, quiz.Questions[0].ID)
			assert.Equal(t, 2, quiz.Questions[1].ID)
			for _, q := range quiz.Questions {
				assert.Len(t, q.Options, 4)
				assert.Contains(t, q.Options, q.CorrectAnswer)
			}
			assert.Equal(t, 5, quiz.Requested)
			assert.Equal(t, 3, quiz.PageCount)
			assert.Equal(t, []int{2}, quiz.SkippedPages)
			require.Len(t, quiz.Warnings, 1)
			assert.Contains(t, quiz.Warnings[0], "only 2 were generated")
			assert.Equal(t, int32(1), provider.calls.Load())
		})
	}
}

func TestAPI_GenerateQuiz_TransientFailureIsRetriedOnce(t *testing.T) {
	provider := &chatProvider{statuses: []int{http.StatusServiceUnavailable, http.StatusOK}, content: quizgen.ExampleResponse}
	app, _ := newStack(t, config.LLMClientOpenAISDK, provider)

	resp := postPDF(t, app, "/api/quizzes", lectureNotes(), "2")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), provider.calls.Load())
}

func TestAPI_GenerateQuiz_ProviderDown(t *testing.T) {
	provider := &chatProvider{statuses: []int{http.StatusServiceUnavailable}}
	app, _ := newStack(t, config.LLMClientOpenAISDK, provider)

	resp := postPDF(t, app, "/api/quizzes", lectureNotes(), "2")

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var body middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, domain.MsgGeneration, body.Message)
	assert.Equal(t, int32(2), provider.calls.Load(), "one call plus a single retry")
}

func TestAPI_GenerateQuiz_MalformedCompletion(t *testing.T) {
	provider := &chatProvider{statuses: []int{http.StatusOK}, content: "Sorry, I can only answer in prose."}
	app, _ := newStack(t, config.LLMClientLangchain, provider)

	resp := postPDF(t, app, "/api/quizzes", lectureNotes(), "2")

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var body middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, string(domain.CodeSchemaValidation), body.Code)
	assert.Equal(t, domain.MsgSchemaValidation, body.Message)
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestAPI_GenerateQuiz_InvalidDocuments(t *testing.T) {
	provider := &chatProvider{statuses: []int{http.StatusOK}, content: quizgen.ExampleResponse}
	app, _ := newStack(t, config.LLMClientLangchain, provider)

	resp := postPDF(t, app, "/api/quizzes", []byte("this is a plain text file"), "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = postPDF(t, app, "/api/quizzes", testutil.BuildPDF("", " "), "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, int32(0), provider.calls.Load(), "nothing reaches the provider for unusable documents")
}

func TestAPI_QuizJob_Lifecycle(t *testing.T) {
	provider := &chatProvider{statuses: []int{http.StatusOK}, content: quizgen.ExampleResponse}
	app, jobs := newStack(t, config.LLMClientLangchain, provider)

	resp := postPDF(t, app, "/api/quiz-jobs", lectureNotes(), "2")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var submitted dto.JobResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&submitted))
	require.NotEmpty(t, submitted.JobID)

	var polled dto.JobResponse
	require.Eventually(t, func() bool {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/quiz-jobs/"+submitted.JobID, nil))
		if err != nil || resp.StatusCode != http.StatusOK {
			return false
		}
		polled = dto.JobResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&polled); err != nil {
			return false
		}
		return polled.Status.Done()
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, dto.JobStatusSucceeded, polled.Status)
	require.NotNil(t, polled.Quiz)
	assert.Len(t, polled.Quiz.Questions, 2)
	assert.Empty(t, polled.Quiz.Warnings)

	_, err := jobs.Get(submitted.JobID)
	assert.NoError(t, err)
}
