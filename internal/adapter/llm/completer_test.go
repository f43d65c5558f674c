package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"quizlet/internal/config"
	"quizlet/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPrompt = "Act as a teacher and create 2 multiple-choice questions"

// fakeProvider emulates the chat completions endpoint of an OpenAI-compatible API.
type fakeProvider struct {
	status  int
	content string
	calls   atomic.Int32
	body    atomic.Value
}

func (f *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
		http.NotFound(w, r)
		return
	}
	raw, _ := io.ReadAll(r.Body)
	f.body.Store(string(raw))

	w.Header().Set("Content-Type", "application/json")
	if f.status != http.StatusOK {
		w.WriteHeader(f.status)
		fmt.Fprintf(w, `{"error":{"message":"provider says no","type":"test_error","code":"test_error"}}`)
		return
	}
	resp := map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-3.5-turbo-16k",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": f.content},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *fakeProvider) lastBody() string {
	if v, ok := f.body.Load().(string); ok {
		return v
	}
	return ""
}

type completerFactory func(baseURL string) (domain.Completer, error)

func completers() map[string]completerFactory {
	return map[string]completerFactory{
		"langchain": func(baseURL string) (domain.Completer, error) {
			return NewLangchainCompleter("sk-test", "gpt-3.5-turbo-16k", baseURL, nil, zap.NewNop())
		},
		"openai-sdk": func(baseURL string) (domain.Completer, error) {
			return NewOpenAICompleter("sk-test", "gpt-3.5-turbo-16k", baseURL, nil, zap.NewNop())
		},
	}
}

func TestCompleters_Success(t *testing.T) {
	for name, newCompleter := range completers() {
		t.Run(name, func(t *testing.T) {
			provider := &fakeProvider{status: http.StatusOK, content: `{"questions": []}`}
			srv := httptest.NewServer(provider)
			defer srv.Close()

			c, err := newCompleter(srv.URL + "/v1")
			require.NoError(t, err)

			out, err := c.Complete(context.Background(), testPrompt)

			require.NoError(t, err)
			assert.Equal(t, `{"questions": []}`, out)
			assert.Equal(t, int32(1), provider.calls.Load())
			assert.Contains(t, provider.lastBody(), `"system"`)
			assert.Contains(t, provider.lastBody(), testPrompt)
			assert.Contains(t, provider.lastBody(), "gpt-3.5-turbo-16k")
		})
	}
}

func TestCompleters_ProviderStatusIsReported(t *testing.T) {
	tests := []struct {
		status        int
		wantTransient bool
	}{
		{http.StatusUnauthorized, false},
		{http.StatusBadRequest, false},
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
	}

	for name, newCompleter := range completers() {
		for _, tt := range tests {
			t.Run(fmt.Sprintf("%s/%d", name, tt.status), func(t *testing.T) {
				srv := httptest.NewServer(&fakeProvider{status: tt.status})
				defer srv.Close()

				c, err := newCompleter(srv.URL + "/v1")
				require.NoError(t, err)

				_, err = c.Complete(context.Background(), testPrompt)

				require.Error(t, err)
				var callErr *CallError
				require.True(t, errors.As(err, &callErr), "expected *CallError, got %T", err)
				assert.Equal(t, tt.status, callErr.StatusCode)
				assert.Equal(t, tt.wantTransient, IsTransient(err))
			})
		}
	}
}

func TestCompleters_EmptyCompletion(t *testing.T) {
	for name, newCompleter := range completers() {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(&fakeProvider{status: http.StatusOK, content: ""})
			defer srv.Close()

			c, err := newCompleter(srv.URL + "/v1")
			require.NoError(t, err)

			_, err = c.Complete(context.Background(), testPrompt)

			assert.ErrorIs(t, err, ErrEmptyCompletion)
			assert.False(t, IsTransient(err))
		})
	}
}

func TestCompleters_CanceledContext(t *testing.T) {
	for name, newCompleter := range completers() {
		t.Run(name, func(t *testing.T) {
			// the server only sees the client hang up once the body is consumed;
			// release unblocks the handler before Close either way
			release := make(chan struct{})
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				select {
				case <-r.Context().Done():
				case <-release:
				}
			}))
			defer srv.Close()
			defer close(release)

			c, err := newCompleter(srv.URL + "/v1")
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			start := time.Now()
			_, err = c.Complete(ctx, testPrompt)

			assert.ErrorIs(t, err, context.DeadlineExceeded)
			assert.False(t, IsTransient(err))
			assert.Less(t, time.Since(start), 5*time.Second)
		})
	}
}

func TestNewCompleters_RequireKeyAndModel(t *testing.T) {
	_, err := NewLangchainCompleter("", "m", "", nil, nil)
	assert.ErrorContains(t, err, "API key cannot be empty")
	_, err = NewLangchainCompleter("k", "", "", nil, nil)
	assert.ErrorContains(t, err, "model name cannot be empty")
	_, err = NewOpenAICompleter("", "m", "", nil, nil)
	assert.ErrorContains(t, err, "API key cannot be empty")
	_, err = NewOpenAICompleter("k", "", "", nil, nil)
	assert.ErrorContains(t, err, "model name cannot be empty")
}

func TestNewCompleter_SelectsClient(t *testing.T) {
	base := config.Config{
		LLM:          config.LLMConfig{Model: "gpt-3.5-turbo-16k", Timeout: time.Minute},
		OpenAIAPIKey: "sk-test",
	}

	cfg := base
	cfg.LLM.Client = config.LLMClientLangchain
	c, err := NewCompleter(&cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LangchainCompleter{}, c)

	cfg.LLM.Client = config.LLMClientOpenAISDK
	c, err = NewCompleter(&cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &OpenAICompleter{}, c)

	cfg.LLM.Client = "ollama"
	_, err = NewCompleter(&cfg, zap.NewNop())
	assert.True(t, domain.IsCode(err, domain.CodeConfiguration))

	cfg.LLM.Client = config.LLMClientLangchain
	cfg.OpenAIAPIKey = ""
	_, err = NewCompleter(&cfg, zap.NewNop())
	assert.True(t, domain.IsCode(err, domain.CodeConfiguration))
}

type timeoutNetError struct{}

func (timeoutNetError) Error() string   { return "i/o timeout" }
func (timeoutNetError) Timeout() bool   { return true }
func (timeoutNetError) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	var netErr net.Error = timeoutNetError{}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", fmt.Errorf("wrapped: %w", context.Canceled), false},
		{"deadline", context.DeadlineExceeded, false},
		{"unauthorized", &CallError{Provider: "p", StatusCode: 401, Err: errors.New("bad key")}, false},
		{"forbidden", &CallError{Provider: "p", StatusCode: 403, Err: errors.New("nope")}, false},
		{"request timeout", &CallError{Provider: "p", StatusCode: 408, Err: errors.New("slow")}, true},
		{"rate limited", &CallError{Provider: "p", StatusCode: 429, Err: errors.New("slow down")}, true},
		{"bad gateway", &CallError{Provider: "p", StatusCode: 502, Err: errors.New("upstream")}, true},
		{"network", &CallError{Provider: "p", Err: fmt.Errorf("dial: %w", netErr)}, true},
		{"empty completion", &CallError{Provider: "p", Err: ErrEmptyCompletion}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestStatusFromMessage(t *testing.T) {
	assert.Equal(t, 503, statusFromMessage(errors.New("API returned unexpected status code: 503: overloaded")))
	assert.Equal(t, 401, statusFromMessage(errors.New("status code 401")))
	assert.Equal(t, 0, statusFromMessage(errors.New("connection reset by peer")))
}
