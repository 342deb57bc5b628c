package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/leakprobe/internal/model"
)

var testItems = []model.JudgeItem{
	{QuestionID: "q1", QuestionText: "Did the minister say Taiwan has plans to produce tanks?", ClaimText: "Minister Kao said Taiwan has plans to produce tanks.", Style: model.StyleTargeted},
	{QuestionID: "q2", QuestionText: "What did officials discuss in 1975?", ClaimText: "The ambassador met Minister Kao.", Style: model.StyleContextual},
}

const testVerdictJSON = `{"verdicts": [{"question_id": "q1", "verdict": "LEAK", "confidence": "high", "reason": "restates the claim"}, {"question_id": "q2", "verdict": "ok", "confidence": "Medium"}]}`

func TestOpenAIProvider_Judge_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
			t.Error("Expected JSON response format")
		}
		if len(req.Messages) != 2 || !strings.Contains(req.Messages[1].Content, `"question_id":"q2"`) {
			t.Errorf("Expected both items in the user prompt, got %+v", req.Messages)
		}

		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-123",
			Object: "chat.completion",
			Model:  "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{
				{
					Index: 0,
					Message: openai.ChatCompletionMessage{
						Role:    "assistant",
						Content: testVerdictJSON,
					},
					FinishReason: "stop",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	verdicts, err := provider.Judge(context.Background(), testItems)
	if err != nil {
		t.Fatalf("Judge failed: %v", err)
	}

	if len(verdicts) != 2 {
		t.Fatalf("Expected 2 verdicts, got %d", len(verdicts))
	}
	if verdicts[0].Verdict != model.VerdictLeak || verdicts[0].Confidence != model.ConfidenceHigh {
		t.Errorf("Unexpected first verdict: %+v", verdicts[0])
	}
	if verdicts[1].Verdict != model.VerdictOK || verdicts[1].Confidence != model.ConfidenceMedium {
		t.Errorf("Unexpected second verdict: %+v", verdicts[1])
	}
}

func TestOpenAIProvider_MissingKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}); err == nil {
		t.Fatal("Expected error without API key")
	}
}

func TestOpenAIProvider_Judge_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Judge(context.Background(), testItems)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if IsPermanent(err) {
		t.Errorf("Expected 500 to be retryable, got %v", err)
	}
}

func TestOpenAIProvider_Judge_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "bad-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Judge(context.Background(), testItems)
	if !IsPermanent(err) {
		t.Errorf("Expected permanent error for 401, got %v", err)
	}
}

func TestOpenAIProvider_Judge_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit exceeded", "type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Judge(context.Background(), testItems)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if IsPermanent(err) {
		t.Errorf("Expected 429 to be retryable, got %v", err)
	}
}

func TestOpenAIProvider_Judge_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{malformed json`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Judge(context.Background(), testItems); err == nil {
		t.Fatal("Expected error for malformed JSON, got nil")
	}
}

func TestOpenAIProvider_Judge_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 1})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	// The caller's deadline is shorter than the configured timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := provider.Judge(ctx, testItems); err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
}

func TestOpenAIProvider_Judge_Empty(t *testing.T) {
	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	verdicts, err := provider.Judge(context.Background(), nil)
	if err != nil || verdicts != nil {
		t.Errorf("Expected no call for empty batch, got %v, %v", verdicts, err)
	}
}

func TestOpenAIProvider_CheckAvailable(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() && r.URL.Path == "/models" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"data": [{"id": "gpt-4o-mini"}]}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if err := provider.CheckAvailable(context.Background()); err != nil {
		t.Errorf("Expected provider to be available, got %v", err)
	}

	healthy.Store(false)
	if provider.CheckAvailable(context.Background()) == nil {
		t.Error("Expected an error when the backend fails")
	}
}
