package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/apperr"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/config"
)

// TestGeminiGenerate проверяет запрос структурированного ответа и передачу ключа в заголовке.
func TestGeminiGenerate(t *testing.T) {
	var captured geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/test-model:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "" {
			t.Error("api key must not be sent in the query")
		}
		if r.Header.Get("x-goog-api-key") != "secret" {
			t.Errorf("unexpected api key header %q", r.Header.Get("x-goog-api-key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"{\"planTitle\":"},{"text":"\"T\",\"details\":[]}"}]},"finishReason":"STOP"}]}`)
	}))
	defer server.Close()

	client := NewGeminiClient("secret", server.URL+"/", "test-model", time.Second, 0)
	schema := &Schema{Type: TypeObject, Required: []string{"planTitle"}}

	result, err := client.Generate(context.Background(), GenerateRequest{System: "sys", Prompt: "hello", Schema: schema})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Text != `{"planTitle":"T","details":[]}` {
		t.Fatalf("unexpected text %q", result.Text)
	}
	if len(result.Raw) == 0 {
		t.Fatal("expected raw response")
	}

	if captured.GenerationConfig == nil || captured.GenerationConfig.ResponseMimeType != "application/json" {
		t.Fatalf("expected json mime type, got %+v", captured.GenerationConfig)
	}
	if captured.GenerationConfig.ResponseSchema == nil || captured.GenerationConfig.ResponseSchema.Type != TypeObject {
		t.Fatal("expected response schema to be forwarded")
	}
	if captured.GenerationConfig.MaxOutputTokens != defaultMaxTokens {
		t.Fatalf("expected default max tokens, got %d", captured.GenerationConfig.MaxOutputTokens)
	}
	if captured.SystemInstruction == nil || captured.SystemInstruction.Parts[0].Text != "sys" {
		t.Fatal("expected system instruction")
	}
}

// TestGeminiGenerateHTTPError проверяет, что ответ не-2xx классифицируется как upstream.
func TestGeminiGenerateHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"quota exceeded"}}`)
	}))
	defer server.Close()

	client := NewGeminiClient("secret", server.URL, "m", time.Second, 100)
	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "hello"})
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected api message in error, got %v", err)
	}
	if strings.Contains(err.Error(), "secret") {
		t.Fatal("error must not contain the api key")
	}
}

// TestGeminiStreamChat проверяет чтение SSE-потока до финального события.
func TestGeminiStreamChat(t *testing.T) {
	var captured geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alt") != "sse" {
			t.Errorf("expected alt=sse, got %q", r.URL.RawQuery)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"Hel\"}]}}]}\r\n\r\n")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"lo\"}]},\"finishReason\":\"STOP\"}]}\n\n")
	}))
	defer server.Close()

	client := NewGeminiClient("secret", server.URL, "m", time.Second, 0)
	stream, err := client.StreamChat(context.Background(), ChatRequest{
		System:  "persona",
		History: []Message{{Role: RoleUser, Content: "hi"}, {Role: "assistant", Content: "hello"}},
		Message: "again",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer stream.Close()

	got, err := drain(stream)
	if err != nil {
		t.Fatalf("expected clean end, got %v", err)
	}
	if got != "Hello" {
		t.Fatalf("expected Hello, got %q", got)
	}

	if len(captured.Contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(captured.Contents))
	}
	if captured.Contents[1].Role != RoleModel {
		t.Fatalf("expected model role, got %q", captured.Contents[1].Role)
	}
	if captured.Contents[2].Parts[0].Text != "again" {
		t.Fatalf("expected new message last, got %+v", captured.Contents[2])
	}
}

// TestGeminiStreamTruncated проверяет, что оборванный поток отличается от нормального конца.
func TestGeminiStreamTruncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"partial\"}]}}]}\n\n")
	}))
	defer server.Close()

	client := NewGeminiClient("secret", server.URL, "m", time.Second, 0)
	stream, err := client.StreamChat(context.Background(), ChatRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer stream.Close()

	got, err := drain(stream)
	if err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("expected aborted stream, got %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF cause, got %v", err)
	}
	if got != "partial" {
		t.Fatalf("expected partial text before failure, got %q", got)
	}

	// Ошибка сохраняется при повторных вызовах.
	if _, again := stream.Recv(); again == nil || errors.Is(again, io.EOF) {
		t.Fatalf("expected sticky error, got %v", again)
	}
}

// TestGroqGenerate проверяет JSON-режим Groq и описание схемы в системном сообщении.
func TestGroqGenerate(t *testing.T) {
	var captured groqChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"{\"planTitle\":\"T\"}"}}]}`)
	}))
	defer server.Close()

	client := NewGroqClient("secret", server.URL, "llama", time.Second, 512)
	result, err := client.Generate(context.Background(), GenerateRequest{
		System: "sys",
		Prompt: "hello",
		Schema: &Schema{Type: TypeObject},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Text != `{"planTitle":"T"}` {
		t.Fatalf("unexpected text %q", result.Text)
	}
	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != "json_object" {
		t.Fatal("expected json_object response format")
	}
	if captured.MaxTokens != 512 {
		t.Fatalf("expected 512 max tokens, got %d", captured.MaxTokens)
	}
	if len(captured.Messages) != 2 || !strings.Contains(captured.Messages[0].Content, `"type":"OBJECT"`) {
		t.Fatalf("expected schema in system message, got %+v", captured.Messages)
	}
}

// TestGroqStreamChat проверяет разбор дельт и терминального [DONE].
func TestGroqStreamChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hi \"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"there\"},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewGroqClient("secret", server.URL, "llama", time.Second, 0)
	stream, err := client.StreamChat(context.Background(), ChatRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer stream.Close()

	got, err := drain(stream)
	if err != nil {
		t.Fatalf("expected clean end, got %v", err)
	}
	if got != "Hi there" {
		t.Fatalf("expected 'Hi there', got %q", got)
	}
}

// TestGroqStreamChatHTTPError проверяет ошибку до начала потока.
func TestGroqStreamChatHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewGroqClient("secret", server.URL, "llama", time.Second, 0)
	stream, err := client.StreamChat(context.Background(), ChatRequest{Message: "hi"})
	if stream != nil {
		t.Fatal("expected nil stream")
	}
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

// TestNewClient проверяет выбор провайдера по конфигурации.
func TestNewClient(t *testing.T) {
	if _, err := NewClient(config.AIConfig{Provider: config.ProviderGemini}); !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("expected configuration error without key, got %v", err)
	}

	client, err := NewClient(config.AIConfig{Provider: config.ProviderGroq, APIKey: "k", Model: "llama"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if client.Provider() != "groq" || client.Model() != "llama" {
		t.Fatalf("unexpected client %s/%s", client.Provider(), client.Model())
	}

	if _, err := NewClient(config.AIConfig{Provider: "other", APIKey: "k"}); !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("expected configuration error for unknown provider, got %v", err)
	}
}

func drain(stream Stream) (string, error) {
	var b strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return b.String(), err
		}
		b.WriteString(chunk)
	}
}
