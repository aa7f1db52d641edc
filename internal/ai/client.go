package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/apperr"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/config"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

const (
	TypeObject = "OBJECT"
	TypeArray  = "ARRAY"
	TypeString = "STRING"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Schema is the subset of the OpenAPI schema object understood by structured generation.
type Schema struct {
	Type       string             `json:"type"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

type GenerateRequest struct {
	System string
	Prompt string
	Schema *Schema
}

type Generation struct {
	Text string
	Raw  []byte
}

type ChatRequest struct {
	System  string
	History []Message
	Message string
}

// Stream is a pull-based sequence of text chunks. Recv returns io.EOF once the
// reply ended normally; any other error means the reply was aborted. Close
// abandons the stream and may be called at any time.
type Stream interface {
	Recv() (string, error)
	Close() error
}

type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (Generation, error)
	StreamChat(ctx context.Context, req ChatRequest) (Stream, error)
	Provider() string
	Model() string
}

// NewClient создает клиента внешней модели по конфигурации.
func NewClient(cfg config.AIConfig) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperr.New(apperr.KindConfiguration, "ai.new_client", "api key is missing")
	}

	switch strings.ToLower(cfg.Provider) {
	case config.ProviderGemini:
		return NewGeminiClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout, cfg.MaxOutputTokens), nil
	case config.ProviderGroq:
		return NewGroqClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout, cfg.MaxOutputTokens), nil
	default:
		return nil, apperr.Wrap(apperr.KindConfiguration, "ai.new_client", fmt.Errorf("unknown provider %q", cfg.Provider))
	}
}

func resolveMaxTokens(value int) int {
	if value > 0 {
		return value
	}

	return defaultMaxTokens
}

func upstream(op string, err error) error {
	return apperr.Wrap(apperr.KindUpstream, op, err)
}

// apiErrorText обрезает тело ответа об ошибке, чтобы не тащить его целиком в логи.
func apiErrorText(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 512 {
		text = text[:512] + "..."
	}
	return text
}
