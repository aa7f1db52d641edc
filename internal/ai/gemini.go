package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GeminiClient calls the Google Generative Language API (Gemini).
type GeminiClient struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  *geminiConfig   `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *Schema `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason,omitempty"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewGeminiClient создает клиент Gemini с заданными параметрами.
func NewGeminiClient(apiKey, baseURL, model string, timeout time.Duration, maxTokens int) *GeminiClient {
	trimmedURL := strings.TrimRight(baseURL, "/")
	return &GeminiClient{
		apiKey:    apiKey,
		baseURL:   trimmedURL,
		model:     model,
		maxTokens: maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *GeminiClient) Provider() string { return "gemini" }

func (c *GeminiClient) Model() string { return c.model }

// Generate запрашивает у Gemini структурированный JSON-ответ.
func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (Generation, error) {
	const op = "gemini.generate"

	if strings.TrimSpace(req.Prompt) == "" {
		return Generation{}, upstream(op, errors.New("prompt is empty"))
	}

	request := geminiRequest{
		Contents: []geminiContent{{Role: RoleUser, Parts: []geminiPart{{Text: req.Prompt}}}},
		GenerationConfig: &geminiConfig{
			Temperature:      0.4,
			MaxOutputTokens:  resolveMaxTokens(c.maxTokens),
			ResponseMimeType: "application/json",
			ResponseSchema:   req.Schema,
		},
	}
	if system := strings.TrimSpace(req.System); system != "" {
		request.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}

	response, err := c.post(ctx, "generateContent", request)
	if err != nil {
		return Generation{}, upstream(op, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return Generation{}, upstream(op, err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return Generation{Raw: body}, upstream(op, geminiStatusError(response.StatusCode, body))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Generation{Raw: body}, upstream(op, fmt.Errorf("decode response: %w", err))
	}

	text, _, err := parsed.text()
	if err != nil {
		return Generation{Raw: body}, upstream(op, err)
	}

	return Generation{Text: text, Raw: body}, nil
}

// StreamChat открывает потоковый ответ Gemini для продолжения беседы.
func (c *GeminiClient) StreamChat(ctx context.Context, req ChatRequest) (Stream, error) {
	const op = "gemini.stream_chat"

	contents := make([]geminiContent, 0, len(req.History)+1)
	for _, message := range req.History {
		text := message.Content
		if strings.TrimSpace(text) == "" {
			continue
		}
		contents = append(contents, geminiContent{Role: geminiRole(message.Role), Parts: []geminiPart{{Text: text}}})
	}
	contents = append(contents, geminiContent{Role: RoleUser, Parts: []geminiPart{{Text: req.Message}}})

	request := geminiRequest{
		Contents: contents,
		GenerationConfig: &geminiConfig{
			MaxOutputTokens: resolveMaxTokens(c.maxTokens),
		},
	}
	if system := strings.TrimSpace(req.System); system != "" {
		request.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}

	response, err := c.post(ctx, "streamGenerateContent?alt=sse", request)
	if err != nil {
		return nil, upstream(op, err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer response.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(response.Body, 64*1024))
		return nil, upstream(op, geminiStatusError(response.StatusCode, body))
	}

	return newSSEStream(op, response.Body, decodeGeminiEvent), nil
}

func (c *GeminiClient) post(ctx context.Context, method string, payload geminiRequest) (*http.Response, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, errors.New("gemini api key is missing")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:%s", c.baseURL, c.model, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	// Ключ передается заголовком, а не в query: ошибки транспорта содержат URL.
	req.Header.Set("x-goog-api-key", c.apiKey)

	return c.httpClient.Do(req)
}

func (r geminiResponse) text() (string, bool, error) {
	if r.Error != nil {
		return "", false, fmt.Errorf("gemini api error: %s", r.Error.Message)
	}

	if len(r.Candidates) == 0 {
		if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
			return "", false, fmt.Errorf("gemini blocked prompt: %s", r.PromptFeedback.BlockReason)
		}
		return "", false, errors.New("gemini response missing candidates")
	}

	candidate := r.Candidates[0]
	var builder strings.Builder
	for _, part := range candidate.Content.Parts {
		builder.WriteString(part.Text)
	}

	return builder.String(), candidate.FinishReason != "", nil
}

func decodeGeminiEvent(data []byte) (string, bool, error) {
	var event geminiResponse
	if err := json.Unmarshal(data, &event); err != nil {
		return "", false, fmt.Errorf("decode stream event: %w", err)
	}
	return event.text()
}

func geminiStatusError(status int, body []byte) error {
	var apiErr geminiResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != nil {
		return fmt.Errorf("gemini api error (%d): %s", status, apiErr.Error.Message)
	}
	return fmt.Errorf("gemini api error (%d): %s", status, apiErrorText(body))
}

func geminiRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "assistant", RoleModel:
		return RoleModel
	default:
		return RoleUser
	}
}
