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

const defaultMaxTokens = 4096

// GroqClient calls the Groq OpenAI-compatible chat completions API.
type GroqClient struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponseFormat struct {
	Type string `json:"type"`
}

type groqChatRequest struct {
	Model          string              `json:"model"`
	Messages       []groqMessage       `json:"messages"`
	Temperature    float64             `json:"temperature,omitempty"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	Stream         bool                `json:"stream,omitempty"`
	ResponseFormat *groqResponseFormat `json:"response_format,omitempty"`
}

type groqChatResponse struct {
	Choices []struct {
		Message      groqMessage `json:"message"`
		Delta        groqMessage `json:"delta"`
		FinishReason *string     `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewGroqClient создает клиент Groq с заданными параметрами.
func NewGroqClient(apiKey, baseURL, model string, timeout time.Duration, maxTokens int) *GroqClient {
	trimmedURL := strings.TrimRight(baseURL, "/")
	return &GroqClient{
		apiKey:    apiKey,
		baseURL:   trimmedURL,
		model:     model,
		maxTokens: maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *GroqClient) Provider() string { return "groq" }

func (c *GroqClient) Model() string { return c.model }

// Generate отправляет запрос в Groq в режиме JSON и возвращает текст ответа и сырой ответ API.
// Groq не принимает схему ответа, поэтому схема описывается в системном сообщении.
func (c *GroqClient) Generate(ctx context.Context, req GenerateRequest) (Generation, error) {
	const op = "groq.generate"

	if strings.TrimSpace(req.Prompt) == "" {
		return Generation{}, upstream(op, errors.New("prompt is empty"))
	}

	system := strings.TrimSpace(req.System)
	if req.Schema != nil {
		schema, err := json.Marshal(req.Schema)
		if err != nil {
			return Generation{}, upstream(op, err)
		}
		system = strings.TrimSpace(system + "\nRespond only with a JSON object matching this schema: " + string(schema))
	}

	messages := make([]groqMessage, 0, 2)
	if system != "" {
		messages = append(messages, groqMessage{Role: "system", Content: system})
	}
	messages = append(messages, groqMessage{Role: "user", Content: req.Prompt})

	response, err := c.post(ctx, groqChatRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    0.2,
		MaxTokens:      resolveMaxTokens(c.maxTokens),
		ResponseFormat: &groqResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return Generation{}, upstream(op, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return Generation{}, upstream(op, err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return Generation{Raw: body}, upstream(op, groqStatusError(response.StatusCode, body))
	}

	var parsed groqChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Generation{Raw: body}, upstream(op, fmt.Errorf("decode response: %w", err))
	}

	if len(parsed.Choices) == 0 {
		return Generation{Raw: body}, upstream(op, errors.New("groq response missing choices"))
	}

	return Generation{Text: parsed.Choices[0].Message.Content, Raw: body}, nil
}

// StreamChat открывает потоковый ответ Groq для продолжения беседы.
func (c *GroqClient) StreamChat(ctx context.Context, req ChatRequest) (Stream, error) {
	const op = "groq.stream_chat"

	messages := make([]groqMessage, 0, len(req.History)+2)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, groqMessage{Role: "system", Content: system})
	}
	for _, message := range req.History {
		if strings.TrimSpace(message.Content) == "" {
			continue
		}
		messages = append(messages, groqMessage{Role: groqRole(message.Role), Content: message.Content})
	}
	messages = append(messages, groqMessage{Role: "user", Content: req.Message})

	response, err := c.post(ctx, groqChatRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: resolveMaxTokens(c.maxTokens),
		Stream:    true,
	})
	if err != nil {
		return nil, upstream(op, err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		defer response.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(response.Body, 64*1024))
		return nil, upstream(op, groqStatusError(response.StatusCode, body))
	}

	return newSSEStream(op, response.Body, decodeGroqEvent), nil
}

func (c *GroqClient) post(ctx context.Context, payload groqChatRequest) (*http.Response, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, errors.New("groq api key is missing")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/chat/completions", c.baseURL)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	request.Header.Set("Authorization", "Bearer "+c.apiKey)
	request.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(request)
}

func decodeGroqEvent(data []byte) (string, bool, error) {
	if string(data) == "[DONE]" {
		return "", true, nil
	}

	var event groqChatResponse
	if err := json.Unmarshal(data, &event); err != nil {
		return "", false, fmt.Errorf("decode stream event: %w", err)
	}
	if event.Error != nil {
		return "", false, fmt.Errorf("groq api error: %s", event.Error.Message)
	}
	if len(event.Choices) == 0 {
		return "", false, nil
	}

	// finish_reason приходит до [DONE]; конец потока фиксируем только по [DONE].
	return event.Choices[0].Delta.Content, false, nil
}

func groqStatusError(status int, body []byte) error {
	var apiErr groqChatResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != nil {
		return fmt.Errorf("groq api error (%d): %s", status, apiErr.Error.Message)
	}
	return fmt.Errorf("groq api error (%d): %s", status, apiErrorText(body))
}

func groqRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleModel, "assistant":
		return "assistant"
	default:
		return "user"
	}
}
