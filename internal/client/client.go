package client

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

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/ai"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/apperr"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
)

const (
	dietPath = "/api/diet"
	chatPath = "/api/chat"

	readBufferSize = 4096
)

// Client talks to the wellness relay. It never holds a model API key.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type chatBody struct {
	History []models.ChatMessage `json:"history"`
	Message string               `json:"message"`
}

// New создает клиента сервера. timeout ограничивает запрос плана и ожидание заголовков чата;
// сам поток чата не ограничен по времени.
func New(baseURL string, timeout time.Duration) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{Transport: transport},
	}
}

// Recommend отправляет профиль на сервер и возвращает план питания.
func (c *Client) Recommend(ctx context.Context, profile models.UserProfile) (models.DietRecommendation, error) {
	const op = "client.recommend"

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(profile)
	if err != nil {
		return models.DietRecommendation{}, apperr.Wrap(apperr.KindUnknown, op, err)
	}

	resp, err := c.post(ctx, dietPath, payload)
	if err != nil {
		return models.DietRecommendation{}, apperr.Wrap(apperr.KindUpstream, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.DietRecommendation{}, statusError(op, resp)
	}

	var recommendation models.DietRecommendation
	if err := json.NewDecoder(resp.Body).Decode(&recommendation); err != nil {
		return models.DietRecommendation{}, apperr.Wrap(apperr.KindMalformedResponse, op, err)
	}
	return recommendation, nil
}

// StreamChat открывает поток ответа чата. Сбой до первого фрагмента возвращается здесь,
// обрыв посреди ответа приходит из Recv.
func (c *Client) StreamChat(ctx context.Context, history []models.ChatMessage, message string) (ai.Stream, error) {
	const op = "client.chat"

	if history == nil {
		history = []models.ChatMessage{}
	}
	payload, err := json.Marshal(chatBody{History: history, Message: message})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, op, err)
	}

	resp, err := c.post(ctx, chatPath, payload)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, op, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError(op, resp)
	}

	return &bodyStream{body: resp.Body, buf: make([]byte, readBufferSize)}, nil
}

func (c *Client) post(ctx context.Context, path string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

func statusError(op string, resp *http.Response) error {
	var body errorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)

	cause := fmt.Errorf("status %d", resp.StatusCode)
	if body.Error != "" {
		cause = fmt.Errorf("status %d: %s", resp.StatusCode, body.Error)
	}

	kind := apperr.KindUpstream
	if resp.StatusCode == http.StatusBadRequest {
		kind = apperr.KindValidation
	}

	return &apperr.Error{Kind: kind, Op: op, Message: body.Error, Fields: body.Fields, Err: cause}
}

// bodyStream отдает тело ответа фрагментами по мере чтения.
type bodyStream struct {
	body io.ReadCloser
	buf  []byte
	err  error
}

func (s *bodyStream) Recv() (string, error) {
	if s.err != nil {
		return "", s.err
	}

	for {
		n, err := s.body.Read(s.buf)
		if n > 0 {
			if err != nil {
				s.err = classifyReadError(err)
			}
			return string(s.buf[:n]), nil
		}
		if err != nil {
			s.err = classifyReadError(err)
			return "", s.err
		}
	}
}

func (s *bodyStream) Close() error {
	return s.body.Close()
}

func classifyReadError(err error) error {
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	return apperr.Wrap(apperr.KindUpstream, "client.chat.recv", err)
}
