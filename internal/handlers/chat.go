package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/ai"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/apperr"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
)

const chatFailureMessage = "Failed to get response from AI"

// ChatOpener реализуется chat.Relay.
type ChatOpener interface {
	Open(ctx context.Context, history []models.ChatMessage, message string) (ai.Stream, error)
}

type ChatHandler struct {
	Relay  ChatOpener
	Logger *slog.Logger
}

// NewChatHandler создает обработчик потокового чата.
func NewChatHandler(relay ChatOpener, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{Relay: relay, Logger: logger}
}

type ChatRequest struct {
	History []models.ChatMessage `json:"history"`
	Message string               `json:"message" validate:"required"`
}

// Stream отдает ответ модели фрагментами text/plain по мере поступления.
// Сбой до первого фрагмента дает 500 {error}; сбой посреди потока обрывает соединение,
// чтобы клиент отличил его от нормального завершения.
func (h *ChatHandler) Stream(c echo.Context) error {
	var req ChatRequest
	if err := bindRequest(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	stream, err := h.Relay.Open(c.Request().Context(), req.History, req.Message)
	if err != nil {
		if apperr.Is(err, apperr.KindValidation) {
			return appError(c, err)
		}
		h.Logger.Error("chat stream failed to open", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: chatFailureMessage})
	}
	defer stream.Close()

	first, err := stream.Recv()
	if err != nil && !errors.Is(err, io.EOF) {
		h.Logger.Error("chat stream failed before first chunk", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: chatFailureMessage})
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderXContentTypeOptions, "nosniff")
	res.WriteHeader(http.StatusOK)

	flusher, ok := res.Writer.(http.Flusher)
	if !ok {
		return serverError(c)
	}

	if errors.Is(err, io.EOF) {
		flusher.Flush()
		return nil
	}

	chunk := first
	for {
		if _, err := res.Write([]byte(chunk)); err != nil {
			return nil
		}
		flusher.Flush()

		chunk, err = stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			h.Logger.Error("chat stream aborted", slog.String("error", err.Error()))
			panic(http.ErrAbortHandler)
		}
	}
}
