package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/auth"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/notifications"
)

const (
	eventConnected    = "connected"
	heartbeatInterval = 25 * time.Second
)

type NotificationHandler struct {
	Hub *notifications.Hub
}

func NewNotificationHandler(hub *notifications.Hub) *NotificationHandler {
	return &NotificationHandler{Hub: hub}
}

// Stream отдает события пользователя в формате SSE: todos_updated и diet_plan_ready.
// В тишине раз в heartbeatInterval уходит комментарий, чтобы прокси не закрывали соединение.
func (h *NotificationHandler) Stream(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	stream, ok := newSSEStream(c.Response())
	if !ok {
		return serverError(c)
	}

	events, unsubscribe := h.Hub.Subscribe(userID)
	defer unsubscribe()

	hello := notifications.Event{
		Type:      eventConnected,
		Timestamp: time.Now().UTC(),
		Data:      map[string]string{"user_id": userID.String()},
	}
	if stream.send(hello) != nil {
		return nil
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	done := c.Request().Context().Done()
	for {
		var err error
		select {
		case <-done:
			return nil
		case <-heartbeat.C:
			err = stream.comment("ping")
		case event, open := <-events:
			if !open {
				return nil
			}
			err = stream.send(event)
		}
		if err != nil {
			// Клиент ушел.
			return nil
		}
	}
}

// sseStream пишет кадры text/event-stream и сбрасывает их сразу после записи.
type sseStream struct {
	res     *echo.Response
	flusher http.Flusher
}

func newSSEStream(res *echo.Response) (*sseStream, bool) {
	flusher, ok := res.Writer.(http.Flusher)
	if !ok {
		return nil, false
	}

	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseStream{res: res, flusher: flusher}, true
}

func (s *sseStream) send(event notifications.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.res, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseStream) comment(text string) error {
	if _, err := fmt.Fprintf(s.res, ": %s\n\n", text); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
