package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/auth"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/notifications"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/todo"
)

var errUnauthenticated = errors.New("unauthenticated")

// TodoStorageProvider выдает хранилище списка конкретного пользователя.
// Реализуется repository.TodoRepository.
type TodoStorageProvider interface {
	ForUser(userID uuid.UUID) todo.Storage
}

type TodoHandler struct {
	Store  TodoStorageProvider
	Hub    *notifications.Hub
	Logger *slog.Logger
}

// NewTodoHandler создает обработчик списка дел.
func NewTodoHandler(store TodoStorageProvider, hub *notifications.Hub, logger *slog.Logger) *TodoHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TodoHandler{Store: store, Hub: hub, Logger: logger}
}

type TodoCreateRequest struct {
	Text string `json:"text" validate:"required"`
}

type TodoReplaceRequest struct {
	Items []models.TodoItem `json:"items" validate:"required"`
}

type TodoListResponse struct {
	Items    []models.TodoItem `json:"items"`
	Progress todo.Progress     `json:"progress"`
}

// List возвращает список дел пользователя; новый пользователь получает стартовый список.
func (h *TodoHandler) List(c echo.Context) error {
	list, _, err := h.load(c)
	if err != nil {
		return loadError(c, err)
	}
	return c.JSON(http.StatusOK, toTodoListResponse(list))
}

// Create добавляет пункт в конец списка.
func (h *TodoHandler) Create(c echo.Context) error {
	list, userID, err := h.load(c)
	if err != nil {
		return loadError(c, err)
	}

	var req TodoCreateRequest
	if err := bindRequest(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	if _, err := list.Add(c.Request().Context(), req.Text); err != nil {
		return todoError(c, err)
	}

	h.publish(userID, list)
	return c.JSON(http.StatusCreated, toTodoListResponse(list))
}

// Replace заменяет список целиком.
func (h *TodoHandler) Replace(c echo.Context) error {
	list, userID, err := h.load(c)
	if err != nil {
		return loadError(c, err)
	}

	var req TodoReplaceRequest
	if err := bindRequest(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := list.Replace(c.Request().Context(), req.Items); err != nil {
		return todoError(c, err)
	}

	h.publish(userID, list)
	return c.JSON(http.StatusOK, toTodoListResponse(list))
}

// Toggle переключает отметку о выполнении пункта.
func (h *TodoHandler) Toggle(c echo.Context) error {
	list, userID, err := h.load(c)
	if err != nil {
		return loadError(c, err)
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return badRequest(c, "invalid index")
	}

	if _, err := list.Toggle(c.Request().Context(), index); err != nil {
		return todoError(c, err)
	}

	h.publish(userID, list)
	return c.JSON(http.StatusOK, toTodoListResponse(list))
}

// Delete удаляет пункт по индексу.
func (h *TodoHandler) Delete(c echo.Context) error {
	list, userID, err := h.load(c)
	if err != nil {
		return loadError(c, err)
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return badRequest(c, "invalid index")
	}

	if err := list.Remove(c.Request().Context(), index); err != nil {
		return todoError(c, err)
	}

	h.publish(userID, list)
	return c.JSON(http.StatusOK, toTodoListResponse(list))
}

// load читает список текущего пользователя. Ошибку чтения нельзя заменять стартовым списком:
// следующая запись затерла бы сохраненные пункты.
func (h *TodoHandler) load(c echo.Context) (*todo.List, uuid.UUID, error) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return nil, uuid.Nil, errUnauthenticated
	}

	list, err := todo.Load(c.Request().Context(), h.Store.ForUser(userID), h.Logger)
	if err != nil {
		h.Logger.Error("failed to load todos",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()),
		)
		return nil, uuid.Nil, err
	}
	return list, userID, nil
}

func loadError(c echo.Context, err error) error {
	if errors.Is(err, errUnauthenticated) {
		return unauthorized(c)
	}
	return serverError(c)
}

func (h *TodoHandler) publish(userID uuid.UUID, list *todo.List) {
	if h.Hub == nil {
		return
	}
	h.Hub.Publish(userID, notifications.TodosUpdatedEvent(list.Items()))
}

func toTodoListResponse(list *todo.List) TodoListResponse {
	return TodoListResponse{Items: list.Items(), Progress: list.Progress()}
}

func todoError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, todo.ErrOutOfRange):
		return notFound(c, "todo not found")
	case errors.Is(err, todo.ErrEmptyText):
		return badRequest(c, "text is required")
	case errors.Is(err, todo.ErrTextTooLong):
		return badRequest(c, "text is too long")
	case errors.Is(err, todo.ErrListTooLarge):
		return badRequest(c, "too many items")
	default:
		return serverError(c)
	}
}
