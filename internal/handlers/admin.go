package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/ai"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/auth"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/repository"
)

const (
	timeLayout = time.RFC3339
	dayLayout  = "2006-01-02"

	defaultPageSize  = 50
	maxPageSize      = 200
	defaultUsageDays = 7
	maxUsageDays     = 30
)

// AdminStore реализуется repository.AdminRepository.
type AdminStore interface {
	ListUsers(ctx context.Context, limit, offset int) ([]repository.AdminUser, error)
	CountUsers(ctx context.Context) (int, error)
	ListAIRequests(ctx context.Context, filter repository.AIRequestFilter, limit, offset int, includePayloads bool) ([]repository.AIRequestRecord, error)
	CountAIRequests(ctx context.Context, filter repository.AIRequestFilter) (int, error)
	UsageStats(ctx context.Context, days int) (repository.UsageStats, error)
}

// UserLookup находит пользователя по id для проверки прав администратора.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

// AdminHandler отдает операторам журнал обращений к модели и счетчики использования.
type AdminHandler struct {
	Repo AdminStore
}

func NewAdminHandler(repo AdminStore) *AdminHandler {
	return &AdminHandler{Repo: repo}
}

type AdminUserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

type AdminUsersResponse struct {
	Total int                 `json:"total"`
	Users []AdminUserResponse `json:"users"`
}

type AdminAIRequestResponse struct {
	ID              uuid.UUID       `json:"id"`
	UserID          *uuid.UUID      `json:"user_id,omitempty"`
	RequestType     string          `json:"request_type"`
	Provider        string          `json:"provider"`
	Model           string          `json:"model"`
	Success         bool            `json:"success"`
	ErrorMessage    *string         `json:"error_message,omitempty"`
	CreatedAt       string          `json:"created_at"`
	Prompt          *string         `json:"prompt,omitempty"`
	RequestPayload  json.RawMessage `json:"request_payload,omitempty"`
	ResponsePayload json.RawMessage `json:"response_payload,omitempty"`
	RawResponse     *string         `json:"raw_response,omitempty"`
}

type AdminAIRequestsResponse struct {
	Total    int                      `json:"total"`
	Requests []AdminAIRequestResponse `json:"requests"`
}

type AdminUsageDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type AdminUsageType struct {
	RequestType string `json:"request_type"`
	Total       int    `json:"total"`
	Failed      int    `json:"failed"`
}

type AdminUsageResponse struct {
	Users            int              `json:"users"`
	TodoLists        int              `json:"todo_lists"`
	AIRequests       int              `json:"ai_requests"`
	AISuccess        int              `json:"ai_success"`
	AIFail           int              `json:"ai_fail"`
	AIRequestsByDay  []AdminUsageDay  `json:"ai_requests_by_day"`
	AIRequestsByType []AdminUsageType `json:"ai_requests_by_type"`
}

// ListUsers отдает страницу зарегистрированных пользователей.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	limit, offset, err := parsePagination(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.Request().Context()
	users, err := h.Repo.ListUsers(ctx, limit, offset)
	if err != nil {
		return serverError(c)
	}
	total, err := h.Repo.CountUsers(ctx)
	if err != nil {
		return serverError(c)
	}

	resp := AdminUsersResponse{Total: total, Users: make([]AdminUserResponse, len(users))}
	for i, u := range users {
		resp.Users[i] = AdminUserResponse{
			ID:        u.ID,
			Email:     u.Email,
			Name:      u.Name,
			CreatedAt: u.CreatedAt.Format(timeLayout),
			UpdatedAt: u.UpdatedAt.Format(timeLayout),
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// ListAIRequests отдает журнал обращений к модели.
// Фильтры: user_id, success, request_type (diet_plan|chat), since (RFC3339).
// Промпты и ответы модели включаются только с include_payloads=true.
func (h *AdminHandler) ListAIRequests(c echo.Context) error {
	limit, offset, err := parsePagination(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	filter, includePayloads, err := parseAIRequestQuery(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.Request().Context()
	records, err := h.Repo.ListAIRequests(ctx, filter, limit, offset, includePayloads)
	if err != nil {
		return serverError(c)
	}
	total, err := h.Repo.CountAIRequests(ctx, filter)
	if err != nil {
		return serverError(c)
	}

	resp := AdminAIRequestsResponse{Total: total, Requests: make([]AdminAIRequestResponse, len(records))}
	for i, rec := range records {
		resp.Requests[i] = toAdminAIRequest(rec, includePayloads)
	}
	return c.JSON(http.StatusOK, resp)
}

// Usage отдает счетчики за последние days дней (по умолчанию 7, не больше 30).
func (h *AdminHandler) Usage(c echo.Context) error {
	days := defaultUsageDays
	if err := echo.QueryParamsBinder(c).Int("days", &days).BindError(); err != nil || days <= 0 {
		return badRequest(c, "invalid days")
	}
	days = min(days, maxUsageDays)

	stats, err := h.Repo.UsageStats(c.Request().Context(), days)
	if errors.Is(err, repository.ErrInvalid) {
		return badRequest(c, "invalid days")
	}
	if err != nil {
		return serverError(c)
	}

	resp := AdminUsageResponse{
		Users:            stats.Users,
		TodoLists:        stats.TodoLists,
		AIRequests:       stats.AIRequests,
		AISuccess:        stats.AISuccess,
		AIFail:           stats.AIFail,
		AIRequestsByDay:  make([]AdminUsageDay, len(stats.AIRequestsByDay)),
		AIRequestsByType: make([]AdminUsageType, len(stats.AIRequestsByType)),
	}
	for i, d := range stats.AIRequestsByDay {
		resp.AIRequestsByDay[i] = AdminUsageDay{Date: d.Day.Format(dayLayout), Count: d.Count}
	}
	for i, t := range stats.AIRequestsByType {
		resp.AIRequestsByType[i] = AdminUsageType{RequestType: t.RequestType, Total: t.Total, Failed: t.Failed}
	}
	return c.JSON(http.StatusOK, resp)
}

// AdminMiddleware пропускает только пользователей из списка ADMIN_EMAILS.
// Пустой список закрывает админские роуты для всех.
func AdminMiddleware(users UserLookup, emails []string) echo.MiddlewareFunc {
	admins := make(map[string]bool, len(emails))
	for _, email := range emails {
		if email = normalizeEmail(email); email != "" {
			admins[email] = true
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := auth.UserIDFromContext(c)
			if !ok {
				return unauthorized(c)
			}
			if len(admins) == 0 {
				return forbidden(c)
			}

			user, err := users.GetByID(c.Request().Context(), userID)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return forbidden(c)
			case err != nil:
				return serverError(c)
			case !admins[normalizeEmail(user.Email)]:
				return forbidden(c)
			}
			return next(c)
		}
	}
}

func parseAIRequestQuery(c echo.Context) (repository.AIRequestFilter, bool, error) {
	var (
		filter          repository.AIRequestFilter
		userID          uuid.UUID
		success         bool
		requestType     string
		since           time.Time
		includePayloads bool
	)

	err := echo.QueryParamsBinder(c).
		TextUnmarshaler("user_id", &userID).
		Bool("success", &success).
		String("request_type", &requestType).
		Time("since", &since, time.RFC3339).
		Bool("include_payloads", &includePayloads).
		BindError()
	if err != nil {
		var bindErr *echo.BindingError
		if errors.As(err, &bindErr) {
			return filter, false, errors.New("invalid " + bindErr.Field)
		}
		return filter, false, errors.New("invalid query")
	}

	if c.QueryParam("user_id") != "" {
		filter.UserID = &userID
	}
	if c.QueryParam("success") != "" {
		filter.Success = &success
	}
	if requestType = strings.TrimSpace(requestType); requestType != "" {
		if requestType != ai.RequestTypeDietPlan && requestType != ai.RequestTypeChat {
			return filter, false, errors.New("invalid request_type")
		}
		filter.RequestType = &requestType
	}
	if !since.IsZero() {
		filter.Since = &since
	}
	return filter, includePayloads, nil
}

func toAdminAIRequest(rec repository.AIRequestRecord, includePayloads bool) AdminAIRequestResponse {
	item := AdminAIRequestResponse{
		ID:           rec.ID,
		UserID:       rec.UserID,
		RequestType:  rec.RequestType,
		Provider:     rec.Provider,
		Model:        rec.Model,
		Success:      rec.Success,
		ErrorMessage: rec.ErrorMessage,
		CreatedAt:    rec.CreatedAt.Format(timeLayout),
	}
	if !includePayloads {
		return item
	}

	item.Prompt = rec.Prompt
	item.RawResponse = rec.RawResponse
	if len(rec.RequestPayload) > 0 {
		item.RequestPayload = json.RawMessage(rec.RequestPayload)
	}
	if len(rec.ResponsePayload) > 0 {
		item.ResponsePayload = json.RawMessage(rec.ResponsePayload)
	}
	return item
}

// parsePagination читает limit и offset; limit обрезается до maxPageSize.
func parsePagination(c echo.Context) (limit, offset int, err error) {
	limit = defaultPageSize
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil || limit <= 0 {
		return 0, 0, errors.New("invalid limit")
	}
	if err := echo.QueryParamsBinder(c).Int("offset", &offset).BindError(); err != nil || offset < 0 {
		return 0, 0, errors.New("invalid offset")
	}
	return min(limit, maxPageSize), offset, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
