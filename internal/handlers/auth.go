package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/auth"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/repository"
)

// errRejectedToken покрывает все причины отказа в refresh-токене; клиенту они не раскрываются.
var errRejectedToken = errors.New("refresh token rejected")

// UserStore хранит учетные записи. Реализуется repository.UserRepository.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string, name *string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

// RefreshTokenStore хранит хеши refresh-токенов. Реализуется repository.RefreshTokenRepository.
type RefreshTokenStore interface {
	Create(ctx context.Context, token models.RefreshToken) error
	GetByID(ctx context.Context, id uuid.UUID) (models.RefreshToken, error)
	Revoke(ctx context.Context, id uuid.UUID, replacedBy *uuid.UUID) error
	Rotate(ctx context.Context, oldID uuid.UUID, newToken models.RefreshToken) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// AuthHandler ведет учетные записи. Аккаунт нужен только для синхронизации списка дел
// и уведомлений; план питания и чат доступны анонимно.
type AuthHandler struct {
	Users        UserStore
	Tokens       RefreshTokenStore
	TokenManager *auth.TokenManager
}

func NewAuthHandler(users UserStore, tokens RefreshTokenStore, manager *auth.TokenManager) *AuthHandler {
	return &AuthHandler{Users: users, Tokens: tokens, TokenManager: manager}
}

type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Name     *string `json:"name" validate:"omitempty,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest служит и для /refresh, и для /logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest = RefreshRequest

type AuthUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  *string   `json:"name,omitempty"`
}

type AuthResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         AuthUser `json:"user"`
}

type UserResponse struct {
	User AuthUser `json:"user"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindRequest(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	password := strings.TrimSpace(req.Password)
	if err := auth.ValidatePassword(password); err != nil {
		return badRequest(c, err.Error())
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return serverError(c)
	}

	ctx := c.Request().Context()
	user, err := h.Users.Create(ctx, normalizeEmail(req.Email), hash, trimmedOrNil(req.Name))
	if errors.Is(err, repository.ErrConflict) {
		return conflict(c, "user already exists")
	}
	if err != nil {
		return serverError(c)
	}

	return h.respondWithTokens(c, http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindRequest(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	user, err := h.Users.GetByEmail(c.Request().Context(), normalizeEmail(req.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return unauthorized(c)
	}
	if err != nil {
		return serverError(c)
	}
	if auth.ComparePassword(user.PasswordHash, strings.TrimSpace(req.Password)) != nil {
		return unauthorized(c)
	}

	return h.respondWithTokens(c, http.StatusOK, user)
}

// Refresh обменивает refresh-токен на новую пару. Старый токен отзывается со ссылкой на новый.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bindRequest(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.Request().Context()
	stored, err := h.redeemRefreshToken(ctx, req.RefreshToken)
	if errors.Is(err, errRejectedToken) {
		return unauthorized(c)
	}
	if err != nil {
		return serverError(c)
	}

	user, err := h.Users.GetByID(ctx, stored.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return unauthorized(c)
	}
	if err != nil {
		return serverError(c)
	}

	next := uuid.New()
	pair, err := h.TokenManager.NewTokenPair(user.ID, next)
	if err != nil {
		return serverError(c)
	}

	err = h.Tokens.Rotate(ctx, stored.ID, newRefreshRecord(next, user.ID, pair))
	if errors.Is(err, repository.ErrNotFound) {
		// Токен успели отозвать параллельным запросом.
		return unauthorized(c)
	}
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, authResponse(pair, user))
}

// Logout отзывает refresh-токен. Неизвестный или уже отозванный токен не считается ошибкой.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req LogoutRequest
	if err := bindRequest(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	claims, err := h.TokenManager.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		return unauthorized(c)
	}
	id, err := claims.TokenID()
	if err != nil {
		return unauthorized(c)
	}

	if err := h.Tokens.Revoke(c.Request().Context(), id, nil); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return serverError(c)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	user, err := h.Users.GetByID(c.Request().Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(c, "user not found")
	}
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, UserResponse{User: toAuthUser(user)})
}

// redeemRefreshToken проверяет подпись токена и его запись в базе.
// Повторное предъявление отозванного токена отзывает все токены пользователя.
func (h *AuthHandler) redeemRefreshToken(ctx context.Context, raw string) (models.RefreshToken, error) {
	claims, err := h.TokenManager.ParseRefreshToken(raw)
	if err != nil {
		return models.RefreshToken{}, errRejectedToken
	}
	id, err := claims.TokenID()
	if err != nil {
		return models.RefreshToken{}, errRejectedToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return models.RefreshToken{}, errRejectedToken
	}

	stored, err := h.Tokens.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.RefreshToken{}, errRejectedToken
	}
	if err != nil {
		return models.RefreshToken{}, err
	}

	if stored.UserID != userID || !auth.CompareTokenHash(stored.TokenHash, raw) {
		return models.RefreshToken{}, errRejectedToken
	}
	if stored.RevokedAt != nil {
		if _, err := h.Tokens.RevokeAllForUser(ctx, userID); err != nil {
			return models.RefreshToken{}, err
		}
		return models.RefreshToken{}, errRejectedToken
	}
	if time.Now().After(stored.ExpiresAt) {
		return models.RefreshToken{}, errRejectedToken
	}
	return stored, nil
}

func (h *AuthHandler) respondWithTokens(c echo.Context, status int, user models.User) error {
	id := uuid.New()
	pair, err := h.TokenManager.NewTokenPair(user.ID, id)
	if err != nil {
		return serverError(c)
	}
	if err := h.Tokens.Create(c.Request().Context(), newRefreshRecord(id, user.ID, pair)); err != nil {
		return serverError(c)
	}
	return c.JSON(status, authResponse(pair, user))
}

func newRefreshRecord(id, userID uuid.UUID, pair auth.TokenPair) models.RefreshToken {
	return models.RefreshToken{
		ID:        id,
		UserID:    userID,
		TokenHash: auth.HashToken(pair.RefreshToken),
		ExpiresAt: pair.RefreshExpiresAt,
	}
}

func authResponse(pair auth.TokenPair, user models.User) AuthResponse {
	return AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         toAuthUser(user),
	}
}

func toAuthUser(user models.User) AuthUser {
	return AuthUser{ID: user.ID, Email: user.Email, Name: user.Name}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	if trimmed := strings.TrimSpace(*s); trimmed != "" {
		return &trimmed
	}
	return nil
}
