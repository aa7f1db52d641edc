package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const ContextUserIDKey = "user_id"

type requestUserKey struct{}

// JWTMiddleware проверяет access-токен и сохраняет user_id в контексте.
func JWTMiddleware(manager *TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := authenticate(manager, c.Request().Header.Get("Authorization"))
			if err != nil {
				return err
			}

			setUser(c, userID)
			return next(c)
		}
	}
}

// OptionalJWTMiddleware привязывает пользователя, если токен передан, и пропускает анонимные запросы.
// Неверный токен по-прежнему отклоняется.
func OptionalJWTMiddleware(manager *TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}

			userID, err := authenticate(manager, header)
			if err != nil {
				return err
			}

			setUser(c, userID)
			return next(c)
		}
	}
}

func authenticate(manager *TokenManager, authHeader string) (uuid.UUID, error) {
	if authHeader == "" {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	claims, err := manager.ParseAccessToken(tokenString)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	userID, err := claims.UserID()
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}

	return userID, nil
}

// setUser кладет пользователя и в echo.Context, и в context.Context запроса,
// чтобы слои без доступа к echo (журнал AI-запросов) видели автора.
func setUser(c echo.Context, userID uuid.UUID) {
	c.Set(ContextUserIDKey, userID)
	request := c.Request()
	c.SetRequest(request.WithContext(WithUserID(request.Context(), userID)))
}

// UserIDFromContext извлекает идентификатор пользователя из контекста.
func UserIDFromContext(c echo.Context) (uuid.UUID, bool) {
	value := c.Get(ContextUserIDKey)
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

// WithUserID возвращает контекст с идентификатором пользователя.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, requestUserKey{}, userID)
}

// UserIDFromRequestContext извлекает идентификатор пользователя из context.Context.
func UserIDFromRequestContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(requestUserKey{}).(uuid.UUID)
	return userID, ok
}
