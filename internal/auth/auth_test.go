package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TestTokenPair проверяет выпуск и разбор пары токенов.
func TestTokenPair(t *testing.T) {
	manager := NewTokenManager("secret", "smart-diet", time.Minute, time.Hour)
	userID := uuid.New()
	refreshID := uuid.New()

	pair, err := manager.NewTokenPair(userID, refreshID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	claims, err := manager.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("expected valid access token, got %v", err)
	}
	if claims.Subject != userID.String() {
		t.Fatalf("expected subject %s, got %s", userID, claims.Subject)
	}

	refresh, err := manager.ParseRefreshToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("expected valid refresh token, got %v", err)
	}
	if refresh.ID != refreshID.String() {
		t.Fatalf("expected token id %s, got %s", refreshID, refresh.ID)
	}

	if _, err := manager.ParseAccessToken(pair.RefreshToken); err == nil {
		t.Fatal("expected type mismatch for refresh token used as access token")
	}

	other := NewTokenManager("other", "smart-diet", time.Minute, time.Hour)
	if _, err := other.ParseAccessToken(pair.AccessToken); err == nil {
		t.Fatal("expected signature error with another secret")
	}
}

// TestTokenClaims проверяет разбор идентификаторов, истечение срока и чужую аудиторию.
func TestTokenClaims(t *testing.T) {
	manager := NewTokenManager("secret", "smart-diet", time.Minute, time.Hour)
	userID := uuid.New()
	refreshID := uuid.New()

	pair, err := manager.NewTokenPair(userID, refreshID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	claims, err := manager.ParseRefreshToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("expected valid refresh token, got %v", err)
	}
	if got, err := claims.UserID(); err != nil || got != userID {
		t.Fatalf("expected user %s, got %s (%v)", userID, got, err)
	}
	if got, err := claims.TokenID(); err != nil || got != refreshID {
		t.Fatalf("expected token %s, got %s (%v)", refreshID, got, err)
	}

	if _, err := manager.ParseAccessToken(pair.RefreshToken); !errors.Is(err, ErrTokenTypeMismatch) {
		t.Fatalf("expected ErrTokenTypeMismatch, got %v", err)
	}

	broken := &Claims{}
	broken.Subject = "not-a-uuid"
	if _, err := broken.UserID(); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for bad subject, got %v", err)
	}

	manager.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, err := manager.NewTokenPair(userID, refreshID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := manager.ParseAccessToken(stale.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired access token to fail, got %v", err)
	}
	if _, err := manager.ParseRefreshToken(stale.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired refresh token to fail, got %v", err)
	}

	other := NewTokenManager("secret", "another-issuer", time.Minute, time.Hour)
	if _, err := other.ParseAccessToken(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected issuer mismatch to fail, got %v", err)
	}
}

// TestPasswordHash проверяет хэширование пароля и хэш токена.
func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := ComparePassword(hash, "correct horse"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := ComparePassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch")
	}

	if !CompareTokenHash(HashToken("token"), "token") || CompareTokenHash(HashToken("token"), "other") {
		t.Fatal("unexpected token hash comparison")
	}

	if _, err := HashPassword("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	if err := ValidatePassword(string(make([]byte, MaxPasswordBytes+1))); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}

// TestOptionalJWTMiddleware проверяет анонимный запрос и привязку пользователя.
func TestOptionalJWTMiddleware(t *testing.T) {
	manager := NewTokenManager("secret", "smart-diet", time.Minute, time.Hour)
	userID := uuid.New()
	pair, err := manager.NewTokenPair(userID, uuid.New())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	e := echo.New()
	var seen uuid.UUID
	var fromRequest bool
	handler := OptionalJWTMiddleware(manager)(func(c echo.Context) error {
		seen, _ = UserIDFromContext(c)
		_, fromRequest = UserIDFromRequestContext(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/diet", nil)
	if err := handler(e.NewContext(req, httptest.NewRecorder())); err != nil {
		t.Fatalf("expected anonymous request to pass, got %v", err)
	}
	if seen != uuid.Nil || fromRequest {
		t.Fatal("expected no user for anonymous request")
	}

	req = httptest.NewRequest(http.MethodPost, "/api/diet", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	if err := handler(e.NewContext(req, httptest.NewRecorder())); err != nil {
		t.Fatalf("expected authenticated request to pass, got %v", err)
	}
	if seen != userID || !fromRequest {
		t.Fatalf("expected user %s in both contexts", userID)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/diet", nil)
	req.Header.Set("Authorization", "Bearer broken")
	err = handler(e.NewContext(req, httptest.NewRecorder()))
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for broken token, got %v", err)
	}
}

// TestUserIDFromRequestContext проверяет пустой контекст.
func TestUserIDFromRequestContext(t *testing.T) {
	if _, ok := UserIDFromRequestContext(context.Background()); ok {
		t.Fatal("expected no user in empty context")
	}
}
