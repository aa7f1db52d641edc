package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/apperr"
)

var (
	errInvalidPayload   = errors.New("invalid payload")
	errValidationFailed = errors.New("validation failed")
)

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
}

func conflict(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, ErrorResponse{Error: message})
}

func notFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, ErrorResponse{Error: message})
}

func forbidden(c echo.Context) error {
	return c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})
}

func serverError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// appError переводит классифицированную ошибку в HTTP-ответ.
// Клиент видит только Message; причина остается в логах.
func appError(c echo.Context, err error) error {
	message := apperr.MessageOf(err)

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Fields: apperr.FieldsOf(err)})
	case apperr.KindUpstream, apperr.KindMalformedResponse:
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: message})
	default:
		return serverError(c)
	}
}

// bindRequest разбирает тело запроса и проверяет теги validate.
// Текст ошибки годится для ответа 400.
func bindRequest(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errInvalidPayload
	}
	if err := c.Validate(req); err != nil {
		return errValidationFailed
	}
	return nil
}
