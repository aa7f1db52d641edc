package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/auth"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/notifications"
)

// DietRecommender реализуется diet.Service.
type DietRecommender interface {
	Recommend(ctx context.Context, profile models.UserProfile) (models.DietRecommendation, error)
}

type DietHandler struct {
	Service DietRecommender
	Hub     *notifications.Hub
}

// NewDietHandler создает обработчик рекомендаций по питанию.
func NewDietHandler(service DietRecommender, hub *notifications.Hub) *DietHandler {
	return &DietHandler{Service: service, Hub: hub}
}

type DietRequest struct {
	Age    int         `json:"age" validate:"gt=0,lte=120"`
	Weight float64     `json:"weight" validate:"gt=0"`
	Height float64     `json:"height" validate:"gt=0"`
	BMI    float64     `json:"bmi" validate:"gt=0"`
	Goal   models.Goal `json:"goal" validate:"required,goal"`
}

// Recommend проксирует профиль в модель и возвращает план питания.
func (h *DietHandler) Recommend(c echo.Context) error {
	var req DietRequest
	if err := bindRequest(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	recommendation, err := h.Service.Recommend(c.Request().Context(), models.UserProfile{
		Age:    req.Age,
		Weight: req.Weight,
		Height: req.Height,
		Goal:   req.Goal,
		BMI:    req.BMI,
	})
	if err != nil {
		return appError(c, err)
	}

	if userID, ok := auth.UserIDFromContext(c); ok && h.Hub != nil {
		h.Hub.Publish(userID, notifications.DietPlanReadyEvent(recommendation))
	}

	return c.JSON(http.StatusOK, recommendation)
}
