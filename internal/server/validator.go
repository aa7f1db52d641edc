package server

import (
	"github.com/go-playground/validator/v10"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
)

type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator создает валидатор на базе go-playground/validator.
// Тег goal принимает только поддерживаемые цели питания.
func NewValidator() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("goal", validateGoal)
	return &CustomValidator{validator: v}
}

// Validate запускает проверку структуры по тегам.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func validateGoal(fl validator.FieldLevel) bool {
	return models.Goal(fl.Field().String()).Valid()
}
