package diet

import (
	"math"
	"strconv"
	"strings"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/apperr"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/bmi"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
)

const maxAge = 120

const (
	FieldAge    = "age"
	FieldWeight = "weight"
	FieldHeight = "height"
	FieldGoal   = "goal"
)

const (
	msgInvalidAge    = "Enter a valid age."
	msgInvalidWeight = "Enter a valid weight."
	msgInvalidHeight = "Enter a valid height."
	msgInvalidGoal   = "Choose a dietary goal."
)

// FormInput holds the plan form exactly as typed.
type FormInput struct {
	Age    string
	Weight string
	Height string
	Goal   models.Goal
}

// ValidateForm проверяет поля формы и строит профиль с рассчитанным BMI.
// Все ошибки полей возвращаются одной ошибкой apperr.KindValidation.
func ValidateForm(in FormInput) (models.UserProfile, error) {
	fields := make(map[string]string)

	age, err := strconv.Atoi(strings.TrimSpace(in.Age))
	if err != nil || age <= 0 || age > maxAge {
		fields[FieldAge] = msgInvalidAge
	}

	weight, ok := parsePositive(in.Weight)
	if !ok {
		fields[FieldWeight] = msgInvalidWeight
	}

	height, ok := parsePositive(in.Height)
	if !ok {
		fields[FieldHeight] = msgInvalidHeight
	}

	if !in.Goal.Valid() {
		fields[FieldGoal] = msgInvalidGoal
	}

	if len(fields) > 0 {
		return models.UserProfile{}, apperr.Validation("diet.validate_form", fields)
	}

	value, ok := bmi.Calculate(weight, height)
	if !ok || value <= 0 {
		// Без BMI план не запрашивается. Округленный ноль тоже считается отсутствием BMI.
		return models.UserProfile{}, apperr.Validation("diet.validate_form", map[string]string{
			FieldHeight: msgInvalidHeight,
		})
	}

	return models.UserProfile{
		Age:    age,
		Weight: weight,
		Height: height,
		Goal:   in.Goal,
		BMI:    value,
	}, nil
}

// PreviewBMI возвращает BMI для отображения во время ввода.
func PreviewBMI(weight, height string) (float64, bool) {
	w, ok := parsePositive(weight)
	if !ok {
		return 0, false
	}
	h, ok := parsePositive(height)
	if !ok {
		return 0, false
	}
	value, ok := bmi.Calculate(w, h)
	if !ok || value <= 0 {
		return 0, false
	}
	return value, true
}

func parsePositive(raw string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return 0, false
	}
	return value, true
}
