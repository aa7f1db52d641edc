package diet

import (
	"fmt"
	"strconv"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/ai"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
)

const (
	fieldPlanTitle = "planTitle"
	fieldDetails   = "details"
)

const SystemInstruction = "You are an expert nutritionist. Respond with JSON only, without extra text."

// BuildPrompt собирает инструкцию для модели по профилю пользователя.
// Функция детерминирована: одинаковый профиль дает одинаковый текст.
func BuildPrompt(profile models.UserProfile) string {
	return fmt.Sprintf(`You are an expert nutritionist. Based on the following user profile, generate a personalized diet recommendation.

User Profile:
- Age: %d years
- Weight: %s kg
- Height: %s cm
- BMI: %s
- Dietary Goal: %s

Please provide a concise and actionable diet plan. The output must be a JSON object with exactly two required fields:
- The '%s' should be a catchy name for the diet plan, reflecting the user's goal and BMI.
- The '%s' should be an array of strings, where each string is a single, actionable diet recommendation or principle. Keep each point to one sentence.
Output JSON only, no code fences, no extra text.`,
		profile.Age,
		formatNumber(profile.Weight),
		formatNumber(profile.Height),
		formatNumber(profile.BMI),
		profile.Goal,
		fieldPlanTitle,
		fieldDetails,
	)
}

// PlanSchema возвращает схему ответа, совпадающую с требованиями BuildPrompt.
func PlanSchema() *ai.Schema {
	return &ai.Schema{
		Type: ai.TypeObject,
		Properties: map[string]*ai.Schema{
			fieldPlanTitle: {Type: ai.TypeString},
			fieldDetails: {
				Type:  ai.TypeArray,
				Items: &ai.Schema{Type: ai.TypeString},
			},
		},
		Required: []string{fieldPlanTitle, fieldDetails},
	}
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
