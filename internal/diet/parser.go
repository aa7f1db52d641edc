package diet

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/apperr"
)

var fencePattern = regexp.MustCompile("```(json)?\\s*([\\s\\S]*?)\\s*```")

// Plan is the structured part of a recommendation produced by the model.
type Plan struct {
	PlanTitle string   `json:"planTitle"`
	Details   []string `json:"details"`
}

type rawPlan struct {
	PlanTitle *string   `json:"planTitle"`
	Details   *[]string `json:"details"`
}

// ParsePlan извлекает план из ответа модели. Ответ может быть обернут в блок ```json.
// Любое нарушение структуры отклоняет ответ целиком.
func ParsePlan(raw string) (Plan, error) {
	const op = "diet.parse_plan"

	plan, err := parsePlan(raw)
	if err != nil {
		return Plan{}, apperr.Wrap(apperr.KindMalformedResponse, op, err)
	}
	return plan, nil
}

func parsePlan(raw string) (Plan, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return Plan{}, errors.New("response is empty")
	}

	decoder := json.NewDecoder(strings.NewReader(payload))
	var decoded rawPlan
	if err := decoder.Decode(&decoded); err != nil {
		return Plan{}, fmt.Errorf("decode plan: %w", err)
	}
	if decoder.More() {
		return Plan{}, errors.New("unexpected data after plan object")
	}

	if decoded.PlanTitle == nil {
		return Plan{}, errors.New("planTitle is missing")
	}
	if strings.TrimSpace(*decoded.PlanTitle) == "" {
		return Plan{}, errors.New("planTitle is empty")
	}
	if decoded.Details == nil {
		return Plan{}, errors.New("details are missing")
	}

	details := make([]string, 0, len(*decoded.Details))
	for i, detail := range *decoded.Details {
		if strings.TrimSpace(detail) == "" {
			return Plan{}, fmt.Errorf("details[%d] is empty", i)
		}
		details = append(details, detail)
	}

	return Plan{PlanTitle: *decoded.PlanTitle, Details: details}, nil
}

// extractJSON берет содержимое первого блока кода, где бы он ни стоял в ответе.
func extractJSON(input string) string {
	trimmed := strings.TrimSpace(input)
	if match := fencePattern.FindStringSubmatch(trimmed); match != nil {
		trimmed = strings.TrimSpace(match[2])
	}
	return trimmed
}
