package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/apperr"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/bmi"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/diet"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
)

// Recommender реализуется client.Client.
type Recommender interface {
	Recommend(ctx context.Context, profile models.UserProfile) (models.DietRecommendation, error)
}

var goalAliases = map[string]models.Goal{
	"lose":     models.GoalLoseWeight,
	"maintain": models.GoalMaintainWeight,
	"gain":     models.GoalGainWeight,
}

func runPlan(ctx context.Context, api Recommender, args []string, streams IO) int {
	fs := pflag.NewFlagSet("plan", pflag.ContinueOnError)
	fs.SetOutput(streams.Err)
	age := fs.String("age", "", "age in years")
	weight := fs.String("weight", "", "weight in kg")
	height := fs.String("height", "", "height in cm")
	goal := fs.String("goal", "lose", "lose, maintain or gain")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	profile, err := diet.ValidateForm(diet.FormInput{
		Age:    *age,
		Weight: *weight,
		Height: *height,
		Goal:   parseGoal(*goal),
	})
	if err != nil {
		fields := apperr.FieldsOf(err)
		for _, field := range []string{diet.FieldAge, diet.FieldWeight, diet.FieldHeight, diet.FieldGoal} {
			if message, ok := fields[field]; ok {
				fmt.Fprintf(streams.Err, "%s: %s\n", field, errorStyle.Render(message))
			}
		}
		return exitUsage
	}

	fmt.Fprintf(streams.Out, "Your BMI: %.1f (%s)\n", profile.BMI, bmi.Categorize(profile.BMI))
	fmt.Fprintln(streams.Out, mutedStyle.Render("Generating your plan..."))

	recommendation, err := api.Recommend(ctx, profile)
	if err != nil {
		fmt.Fprintln(streams.Err, errorStyle.Render(diet.UserMessage))
		return exitError
	}

	renderPlan(streams.Out, recommendation)
	return exitOK
}

func parseGoal(raw string) models.Goal {
	trimmed := strings.TrimSpace(raw)
	if goal, ok := goalAliases[strings.ToLower(trimmed)]; ok {
		return goal
	}
	return models.Goal(trimmed)
}
