package diet

import (
	"strings"
	"testing"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/apperr"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
)

// TestValidateFormValid проверяет корректную форму.
func TestValidateFormValid(t *testing.T) {
	profile, err := ValidateForm(FormInput{Age: "25", Weight: "70", Height: "175", Goal: models.GoalMaintainWeight})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if profile.Age != 25 || profile.Weight != 70 || profile.Height != 175 || profile.BMI != 22.9 {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

// TestValidateFormFieldErrors проверяет, что каждое неверное поле блокирует отправку.
func TestValidateFormFieldErrors(t *testing.T) {
	valid := FormInput{Age: "25", Weight: "70", Height: "175", Goal: models.GoalLoseWeight}

	cases := []struct {
		name  string
		edit  func(*FormInput)
		field string
		msg   string
	}{
		{name: "age zero", edit: func(in *FormInput) { in.Age = "0" }, field: FieldAge, msg: "Enter a valid age."},
		{name: "age too high", edit: func(in *FormInput) { in.Age = "121" }, field: FieldAge, msg: "Enter a valid age."},
		{name: "age empty", edit: func(in *FormInput) { in.Age = "" }, field: FieldAge, msg: "Enter a valid age."},
		{name: "age fraction", edit: func(in *FormInput) { in.Age = "25.5" }, field: FieldAge, msg: "Enter a valid age."},
		{name: "weight zero", edit: func(in *FormInput) { in.Weight = "0" }, field: FieldWeight, msg: "Enter a valid weight."},
		{name: "weight text", edit: func(in *FormInput) { in.Weight = "heavy" }, field: FieldWeight, msg: "Enter a valid weight."},
		{name: "height zero", edit: func(in *FormInput) { in.Height = "0" }, field: FieldHeight, msg: "Enter a valid height."},
		{name: "height negative", edit: func(in *FormInput) { in.Height = "-175" }, field: FieldHeight, msg: "Enter a valid height."},
		{name: "bmi rounds to zero", edit: func(in *FormInput) { in.Weight = "0.001"; in.Height = "250" }, field: FieldHeight, msg: "Enter a valid height."},
		{name: "goal", edit: func(in *FormInput) { in.Goal = "Bulk" }, field: FieldGoal, msg: "Choose a dietary goal."},
	}

	for _, tc := range cases {
		input := valid
		tc.edit(&input)

		_, err := ValidateForm(input)
		if !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}

		fields := apperr.FieldsOf(err)
		if len(fields) != 1 || fields[tc.field] != tc.msg {
			t.Fatalf("%s: expected %s=%q, got %v", tc.name, tc.field, tc.msg, fields)
		}
	}
}

// TestValidateFormAllErrors проверяет, что ошибки всех полей собираются вместе.
func TestValidateFormAllErrors(t *testing.T) {
	_, err := ValidateForm(FormInput{})
	fields := apperr.FieldsOf(err)
	if len(fields) != 4 {
		t.Fatalf("expected 4 field errors, got %v", fields)
	}
}

// TestPreviewBMI проверяет расчет BMI во время ввода.
func TestPreviewBMI(t *testing.T) {
	value, ok := PreviewBMI("70", " 175 ")
	if !ok || value != 22.9 {
		t.Fatalf("expected 22.9, got %v (ok=%v)", value, ok)
	}
	if _, ok := PreviewBMI("70", ""); ok {
		t.Fatal("expected no bmi without height")
	}
	if value, ok := PreviewBMI("0.001", "250"); ok {
		t.Fatalf("expected no bmi when it rounds to zero, got %v", value)
	}
}

// TestBuildPrompt проверяет, что инструкция содержит профиль и оба поля.
func TestBuildPrompt(t *testing.T) {
	profile := models.UserProfile{Age: 30, Weight: 70, Height: 175.5, Goal: models.GoalLoseWeight, BMI: 22.7}
	prompt := BuildPrompt(profile)

	for _, want := range []string{"Age: 30 years", "Weight: 70 kg", "Height: 175.5 cm", "BMI: 22.7", "Dietary Goal: Lose Weight", "'planTitle'", "'details'", "JSON"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q:\n%s", want, prompt)
		}
	}
	if prompt != BuildPrompt(profile) {
		t.Fatal("expected deterministic prompt")
	}

	schema := PlanSchema()
	if len(schema.Required) != 2 || schema.Properties[fieldDetails].Items == nil {
		t.Fatalf("unexpected schema %+v", schema)
	}
}
