package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestKindOfWrapped проверяет извлечение вида из обернутой ошибки.
func TestKindOfWrapped(t *testing.T) {
	base := Wrap(KindUpstream, "gemini.generate", errors.New("dial tcp: timeout"))
	wrapped := fmt.Errorf("recommend: %w", base)

	if got := KindOf(wrapped); got != KindUpstream {
		t.Fatalf("expected upstream, got %s", got)
	}
	if !Is(wrapped, KindUpstream) {
		t.Fatal("expected Is to match upstream")
	}
}

// TestKindOfPlainError проверяет, что обычные ошибки не классифицируются.
func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindUnknown {
		t.Fatalf("expected unknown, got %s", got)
	}
	if got := KindOf(nil); got != KindUnknown {
		t.Fatalf("expected unknown for nil, got %s", got)
	}
}

// TestValidationFields проверяет ошибки полей и стабильный текст ошибки.
func TestValidationFields(t *testing.T) {
	err := Validation("diet.form", map[string]string{"weight": "Enter a valid weight.", "age": "Enter a valid age."})

	fields := FieldsOf(err)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	text := err.Error()
	if strings.Index(text, "age=") > strings.Index(text, "weight=") {
		t.Fatalf("expected sorted fields, got %q", text)
	}
}

// TestMessageOf проверяет выбор текста для пользователя.
func TestMessageOf(t *testing.T) {
	inner := Wrap(KindMalformedResponse, "diet.parse", errors.New("bad json"))
	outer := &Error{Kind: KindMalformedResponse, Op: "diet.recommend", Message: "try later", Err: inner}
	if got := MessageOf(outer); got != "try later" {
		t.Fatalf("expected outer message, got %q", got)
	}
	if got := MessageOf(inner); got != "upstream service unavailable" {
		t.Fatalf("expected generic upstream message, got %q", got)
	}
	if got := MessageOf(errors.New("boom")); got != "internal server error" {
		t.Fatalf("expected generic message, got %q", got)
	}
}
