package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/ai"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/auth"
)

// TestBuildAIRequestWhere проверяет нумерацию параметров фильтра.
func TestBuildAIRequestWhere(t *testing.T) {
	where, args := buildAIRequestWhere(AIRequestFilter{})
	if where != "" || len(args) != 0 {
		t.Fatalf("expected empty filter, got %q %v", where, args)
	}

	userID := uuid.New()
	success := false
	requestType := ai.RequestTypeChat
	where, args = buildAIRequestWhere(AIRequestFilter{UserID: &userID, Success: &success, RequestType: &requestType})

	if where != " WHERE user_id = $1 AND success = $2 AND request_type = $3" {
		t.Fatalf("unexpected where %q", where)
	}
	if !reflect.DeepEqual(args, []any{userID, false, "chat"}) {
		t.Fatalf("unexpected args %v", args)
	}

	since := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	where, args = buildAIRequestWhere(AIRequestFilter{Since: &since})
	if where != " WHERE created_at >= $1" || len(args) != 1 {
		t.Fatalf("unexpected since filter %q %v", where, args)
	}
}

// TestToAIRequestLog проверяет перевод обмена с моделью в строку журнала.
func TestToAIRequestLog(t *testing.T) {
	userID := uuid.New()
	ctx := auth.WithUserID(context.Background(), userID)

	log := ToAIRequestLog(ctx, ai.Exchange{
		RequestType: ai.RequestTypeDietPlan,
		Provider:    "gemini",
		Model:       "gemini-2.5-flash",
		Prompt:      "prompt",
		Raw:         []byte("raw"),
		Err:         errors.New("boom"),
	})

	if log.UserID == nil || *log.UserID != userID {
		t.Fatalf("expected user %s, got %v", userID, log.UserID)
	}
	if log.Success || log.ErrorMessage == nil || *log.ErrorMessage != "boom" {
		t.Fatalf("expected failed log, got %+v", log)
	}
	if log.RawResponse != "raw" {
		t.Fatalf("unexpected raw response %q", log.RawResponse)
	}

	anonymous := ToAIRequestLog(context.Background(), ai.Exchange{RequestType: ai.RequestTypeChat})
	if anonymous.UserID != nil || !anonymous.Success {
		t.Fatalf("expected anonymous success, got %+v", anonymous)
	}
}

// TestJSONOrEmpty проверяет отбрасывание невалидного JSON.
func TestJSONOrEmpty(t *testing.T) {
	if jsonOrEmpty(nil) != "" || jsonOrEmpty([]byte("{broken")) != "" {
		t.Fatal("expected empty payload")
	}
	if jsonOrEmpty([]byte(`{"a":1}`)) != `{"a":1}` {
		t.Fatal("expected payload to be kept")
	}
}
