package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/apperr"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/bmi"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
)

func drain(t *testing.T, stream interface{ Recv() (string, error) }) (string, error) {
	t.Helper()
	var text string
	for {
		chunk, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return text, nil
			}
			return text, err
		}
		text += chunk
	}
}

// TestRecommend проверяет отправку профиля и разбор ответа.
func TestRecommend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != dietPath || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var profile models.UserProfile
		if err := json.NewDecoder(r.Body).Decode(&profile); err != nil || profile.BMI != 22.9 {
			t.Errorf("unexpected profile %+v (%v)", profile, err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.DietRecommendation{
			PlanTitle:   "Plan",
			Details:     []string{"a"},
			BMI:         22.9,
			BMICategory: bmi.CategoryNormal,
		})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	recommendation, err := c.Recommend(context.Background(), models.UserProfile{Age: 30, Weight: 70, Height: 175, Goal: models.GoalLoseWeight, BMI: 22.9})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if recommendation.PlanTitle != "Plan" || recommendation.BMICategory != bmi.CategoryNormal {
		t.Fatalf("unexpected recommendation %+v", recommendation)
	}
}

// TestRecommendStatusError проверяет перевод ответа 502 в ошибку upstream.
func TestRecommendStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"Could not fetch diet recommendation. Please try again later."}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Recommend(context.Background(), models.UserProfile{})
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if apperr.MessageOf(err) != "Could not fetch diet recommendation. Please try again later." {
		t.Fatalf("unexpected message %q", apperr.MessageOf(err))
	}
}

// TestStreamChat проверяет чтение потока до нормального конца.
func TestStreamChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body chatBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Message != "hi" || body.History == nil {
			t.Errorf("unexpected body %+v (%v)", body, err)
		}
		w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
		flusher := w.(http.Flusher)
		for _, chunk := range []string{"Hello", ", ", "there"} {
			_, _ = w.Write([]byte(chunk))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	stream, err := New(srv.URL, time.Second).StreamChat(context.Background(), nil, "hi")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer stream.Close()

	text, err := drain(t, stream)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if text != "Hello, there" {
		t.Fatalf("unexpected text %q", text)
	}
}

// TestStreamChatOpenError проверяет ошибку до первого фрагмента.
func TestStreamChatOpenError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to get response from AI"}`))
	}))
	defer srv.Close()

	if _, err := New(srv.URL, time.Second).StreamChat(context.Background(), nil, "hi"); !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

// TestStreamChatAborted проверяет, что обрыв соединения не выглядит как конец ответа.
func TestStreamChatAborted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
		_, _ = w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}))
	defer srv.Close()

	stream, err := New(srv.URL, time.Second).StreamChat(context.Background(), nil, "hi")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer stream.Close()

	text, err := drain(t, stream)
	if err == nil {
		t.Fatal("expected aborted stream error")
	}
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if text != "partial" {
		t.Fatalf("unexpected text %q", text)
	}
}
