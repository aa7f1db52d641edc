package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/ai"
	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/auth"
)

type AIRepository struct {
	db *pgxpool.Pool
}

type AIRequestLog struct {
	UserID          *uuid.UUID
	RequestType     string
	Provider        string
	Model           string
	Prompt          string
	RequestPayload  []byte
	ResponsePayload []byte
	RawResponse     string
	Success         bool
	ErrorMessage    *string
}

// NewAIRepository создает репозиторий для AI-запросов.
func NewAIRepository(db *pgxpool.Pool) *AIRepository {
	return &AIRepository{db: db}
}

// LogRequest сохраняет лог AI-запроса.
func (r *AIRepository) LogRequest(ctx context.Context, log AIRequestLog) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO ai_requests
		 (user_id, request_type, provider, model, prompt, request_payload, response_payload, raw_response, success, error_message)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::jsonb, NULLIF($7, '')::jsonb, $8, $9, $10)`,
		log.UserID,
		log.RequestType,
		log.Provider,
		log.Model,
		log.Prompt,
		jsonOrEmpty(log.RequestPayload),
		jsonOrEmpty(log.ResponsePayload),
		log.RawResponse,
		log.Success,
		log.ErrorMessage,
	)
	return err
}

// Record реализует ai.Auditor. Автор берется из контекста запроса, анонимные запросы пишутся без него.
func (r *AIRepository) Record(ctx context.Context, exchange ai.Exchange) error {
	return r.LogRequest(ctx, ToAIRequestLog(ctx, exchange))
}

// ToAIRequestLog переводит обмен с моделью в строку журнала.
func ToAIRequestLog(ctx context.Context, exchange ai.Exchange) AIRequestLog {
	log := AIRequestLog{
		RequestType:     exchange.RequestType,
		Provider:        exchange.Provider,
		Model:           exchange.Model,
		Prompt:          exchange.Prompt,
		RequestPayload:  exchange.Request,
		ResponsePayload: exchange.Response,
		RawResponse:     string(exchange.Raw),
		Success:         exchange.Err == nil,
	}
	if userID, ok := auth.UserIDFromRequestContext(ctx); ok {
		log.UserID = &userID
	}
	if exchange.Err != nil {
		errMsg := exchange.Err.Error()
		log.ErrorMessage = &errMsg
	}
	return log
}

// jsonOrEmpty отбрасывает невалидный JSON, чтобы приведение к jsonb не сорвало запись.
func jsonOrEmpty(payload []byte) string {
	if len(payload) == 0 || !json.Valid(payload) {
		return ""
	}
	return string(payload)
}
