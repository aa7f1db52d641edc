package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	aiRequestSummaryColumns = "id, user_id, request_type, provider, model, success, error_message, created_at"
	aiRequestFullColumns    = "id, user_id, request_type, provider, model, prompt, request_payload::text, response_payload::text, raw_response, success, error_message, created_at"
)

// AdminRepository отвечает на диагностические запросы операторов.
type AdminRepository struct {
	db *pgxpool.Pool
}

// AdminUser повторяет порядок колонок запроса ListUsers.
type AdminUser struct {
	ID        uuid.UUID
	Email     string
	Name      *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AIRequestFilter struct {
	UserID      *uuid.UUID
	Success     *bool
	RequestType *string
	Since       *time.Time
}

type AIRequestRecord struct {
	ID              uuid.UUID
	UserID          *uuid.UUID
	RequestType     string
	Provider        string
	Model           string
	Prompt          *string
	RequestPayload  []byte
	ResponsePayload []byte
	RawResponse     *string
	Success         bool
	ErrorMessage    *string
	CreatedAt       time.Time
}

type DailyCount struct {
	Day   time.Time
	Count int
}

type TypeCount struct {
	RequestType string
	Total       int
	Failed      int
}

type UsageStats struct {
	Users            int
	TodoLists        int
	AIRequests       int
	AISuccess        int
	AIFail           int
	AIRequestsByDay  []DailyCount
	AIRequestsByType []TypeCount
}

func NewAdminRepository(db *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{db: db}
}

// ListUsers возвращает страницу пользователей, новые первыми.
func (r *AdminRepository) ListUsers(ctx context.Context, limit, offset int) ([]AdminUser, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, email, name, created_at, updated_at
		 FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[AdminUser])
}

func (r *AdminRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// ListAIRequests возвращает журнал обращений к модели, новые первыми.
// Промпты и ответы отдаются только при includePayloads.
func (r *AdminRepository) ListAIRequests(ctx context.Context, filter AIRequestFilter, limit, offset int, includePayloads bool) ([]AIRequestRecord, error) {
	where, args := buildAIRequestWhere(filter)

	columns := aiRequestSummaryColumns
	if includePayloads {
		columns = aiRequestFullColumns
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf("SELECT %s FROM ai_requests%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		columns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (AIRequestRecord, error) {
		var rec AIRequestRecord
		dest := []any{&rec.ID, &rec.UserID, &rec.RequestType, &rec.Provider, &rec.Model}
		if includePayloads {
			dest = append(dest, &rec.Prompt, &rec.RequestPayload, &rec.ResponsePayload, &rec.RawResponse)
		}
		dest = append(dest, &rec.Success, &rec.ErrorMessage, &rec.CreatedAt)
		return rec, row.Scan(dest...)
	})
}

func (r *AdminRepository) CountAIRequests(ctx context.Context, filter AIRequestFilter) (int, error) {
	where, args := buildAIRequestWhere(filter)

	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM ai_requests"+where, args...).Scan(&count)
	return count, err
}

// UsageStats сводит счетчики пользователей, списков дел и обращений к модели.
// Разбивки по дням и типам запросов охватывают последние days дней.
func (r *AdminRepository) UsageStats(ctx context.Context, days int) (UsageStats, error) {
	var stats UsageStats
	if days <= 0 {
		return stats, ErrInvalid
	}

	err := r.db.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM users),
		        (SELECT COUNT(*) FROM todo_lists),
		        COUNT(*),
		        COUNT(*) FILTER (WHERE success),
		        COUNT(*) FILTER (WHERE NOT success)
		 FROM ai_requests`,
	).Scan(&stats.Users, &stats.TodoLists, &stats.AIRequests, &stats.AISuccess, &stats.AIFail)
	if err != nil {
		return stats, err
	}

	since := time.Now().UTC().AddDate(0, 0, -days+1)

	rows, err := r.db.Query(ctx,
		`SELECT date_trunc('day', created_at)::date AS day, COUNT(*)
		 FROM ai_requests WHERE created_at >= $1
		 GROUP BY day ORDER BY day DESC`,
		since,
	)
	if err != nil {
		return stats, err
	}
	if stats.AIRequestsByDay, err = pgx.CollectRows(rows, pgx.RowToStructByPos[DailyCount]); err != nil {
		return stats, err
	}

	rows, err = r.db.Query(ctx,
		`SELECT request_type, COUNT(*), COUNT(*) FILTER (WHERE NOT success)
		 FROM ai_requests WHERE created_at >= $1
		 GROUP BY request_type ORDER BY request_type`,
		since,
	)
	if err != nil {
		return stats, err
	}
	stats.AIRequestsByType, err = pgx.CollectRows(rows, pgx.RowToStructByPos[TypeCount])
	return stats, err
}

// buildAIRequestWhere собирает условие фильтра с позиционными параметрами начиная с $1.
func buildAIRequestWhere(filter AIRequestFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(column string, op string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s %s $%d", column, op, len(args)))
	}

	if filter.UserID != nil {
		add("user_id", "=", *filter.UserID)
	}
	if filter.Success != nil {
		add("success", "=", *filter.Success)
	}
	if filter.RequestType != nil {
		add("request_type", "=", *filter.RequestType)
	}
	if filter.Since != nil {
		add("created_at", ">=", *filter.Since)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
