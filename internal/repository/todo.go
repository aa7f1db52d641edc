package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/todo"
)

type TodoRepository struct {
	db *pgxpool.Pool
}

// NewTodoRepository создает репозиторий списков дел.
func NewTodoRepository(db *pgxpool.Pool) *TodoRepository {
	return &TodoRepository{db: db}
}

// Get возвращает сохраненный список пользователя или todo.ErrNotFound.
func (r *TodoRepository) Get(ctx context.Context, userID uuid.UUID, key string) ([]byte, error) {
	var payload []byte
	err := r.db.QueryRow(ctx,
		`SELECT payload::text
		 FROM todo_lists
		 WHERE user_id = $1 AND storage_key = $2`,
		userID, key,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, todo.ErrNotFound
		}
		return nil, err
	}
	return payload, nil
}

// Put сохраняет список пользователя целиком; последний писатель выигрывает.
func (r *TodoRepository) Put(ctx context.Context, userID uuid.UUID, key string, payload []byte) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO todo_lists (user_id, storage_key, payload, updated_at)
		 VALUES ($1, $2, $3::jsonb, NOW())
		 ON CONFLICT (user_id, storage_key)
		 DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`,
		userID, key, string(payload),
	)
	return err
}

// ForUser возвращает todo.Storage, привязанное к пользователю.
func (r *TodoRepository) ForUser(userID uuid.UUID) todo.Storage {
	return userTodoStorage{repo: r, userID: userID}
}

type userTodoStorage struct {
	repo   *TodoRepository
	userID uuid.UUID
}

func (s userTodoStorage) Get(ctx context.Context, key string) ([]byte, error) {
	return s.repo.Get(ctx, s.userID, key)
}

func (s userTodoStorage) Put(ctx context.Context, key string, value []byte) error {
	return s.repo.Put(ctx, s.userID, key, value)
}
