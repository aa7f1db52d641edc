package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tharun0732/Smart-Diet-Recommendation-System/internal/models"
)

const (
	insertRefreshToken = `INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at)
		 VALUES ($1, $2, $3, $4)`

	revokeRefreshToken = `UPDATE refresh_tokens
		 SET revoked_at = NOW(), replaced_by = $2
		 WHERE id = $1 AND revoked_at IS NULL`
)

// execer покрывает пул и транзакцию.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type RefreshTokenRepository struct {
	db *pgxpool.Pool
}

// NewRefreshTokenRepository создает репозиторий refresh-токенов.
func NewRefreshTokenRepository(db *pgxpool.Pool) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token models.RefreshToken) error {
	_, err := r.db.Exec(ctx, insertRefreshToken, token.ID, token.UserID, token.TokenHash, token.ExpiresAt)
	return err
}

func (r *RefreshTokenRepository) GetByID(ctx context.Context, id uuid.UUID) (models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, token_hash, expires_at, created_at, revoked_at, replaced_by
		 FROM refresh_tokens WHERE id = $1`,
		id,
	).Scan(&token.ID, &token.UserID, &token.TokenHash, &token.ExpiresAt, &token.CreatedAt, &token.RevokedAt, &token.ReplacedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.RefreshToken{}, ErrNotFound
	}
	return token, err
}

// Revoke отзывает действующий токен. Уже отозванный токен дает ErrNotFound.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, id uuid.UUID, replacedBy *uuid.UUID) error {
	return revoke(ctx, r.db, id, replacedBy)
}

// RevokeAllForUser отзывает все действующие токены пользователя.
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	cmd, err := r.db.Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW()
		 WHERE user_id = $1 AND revoked_at IS NULL`,
		userID,
	)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// Rotate атомарно выпускает новый токен и отзывает старый со ссылкой на замену.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, oldID uuid.UUID, newToken models.RefreshToken) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertRefreshToken, newToken.ID, newToken.UserID, newToken.TokenHash, newToken.ExpiresAt); err != nil {
			return err
		}
		return revoke(ctx, tx, oldID, &newToken.ID)
	})
}

func revoke(ctx context.Context, db execer, id uuid.UUID, replacedBy *uuid.UUID) error {
	cmd, err := db.Exec(ctx, revokeRefreshToken, id, replacedBy)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
