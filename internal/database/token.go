package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"quizhub/internal/model"
	"time"
)

type RefreshTokenStore interface {
	CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error
	FindRefreshTokenByHash(ctx context.Context, hash string) (*model.RefreshToken, error)
	// RotateRefreshToken revokes the token identified by id and records its
	// successor. It reports false when the token was already revoked.
	RotateRefreshToken(ctx context.Context, id, replacedBy string) (bool, error)
	RevokeRefreshToken(ctx context.Context, id string) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) (int64, error)
	DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error)
}

type refreshTokenStore struct {
	db *sql.DB
}

func NewRefreshTokenStore(db *sql.DB) RefreshTokenStore {
	return &refreshTokenStore{db: db}
}

func (s *refreshTokenStore) CreateRefreshToken(ctx context.Context, t *model.RefreshToken) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO refresh_tokens (id, user_id, token_hash, user_agent, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.UserID, t.TokenHash, t.UserAgent, t.ExpiresAt, t.CreatedAt)
	if err != nil {
		return wrapWriteErr("inserting refresh token", err)
	}
	return nil
}

func (s *refreshTokenStore) FindRefreshTokenByHash(ctx context.Context, hash string) (*model.RefreshToken, error) {
	t := &model.RefreshToken{}
	var revokedAt sql.NullTime
	var replacedBy sql.NullString

	err := s.db.QueryRowContext(ctx, `SELECT id, user_id, token_hash, user_agent, expires_at, revoked_at, replaced_by, created_at
		FROM refresh_tokens WHERE token_hash = $1`, hash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.UserAgent, &t.ExpiresAt, &revokedAt, &replacedBy, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("selecting refresh token: %w", err)
	}

	if revokedAt.Valid {
		t.RevokedAt = &revokedAt.Time
	}
	if replacedBy.Valid {
		t.ReplacedBy = &replacedBy.String
	}

	return t, nil
}

func (s *refreshTokenStore) RotateRefreshToken(ctx context.Context, id, replacedBy string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked_at = $1, replaced_by = $2
		WHERE id = $3 AND revoked_at IS NULL`, time.Now().UTC(), replacedBy, id)
	if err != nil {
		return false, fmt.Errorf("rotating refresh token: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *refreshTokenStore) RevokeRefreshToken(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE refresh_tokens SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL",
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("revoking refresh token: %w", err)
	}
	return nil
}

func (s *refreshTokenStore) RevokeUserRefreshTokens(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE refresh_tokens SET revoked_at = $1 WHERE user_id = $2 AND revoked_at IS NULL",
		time.Now().UTC(), userID)
	if err != nil {
		return 0, fmt.Errorf("revoking user refresh tokens: %w", err)
	}
	return res.RowsAffected()
}

func (s *refreshTokenStore) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at < $1", before)
	if err != nil {
		return 0, fmt.Errorf("deleting expired refresh tokens: %w", err)
	}
	return res.RowsAffected()
}
