package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"quizhub/internal/model"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	UsernameConstraint = "users_username_key"
	EmailConstraint    = "users_email_key"

	usernameLowerConstraint = "users_username_lower_key"
)

type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	FindUserByID(ctx context.Context, id string) (*model.User, error)
	FindUserByProvider(ctx context.Context, provider, providerID string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	LinkProvider(ctx context.Context, userID, provider, providerID, avatarURL string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type userStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) UserStore {
	return &userStore{db: db}
}

const userColumns = "id, name, username, email, password_hash, provider, provider_id, avatar_url, role, email_verified, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	user := &model.User{}
	var passwordHash, providerID sql.NullString

	err := row.Scan(&user.ID, &user.Name, &user.Username, &user.Email, &passwordHash, &user.Provider, &providerID, &user.AvatarURL, &user.Role, &user.EmailVerified, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = passwordHash.String
	user.ProviderID = providerID.String

	return user, nil
}

func (s *userStore) findOne(ctx context.Context, where string, args ...any) (*model.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No user found is not an error
		}
		return nil, fmt.Errorf("selecting user: %w", err)
	}
	return user, nil
}

func (s *userStore) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findOne(ctx, "email = $1", strings.ToLower(email))
}

func (s *userStore) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.findOne(ctx, "lower(username) = lower($1)", username)
}

func (s *userStore) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	return s.findOne(ctx, "id = $1", id)
}

func (s *userStore) FindUserByProvider(ctx context.Context, provider, providerID string) (*model.User, error) {
	return s.findOne(ctx, "provider = $1 AND provider_id = $2", provider, providerID)
}

func (s *userStore) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	user.ID = uuid.New().String()
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	if user.Provider == "" {
		user.Provider = model.ProviderLocal
	}

	_, err := s.db.ExecContext(ctx, "INSERT INTO users ("+userColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)",
		user.ID, user.Name, user.Username, user.Email, nullString(user.PasswordHash), user.Provider, nullString(user.ProviderID),
		user.AvatarURL, user.Role, user.EmailVerified, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return nil, wrapWriteErr("inserting user", err)
	}
	return user, nil
}

// LinkProvider attaches an external identity to an existing account.
func (s *userStore) LinkProvider(ctx context.Context, userID, provider, providerID, avatarURL string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users
		SET provider = $1, provider_id = $2, avatar_url = COALESCE(NULLIF($3, ''), avatar_url), email_verified = TRUE, updated_at = $4
		WHERE id = $5`,
		provider, providerID, avatarURL, time.Now().UTC(), userID)
	if err != nil {
		return wrapWriteErr("linking provider", err)
	}
	return nil
}

// UpdatePassword replaces the stored hash. An empty hash removes password
// sign-in from the account.
func (s *userStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3",
		nullString(passwordHash), time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return nil
}
