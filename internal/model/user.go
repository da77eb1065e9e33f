package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	ProviderLocal = "local"
)

type User struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Username      string    `db:"username" json:"username"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	Provider      string    `db:"provider" json:"provider"`
	ProviderID    string    `db:"provider_id" json:"-"`
	AvatarURL     string    `db:"avatar_url" json:"avatar_url,omitempty"`
	Role          string    `db:"role" json:"role"`
	EmailVerified bool      `db:"email_verified" json:"email_verified"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

type RefreshToken struct {
	ID         string     `db:"id"`
	UserID     string     `db:"user_id"`
	TokenHash  string     `db:"token_hash"`
	UserAgent  string     `db:"user_agent"`
	ExpiresAt  time.Time  `db:"expires_at"`
	RevokedAt  *time.Time `db:"revoked_at"`
	ReplacedBy *string    `db:"replaced_by"`
	CreatedAt  time.Time  `db:"created_at"`
}

func (t *RefreshToken) Revoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

type UserProfile struct {
	UserID      string    `db:"user_id" json:"user_id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Bio         string    `db:"bio" json:"bio"`
	BirthDate   string    `db:"birth_date" json:"birth_date"`
	Phone       string    `db:"phone" json:"phone"`
	Country     string    `db:"country" json:"country"`
	Website     string    `db:"website" json:"website"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
