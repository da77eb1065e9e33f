package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"quizhub/internal/model"
	"time"
)

type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	UpsertProfile(ctx context.Context, p *model.UserProfile) error
}

type profileStore struct {
	db *sql.DB
}

func NewProfileStore(db *sql.DB) ProfileStore {
	return &profileStore{db: db}
}

func (s *profileStore) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	p := &model.UserProfile{}
	err := s.db.QueryRowContext(ctx, `SELECT user_id, display_name, bio, birth_date, phone, country, website, updated_at
		FROM user_profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.DisplayName, &p.Bio, &p.BirthDate, &p.Phone, &p.Country, &p.Website, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("selecting profile: %w", err)
	}
	return p, nil
}

func (s *profileStore) UpsertProfile(ctx context.Context, p *model.UserProfile) error {
	p.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `INSERT INTO user_profiles (user_id, display_name, bio, birth_date, phone, country, website, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			bio = EXCLUDED.bio,
			birth_date = EXCLUDED.birth_date,
			phone = EXCLUDED.phone,
			country = EXCLUDED.country,
			website = EXCLUDED.website,
			updated_at = EXCLUDED.updated_at`,
		p.UserID, p.DisplayName, p.Bio, p.BirthDate, p.Phone, p.Country, p.Website, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}
