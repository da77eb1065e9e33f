package profile

import (
	"context"
	"quizhub/internal/apperr"
	"quizhub/internal/database"
	"quizhub/internal/model"
	"quizhub/internal/validation"
	"strings"
)

type Input struct {
	DisplayName string `json:"display_name" validate:"omitempty,min=2,max=50,display_name"`
	Bio         string `json:"bio" validate:"omitempty,max=500"`
	BirthDate   string `json:"birth_date" validate:"omitempty,birth_date"`
	Phone       string `json:"phone" validate:"omitempty,phone"`
	Country     string `json:"country" validate:"omitempty,iso3166_1_alpha2"`
	Website     string `json:"website" validate:"omitempty,http_url"`
}

func (in *Input) normalize() {
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.Bio = strings.TrimSpace(in.Bio)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Country = strings.ToUpper(strings.TrimSpace(in.Country))
	in.Website = strings.TrimSpace(in.Website)
}

type Service struct {
	users     database.UserStore
	profiles  database.ProfileStore
	validator *validation.Validator
}

func NewService(users database.UserStore, profiles database.ProfileStore, v *validation.Validator) *Service {
	return &Service{users: users, profiles: profiles, validator: v}
}

func (s *Service) GetMe(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	return user, nil
}

// GetProfile returns an empty profile for users that never saved one.
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return &model.UserProfile{UserID: userID}, nil
	}
	return p, nil
}

func (s *Service) Validate(in Input) error {
	in.normalize()
	return s.validator.Struct(in)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in Input) (*model.UserProfile, error) {
	in.normalize()
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	p := &model.UserProfile{
		UserID:      userID,
		DisplayName: in.DisplayName,
		Bio:         in.Bio,
		BirthDate:   in.BirthDate,
		Phone:       in.Phone,
		Country:     in.Country,
		Website:     in.Website,
	}
	if err := s.profiles.UpsertProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
