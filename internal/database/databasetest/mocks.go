// Package databasetest provides testify mocks for the database stores.
package databasetest

import (
	"context"
	"quizhub/internal/model"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockUserStore struct {
	mock.Mock
}

func userResult(args mock.Arguments) (*model.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserStore) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return userResult(m.Called(ctx, email))
}

func (m *MockUserStore) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return userResult(m.Called(ctx, username))
}

func (m *MockUserStore) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	return userResult(m.Called(ctx, id))
}

func (m *MockUserStore) FindUserByProvider(ctx context.Context, provider, providerID string) (*model.User, error) {
	return userResult(m.Called(ctx, provider, providerID))
}

func (m *MockUserStore) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	return userResult(m.Called(ctx, user))
}

func (m *MockUserStore) LinkProvider(ctx context.Context, userID, provider, providerID, avatarURL string) error {
	args := m.Called(ctx, userID, provider, providerID, avatarURL)
	return args.Error(0)
}

func (m *MockUserStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

type MockRefreshTokenStore struct {
	mock.Mock
}

func (m *MockRefreshTokenStore) CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockRefreshTokenStore) FindRefreshTokenByHash(ctx context.Context, hash string) (*model.RefreshToken, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenStore) RotateRefreshToken(ctx context.Context, id, replacedBy string) (bool, error) {
	args := m.Called(ctx, id, replacedBy)
	return args.Bool(0), args.Error(1)
}

func (m *MockRefreshTokenStore) RevokeRefreshToken(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRefreshTokenStore) RevokeUserRefreshTokens(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRefreshTokenStore) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockProfileStore) UpsertProfile(ctx context.Context, p *model.UserProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type MockQuizStore struct {
	mock.Mock
}

func (m *MockQuizStore) ListQuizzes(ctx context.Context, limit, offset int) ([]model.Quiz, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Quiz), args.Error(1)
}

func (m *MockQuizStore) GetQuiz(ctx context.Context, id string) (*model.Quiz, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Quiz), args.Error(1)
}

func (m *MockQuizStore) CreateQuiz(ctx context.Context, quiz *model.Quiz) (*model.Quiz, error) {
	args := m.Called(ctx, quiz)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Quiz), args.Error(1)
}

func (m *MockQuizStore) CreateSubmission(ctx context.Context, s *model.Submission) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockQuizStore) ListSubmissionsByUser(ctx context.Context, userID string) ([]model.Submission, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Submission), args.Error(1)
}
