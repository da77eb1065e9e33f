package auth

import (
	"context"
	"errors"
	"fmt"
	"quizhub/internal/apperr"
	"quizhub/internal/database"
	"quizhub/internal/mail"
	"quizhub/internal/model"
	"quizhub/internal/validation"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const welcomeMailTimeout = 10 * time.Second

var (
	errInvalidCredentials = apperr.Unauthenticated(apperr.CodeInvalidCredentials, "invalid email or password")
	errInvalidToken       = apperr.Unauthenticated(apperr.CodeInvalidToken, "refresh token is invalid")
	errTokenExpired       = apperr.Unauthenticated(apperr.CodeTokenExpired, "refresh token has expired")
	errTokenRevoked       = apperr.Unauthenticated(apperr.CodeTokenRevoked, "refresh token has been revoked")
	errEmailTaken         = apperr.Business(apperr.CodeEmailTaken, "email is already registered")
	errUsernameTaken      = apperr.Business(apperr.CodeUsernameTaken, "username is already taken")
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type RegisterInput struct {
	Name      string `json:"name" validate:"required,min=2,max=64"`
	Username  string `json:"username" validate:"required,username"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,bcrypt_len,password"`
	UserAgent string `json:"-"`
}

type LoginInput struct {
	Email     string `json:"email" validate:"required"`
	Password  string `json:"password" validate:"required"`
	UserAgent string `json:"-"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,bcrypt_len,password"`
}

// ProviderIdentity is an account as reported by an external identity provider.
type ProviderIdentity struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
	NickName   string
	AvatarURL  string
	UserAgent  string
}

type Service struct {
	users     database.UserStore
	tokens    database.RefreshTokenStore
	issuer    *TokenIssuer
	hasher    *PasswordHasher
	validator *validation.Validator
	notifier  mail.Notifier
	logger    *zap.Logger
	now       func() time.Time

	wg sync.WaitGroup
}

func NewService(users database.UserStore, tokens database.RefreshTokenStore, issuer *TokenIssuer, hasher *PasswordHasher,
	v *validation.Validator, notifier mail.Notifier, logger *zap.Logger) *Service {
	return &Service{
		users:     users,
		tokens:    tokens,
		issuer:    issuer,
		hasher:    hasher,
		validator: v,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Issuer exposes the token issuer for the access-token middleware.
func (s *Service) Issuer() *TokenIssuer {
	return s.issuer
}

// Wait blocks until background mail deliveries have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*TokenPair, *model.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)

	if err := s.validator.Struct(in); err != nil {
		return nil, nil, err
	}

	existing, err := s.users.FindUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, errEmailTaken
	}

	existing, err = s.users.FindUserByUsername(ctx, in.Username)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, errUsernameTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.users.CreateUser(ctx, &model.User{
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Provider:     model.ProviderLocal,
		Role:         model.RoleUser,
	})
	if err != nil {
		return nil, nil, duplicateToBusiness(err)
	}

	pair, err := s.issuePair(ctx, user, in.UserAgent)
	if err != nil {
		return nil, nil, err
	}

	s.sendWelcome(user)

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return pair, user, nil
}

func (s *Service) sendWelcome(user *model.User) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), welcomeMailTimeout)
		defer cancel()

		if err := s.notifier.SendWelcome(ctx, user); err != nil {
			s.logger.Warn("welcome email failed", zap.String("user_id", user.ID), zap.Error(err))
		}
	}()
}

func duplicateToBusiness(err error) error {
	var dup *database.DuplicateError
	if !errors.As(err, &dup) {
		return err
	}
	switch dup.Constraint {
	case database.EmailConstraint:
		return errEmailTaken
	case database.UsernameConstraint:
		return errUsernameTaken
	default:
		return err
	}
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*TokenPair, *model.User, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, nil, err
	}

	user, err := s.users.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, nil, err
	}

	// Unknown accounts, provider-only accounts and wrong passwords are
	// indistinguishable, in body and in timing.
	if user == nil || !user.HasPassword() {
		s.hasher.Equalize(in.Password)
		return nil, nil, errInvalidCredentials
	}
	if !s.hasher.Check(in.Password, user.PasswordHash) {
		return nil, nil, errInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user, in.UserAgent)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Refresh exchanges a refresh token for a new pair and revokes the presented
// token. Presenting an already revoked token revokes every session of its user.
func (s *Service) Refresh(ctx context.Context, refreshToken, userAgent string) (*TokenPair, error) {
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return nil, errTokenExpired.Wrap(err)
		}
		return nil, errInvalidToken.Wrap(err)
	}

	stored, err := s.tokens.FindRefreshTokenByHash(ctx, HashToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if stored == nil || stored.ID != claims.ID || stored.UserID != claims.Subject {
		return nil, errInvalidToken
	}

	if stored.Revoked() {
		return nil, s.revokeOnReuse(ctx, stored.UserID)
	}
	if stored.Expired(s.now()) {
		return nil, errTokenExpired
	}

	user, err := s.users.FindUserByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errInvalidToken
	}

	access, next, err := s.issueTokens(ctx, user, userAgent)
	if err != nil {
		return nil, err
	}

	rotated, err := s.tokens.RotateRefreshToken(ctx, stored.ID, next.ID)
	if err != nil {
		return nil, err
	}
	if !rotated {
		// Lost a race with another refresh of the same token.
		return nil, s.revokeOnReuse(ctx, stored.UserID)
	}

	return s.pair(access, next.Token), nil
}

func (s *Service) revokeOnReuse(ctx context.Context, userID string) error {
	n, err := s.tokens.RevokeUserRefreshTokens(ctx, userID)
	if err != nil {
		return err
	}
	s.logger.Warn("refresh token reuse detected", zap.String("user_id", userID), zap.Int64("revoked", n))
	return errTokenRevoked
}

// Logout revokes the presented refresh token. Unknown, malformed and already
// revoked tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if _, err := s.issuer.ParseRefresh(refreshToken); err != nil {
		return nil
	}

	stored, err := s.tokens.FindRefreshTokenByHash(ctx, HashToken(refreshToken))
	if err != nil {
		return err
	}
	if stored == nil || stored.Revoked() {
		return nil
	}

	return s.tokens.RevokeRefreshToken(ctx, stored.ID)
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	n, err := s.tokens.RevokeUserRefreshTokens(ctx, userID)
	if err != nil {
		return err
	}
	s.logger.Info("revoked all sessions", zap.String("user_id", userID), zap.Int64("revoked", n))
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	if err := s.validator.Struct(in); err != nil {
		return err
	}

	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.Unauthenticated(apperr.CodeUnauthorized, "account no longer exists")
	}
	if !user.HasPassword() {
		return apperr.Business(apperr.CodeNoPassword, "account has no password, sign in with your provider")
	}
	if !s.hasher.Check(in.CurrentPassword, user.PasswordHash) {
		return errInvalidCredentials
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	_, err = s.tokens.RevokeUserRefreshTokens(ctx, user.ID)
	return err
}

// LoginWithProvider signs in an external identity. The account is matched by
// provider id first, then linked by e-mail, and created otherwise.
func (s *Service) LoginWithProvider(ctx context.Context, id ProviderIdentity) (*TokenPair, *model.User, error) {
	if id.ProviderID == "" {
		return nil, nil, apperr.Business(apperr.CodeProviderError, "provider returned no account id")
	}

	user, err := s.users.FindUserByProvider(ctx, id.Provider, id.ProviderID)
	if err != nil {
		return nil, nil, err
	}

	if user == nil {
		email := strings.ToLower(strings.TrimSpace(id.Email))
		if email == "" {
			return nil, nil, apperr.Business(apperr.CodeProviderError, "provider returned no email address")
		}

		user, err = s.users.FindUserByEmail(ctx, email)
		if err != nil {
			return nil, nil, err
		}

		if user != nil {
			if err := s.users.LinkProvider(ctx, user.ID, id.Provider, id.ProviderID, id.AvatarURL); err != nil {
				return nil, nil, err
			}
			// Nobody proved ownership of the address before the provider did, so
			// a password set on the unverified account must not survive the link.
			if !user.EmailVerified && user.HasPassword() {
				if err := s.dropUnverifiedPassword(ctx, user); err != nil {
					return nil, nil, err
				}
			}
			user.Provider = id.Provider
			user.ProviderID = id.ProviderID
			user.EmailVerified = true
			if id.AvatarURL != "" {
				user.AvatarURL = id.AvatarURL
			}
			s.logger.Info("linked provider", zap.String("user_id", user.ID), zap.String("provider", id.Provider))
		} else {
			user, err = s.createProviderUser(ctx, id, email)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	pair, err := s.issuePair(ctx, user, id.UserAgent)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *Service) dropUnverifiedPassword(ctx context.Context, user *model.User) error {
	if err := s.users.UpdatePassword(ctx, user.ID, ""); err != nil {
		return err
	}
	revoked, err := s.tokens.RevokeUserRefreshTokens(ctx, user.ID)
	if err != nil {
		return err
	}
	user.PasswordHash = ""
	s.logger.Warn("cleared password of unverified account on provider link",
		zap.String("user_id", user.ID), zap.Int64("revoked_sessions", revoked))
	return nil
}

const maxUsernameAttempts = 5

func (s *Service) createProviderUser(ctx context.Context, id ProviderIdentity, email string) (*model.User, error) {
	base := usernameFromEmail(email)
	name := firstNonEmpty(id.Name, id.NickName, base)

	username := base
	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		if attempt > 0 {
			username = withSuffix(base)
		}

		existing, err := s.users.FindUserByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}

		user, err := s.users.CreateUser(ctx, &model.User{
			Name:          name,
			Username:      username,
			Email:         email,
			Provider:      id.Provider,
			ProviderID:    id.ProviderID,
			AvatarURL:     id.AvatarURL,
			Role:          model.RoleUser,
			EmailVerified: true,
		})
		if err == nil {
			s.logger.Info("user created from provider", zap.String("user_id", user.ID), zap.String("provider", id.Provider))
			return user, nil
		}

		var dup *database.DuplicateError
		if errors.As(err, &dup) && dup.Constraint == database.UsernameConstraint {
			continue
		}
		return nil, duplicateToBusiness(err)
	}

	return nil, fmt.Errorf("no free username for %q after %d attempts", base, maxUsernameAttempts)
}

var usernameInvalidChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	name := usernameInvalidChars.ReplaceAllString(local, "_")
	if len(name) > 25 {
		name = name[:25]
	}
	for len(name) < 3 {
		name += "_"
	}
	return name
}

func withSuffix(base string) string {
	return base + "_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func (s *Service) issuePair(ctx context.Context, user *model.User, userAgent string) (*TokenPair, error) {
	access, refresh, err := s.issueTokens(ctx, user, userAgent)
	if err != nil {
		return nil, err
	}
	return s.pair(access, refresh.Token), nil
}

// issueTokens signs a new access token and a new stored refresh token.
func (s *Service) issueTokens(ctx context.Context, user *model.User, userAgent string) (string, *IssuedRefreshToken, error) {
	access, err := s.issuer.IssueAccess(user)
	if err != nil {
		return "", nil, err
	}

	refresh, err := s.issuer.IssueRefresh(user.ID)
	if err != nil {
		return "", nil, err
	}

	err = s.tokens.CreateRefreshToken(ctx, &model.RefreshToken{
		ID:        refresh.ID,
		UserID:    user.ID,
		TokenHash: HashToken(refresh.Token),
		UserAgent: truncate(userAgent, 255),
		ExpiresAt: refresh.ExpiresAt,
	})
	if err != nil {
		return "", nil, err
	}

	return access, refresh, nil
}

func (s *Service) pair(access, refresh string) *TokenPair {
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.issuer.AccessTTL().Seconds()),
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
