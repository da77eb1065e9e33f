package auth

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

const ProviderGoogle = "google"

// IDTokenVerifier turns a provider-issued ID token into an identity.
type IDTokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*ProviderIdentity, error)
}

type GoogleVerifier struct {
	clientID string
	validate func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, validate: idtoken.Validate}
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*ProviderIdentity, error) {
	payload, err := v.validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if verified, _ := payload.Claims["email_verified"].(bool); !verified {
		return nil, fmt.Errorf("%w: email not verified", ErrInvalidToken)
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	return &ProviderIdentity{
		Provider:   ProviderGoogle,
		ProviderID: payload.Subject,
		Email:      email,
		Name:       name,
		AvatarURL:  picture,
	}, nil
}
