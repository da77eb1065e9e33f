package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name           string
		err            *Error
		expectedStatus int
	}{
		{"Validation", Validation(map[string]string{"email": "required"}), http.StatusBadRequest},
		{"Bad request", BadRequest(CodeInvalidRequest, "bad body"), http.StatusBadRequest},
		{"Business", Business(CodeEmailTaken, "email already registered"), http.StatusBadRequest},
		{"Unauthenticated", Unauthenticated(CodeInvalidCredentials, "invalid email or password"), http.StatusUnauthorized},
		{"Forbidden", Forbidden("admin only"), http.StatusForbidden},
		{"Not found", NotFound("quiz not found"), http.StatusNotFound},
		{"Internal", &Error{Code: CodeInternal}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedStatus, tt.err.HTTPStatus())
		})
	}
}

func TestAsThroughWrapping(t *testing.T) {
	base := Business(CodeUsernameTaken, "username already taken")
	err := fmt.Errorf("register: %w", base)

	got, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, CodeUsernameTaken, got.Code)
	assert.Equal(t, CodeUsernameTaken, CodeOf(err))

	_, ok = As(errors.New("boom"))
	assert.False(t, ok)
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestWrapKeepsOriginal(t *testing.T) {
	cause := errors.New("token is expired")
	base := Unauthenticated(CodeTokenExpired, "refresh token expired")

	wrapped := base.Wrap(cause)

	assert.ErrorIs(t, wrapped, cause)
	assert.Nil(t, base.Err)
	assert.Equal(t, "token_expired: token is expired", wrapped.Error())
}
