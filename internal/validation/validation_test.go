package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizhub/internal/apperr"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=64"`
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,bcrypt_len,password"`
}

func newTestValidator() *Validator {
	v := New()
	v.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return v
}

func validRegister() registerRequest {
	return registerRequest{
		Name:     "Ada Lovelace",
		Username: "ada_l",
		Email:    "ada@example.com",
		Password: "Secr3t!pass",
	}
}

func TestRegisterRules(t *testing.T) {
	tests := []struct {
		name            string
		mutate          func(r *registerRequest)
		expectedDetails map[string]string
	}{
		{
			name:   "Valid",
			mutate: func(r *registerRequest) {},
		},
		{
			name:            "Missing name",
			mutate:          func(r *registerRequest) { r.Name = "" },
			expectedDetails: map[string]string{"name": ReasonRequired},
		},
		{
			name:            "Name too short",
			mutate:          func(r *registerRequest) { r.Name = "A" },
			expectedDetails: map[string]string{"name": ReasonTooShort},
		},
		{
			name:            "Username with dash",
			mutate:          func(r *registerRequest) { r.Username = "ada-l" },
			expectedDetails: map[string]string{"username": ReasonInvalidFormat},
		},
		{
			name:            "Bad email",
			mutate:          func(r *registerRequest) { r.Email = "not-an-email" },
			expectedDetails: map[string]string{"email": ReasonInvalidFormat},
		},
		{
			name:            "Short password",
			mutate:          func(r *registerRequest) { r.Password = "Ab1!" },
			expectedDetails: map[string]string{"password": ReasonTooShort},
		},
		{
			name:            "Password without digit",
			mutate:          func(r *registerRequest) { r.Password = "Secret!pass" },
			expectedDetails: map[string]string{"password": ReasonWeakPassword},
		},
		{
			name:            "Password over bcrypt limit",
			mutate:          func(r *registerRequest) { r.Password = "Aa1!" + string(make([]byte, 70)) },
			expectedDetails: map[string]string{"password": ReasonTooLong},
		},
		{
			name: "Several fields",
			mutate: func(r *registerRequest) {
				r.Name = ""
				r.Email = ""
			},
			expectedDetails: map[string]string{"name": ReasonRequired, "email": ReasonRequired},
		},
	}

	v := newTestValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegister()
			tt.mutate(&req)

			err := v.Struct(req)
			if tt.expectedDetails == nil {
				assert.NoError(t, err)
				return
			}

			appErr, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindValidation, appErr.Kind)
			assert.Equal(t, tt.expectedDetails, appErr.Details)
		})
	}
}

func TestStrongPassword(t *testing.T) {
	assert.True(t, StrongPassword("Passw0rd!"))
	assert.False(t, StrongPassword("password1!"))
	assert.False(t, StrongPassword("Password!"))
	assert.False(t, StrongPassword("Password1"))
}

func TestValidBirthDate(t *testing.T) {
	v := newTestValidator()

	assert.True(t, v.validBirthDate("1900-01-01"))
	assert.True(t, v.validBirthDate("2025-06-01"))
	assert.False(t, v.validBirthDate("2025-06-02"))
	assert.False(t, v.validBirthDate("1899-12-31"))
	assert.False(t, v.validBirthDate("1990-02-30"))
	assert.False(t, v.validBirthDate("01/02/1990"))
}
