package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shop-auth/internal/domain"
)

func TestLoginRequestValidate(t *testing.T) {
	assert.NoError(t, LoginRequest{Email: "ada@example.com", Password: "x"}.Validate())

	err := LoginRequest{}.Validate()
	require.Error(t, err)
	details := ValidationDetails(err)
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
}

func TestRegisterRequestValidate(t *testing.T) {
	cases := []struct {
		name    string
		req     RegisterRequest
		invalid string
	}{
		{name: "valid", req: RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "Passw0rd"}},
		{name: "name optional", req: RegisterRequest{Email: "ada@example.com", Password: "Passw0rd"}},
		{name: "bad email", req: RegisterRequest{Email: "ada", Password: "Passw0rd"}, invalid: "email"},
		{name: "short password", req: RegisterRequest{Email: "ada@example.com", Password: "Pa0"}, invalid: "password"},
		{name: "weak password", req: RegisterRequest{Email: "ada@example.com", Password: "password1"}, invalid: "password"},
		{name: "short name", req: RegisterRequest{Name: "A", Email: "ada@example.com", Password: "Passw0rd"}, invalid: "name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.invalid == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, ValidationDetails(err), tc.invalid)
		})
	}
}

func TestNewPrincipalResponse(t *testing.T) {
	resp := NewPrincipalResponse(&domain.Principal{ID: "u1", Email: "a@example.com", Role: domain.RoleEditor})
	assert.Equal(t, PrincipalResponse{ID: "u1", Email: "a@example.com", Role: "editor"}, resp)
}
