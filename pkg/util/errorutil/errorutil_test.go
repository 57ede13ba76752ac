package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorKeepsDomainErrors(t *testing.T) {
	wrapped := fmt.Errorf("refresh: %w", NewExpiredToken(errors.New("exp")))

	de := ToDomainError(wrapped)
	require.NotNil(t, de)
	assert.Equal(t, CodeExpiredToken, de.Code)
	assert.Equal(t, http.StatusUnauthorized, de.HTTPStatus)
}

func TestToDomainErrorHidesUnknownErrors(t *testing.T) {
	de := ToDomainError(errors.New("pq: relation does not exist"))

	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, "internal server error", de.Message)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
}

func TestStatusTaxonomy(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		CodeInvalidCredentials:  {NewInvalidCredentials(), http.StatusUnauthorized},
		CodeMissingToken:        {NewMissingToken("access token required"), http.StatusForbidden},
		CodeInvalidToken:        {NewInvalidToken(nil), http.StatusUnauthorized},
		CodeRevokedRefreshToken: {NewRevokedRefreshToken(nil), http.StatusUnauthorized},
		CodeUnauthenticated:     {NewUnauthenticated(), http.StatusUnauthorized},
		CodeForbidden:           {NewForbidden("insufficient role"), http.StatusForbidden},
		CodeStoreUnavailable:    {NewStoreUnavailable(errors.New("dial tcp")), http.StatusServiceUnavailable},
		CodeValidationFailed:    {NewValidationError("invalid payload", nil), http.StatusBadRequest},
	}

	for code, tc := range cases {
		t.Run(code, func(t *testing.T) {
			assert.True(t, HasCode(tc.err, code))
			assert.Equal(t, tc.status, ToDomainError(tc.err).HTTPStatus)
		})
	}
}

func TestHasCodeOnPlainError(t *testing.T) {
	assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	assert.False(t, HasCode(nil, CodeInternal))
}
