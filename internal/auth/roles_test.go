package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shop-auth/internal/domain"
	apperrors "github.com/spec-kit/shop-auth/pkg/util/errorutil"
)

func TestAuthorize(t *testing.T) {
	admin := &domain.Principal{ID: "a", Role: domain.RoleAdmin}
	editor := &domain.Principal{ID: "e", Role: domain.RoleEditor}
	user := &domain.Principal{ID: "u", Role: domain.RoleUser}

	assert.NoError(t, Authorize(admin, domain.RoleEditor))
	assert.NoError(t, Authorize(admin))
	assert.NoError(t, Authorize(editor, domain.RoleEditor))
	assert.NoError(t, Authorize(user, domain.RoleEditor, domain.RoleUser))

	err := Authorize(user, domain.RoleEditor)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	err = Authorize(nil, domain.RoleEditor)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthenticated))

	err = Authorize(&domain.Principal{ID: "x", Role: domain.Role("Admin")}, domain.RoleUser)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestRequireRoleAfterGate(t *testing.T) {
	codec := newTestCodec(t, newTestClock())
	app := newGateApp(t, codec, RequireRole(domain.RoleEditor))

	tokenFor := func(role domain.Role) string {
		token, _, err := codec.IssueAccessToken(domain.Principal{ID: "p-" + role.String(), Role: role})
		require.NoError(t, err)
		return token
	}

	status, _ := doGet(t, app, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tokenFor(domain.RoleAdmin))
	})
	assert.Equal(t, http.StatusOK, status)

	status, _ = doGet(t, app, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tokenFor(domain.RoleEditor))
	})
	assert.Equal(t, http.StatusOK, status)

	status, body := doGet(t, app, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tokenFor(domain.RoleUser))
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, apperrors.CodeForbidden, errorCode(body))
}
