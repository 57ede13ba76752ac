package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/shop-auth/internal/auth"
	"github.com/spec-kit/shop-auth/internal/domain"
	"github.com/spec-kit/shop-auth/internal/repository"
)

var (
	// ErrInvalidCredentials covers unknown identifiers, wrong secrets and suspended accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPrincipalNotFound is returned when a refresh names an account that no longer exists.
	ErrPrincipalNotFound = errors.New("principal not found")
)

// CredentialVerifier maps an identifier and secret to a principal.
type CredentialVerifier interface {
	Verify(ctx context.Context, identifier, secret string) (*domain.Principal, error)
}

// PrincipalResolver loads the current principal for an id carried by a refresh token.
type PrincipalResolver interface {
	Resolve(ctx context.Context, id string) (*domain.Principal, error)
}

// UserCredentialVerifier checks bcrypt hashes stored in the user repository.
type UserCredentialVerifier struct {
	users repository.UserRepository
	cost  int
}

// NewUserCredentialVerifier builds a verifier over users.
func NewUserCredentialVerifier(users repository.UserRepository, bcryptCost int) *UserCredentialVerifier {
	return &UserCredentialVerifier{users: users, cost: auth.NormalizeCost(bcryptCost)}
}

// Verify returns ErrInvalidCredentials without distinguishing which half was wrong.
func (v *UserCredentialVerifier) Verify(ctx context.Context, identifier, secret string) (*domain.Principal, error) {
	user, err := v.users.GetByEmail(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			auth.CompareAgainstDummy(secret, v.cost)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, secret); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status != domain.UserStatusActive {
		return nil, ErrInvalidCredentials
	}
	p := user.Principal()
	return &p, nil
}

// Resolve returns the principal with its current email and role.
func (v *UserCredentialVerifier) Resolve(ctx context.Context, id string) (*domain.Principal, error) {
	user, err := v.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}
	if user.Status != domain.UserStatusActive {
		return nil, ErrPrincipalNotFound
	}
	p := user.Principal()
	return &p, nil
}
