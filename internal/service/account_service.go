package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/shop-auth/internal/auth"
	"github.com/spec-kit/shop-auth/internal/domain"
	"github.com/spec-kit/shop-auth/internal/events"
	"github.com/spec-kit/shop-auth/internal/repository"
	apperrors "github.com/spec-kit/shop-auth/pkg/util/errorutil"
)

// AccountService handles self-service registration.
type AccountService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// NewAccountService builds the service.
func NewAccountService(users repository.UserRepository, dispatcher events.Dispatcher, logger *zap.Logger, bcryptCost int) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{users: users, dispatcher: dispatcher, logger: logger, bcryptCost: bcryptCost}
}

// Register creates an account with the default role. It does not start a session.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		s.logger.Error("create user failed", zap.Error(err))
		return nil, apperrors.NewStoreUnavailable(err)
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.New(events.EventUserRegistered, user.ID, events.UserRegisteredPayload{
			Email: user.Email,
			Name:  user.Name,
		}))
	}
	return user, nil
}
