package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/shop-auth/internal/auth"
	"github.com/spec-kit/shop-auth/internal/domain"
	"github.com/spec-kit/shop-auth/internal/events"
	"github.com/spec-kit/shop-auth/internal/repository"
	apperrors "github.com/spec-kit/shop-auth/pkg/util/errorutil"
)

const defaultStoreTimeout = 500 * time.Millisecond

// TokenIssuer mints and checks the tokens handed out by sessions.
type TokenIssuer interface {
	IssuePair(p domain.Principal) (domain.TokenPair, error)
	VerifyRefreshToken(token string) (string, error)
}

// SessionService runs the login, refresh and logout flows against the refresh ledger.
type SessionService struct {
	verifier     CredentialVerifier
	principals   PrincipalResolver
	ledger       repository.RefreshLedger
	tokens       TokenIssuer
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	storeTimeout time.Duration
	now          func() time.Time
}

// SessionDependencies wires the collaborators of SessionService.
type SessionDependencies struct {
	Verifier     CredentialVerifier
	Principals   PrincipalResolver
	Ledger       repository.RefreshLedger
	Tokens       TokenIssuer
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	StoreTimeout time.Duration
	Now          func() time.Time
}

// NewSessionService builds the service.
func NewSessionService(deps SessionDependencies) *SessionService {
	s := &SessionService{
		verifier:     deps.Verifier,
		principals:   deps.Principals,
		ledger:       deps.Ledger,
		tokens:       deps.Tokens,
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
		storeTimeout: deps.StoreTimeout,
		now:          deps.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.storeTimeout <= 0 {
		s.storeTimeout = defaultStoreTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Login verifies credentials and starts a new session. Any earlier refresh tokens
// of the principal stop working.
func (s *SessionService) Login(ctx context.Context, identifier, secret string) (*domain.Principal, domain.TokenPair, error) {
	vctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	principal, err := s.verifier.Verify(vctx, identifier, secret)
	timedOut := vctx.Err() != nil
	cancel()
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) || timedOut {
			s.publish(ctx, events.New(events.EventLoginFailed, "", nil))
			return nil, domain.TokenPair{}, apperrors.NewInvalidCredentials()
		}
		s.logger.Error("credential lookup failed", zap.Error(err))
		return nil, domain.TokenPair{}, apperrors.NewStoreUnavailable(err)
	}

	if err := s.storeCall(ctx, func(c context.Context) error {
		return s.ledger.DeleteAllFor(c, principal.ID)
	}); err != nil {
		return nil, domain.TokenPair{}, s.storeFailure("delete prior sessions", err, apperrors.NewInvalidCredentials())
	}

	pair, err := s.startSession(ctx, *principal)
	if err != nil {
		return nil, domain.TokenPair{}, err
	}

	s.publish(ctx, events.New(events.EventSessionStarted, principal.ID, nil))
	return principal, pair, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is consumed
// and only one concurrent caller presenting the same token succeeds.
func (s *SessionService) Refresh(ctx context.Context, token string) (*domain.Principal, domain.TokenPair, error) {
	if token == "" {
		return nil, domain.TokenPair{}, apperrors.NewMissingToken("refresh token required")
	}

	var entry *domain.RefreshLedgerEntry
	err := s.storeCall(ctx, func(c context.Context) error {
		var findErr error
		entry, findErr = s.ledger.FindByToken(c, token)
		return findErr
	})
	if err != nil {
		if errors.Is(err, repository.ErrLedgerEntryNotFound) {
			return s.rejectRefresh(ctx, "", apperrors.NewRevokedRefreshToken(nil))
		}
		return nil, domain.TokenPair{}, s.storeFailure("find refresh token", err, apperrors.NewRevokedRefreshToken(err))
	}

	principalID, err := s.tokens.VerifyRefreshToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			s.discard(ctx, token)
			return s.rejectRefresh(ctx, entry.OwnerID, apperrors.NewExpiredToken(err))
		}
		// invalid tokens leave the ledger untouched
		return s.rejectRefresh(ctx, entry.OwnerID, apperrors.NewInvalidToken(err))
	}
	if principalID != entry.OwnerID {
		return s.rejectRefresh(ctx, entry.OwnerID, apperrors.NewInvalidToken(nil))
	}

	var principal *domain.Principal
	err = s.storeCall(ctx, func(c context.Context) error {
		var resolveErr error
		principal, resolveErr = s.principals.Resolve(c, principalID)
		return resolveErr
	})
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			s.discard(ctx, token)
			return s.rejectRefresh(ctx, principalID, apperrors.NewRevokedRefreshToken(err))
		}
		return nil, domain.TokenPair{}, s.storeFailure("resolve principal", err, apperrors.NewRevokedRefreshToken(err))
	}

	var removed bool
	err = s.storeCall(ctx, func(c context.Context) error {
		var deleteErr error
		removed, deleteErr = s.ledger.DeleteByToken(c, token)
		return deleteErr
	})
	if err != nil {
		return nil, domain.TokenPair{}, s.storeFailure("consume refresh token", err, apperrors.NewRevokedRefreshToken(err))
	}
	if !removed {
		// another request rotated this token first
		return s.rejectRefresh(ctx, principalID, apperrors.NewRevokedRefreshToken(nil))
	}

	pair, err := s.startSession(ctx, *principal)
	if err != nil {
		return nil, domain.TokenPair{}, err
	}

	s.publish(ctx, events.New(events.EventSessionRefreshed, principal.ID, nil))
	return principal, pair, nil
}

// Logout drops the refresh token from the ledger. It never fails: unknown, invalid
// or empty tokens are ignored and store errors are only logged.
func (s *SessionService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	var removed bool
	err := s.storeCall(ctx, func(c context.Context) error {
		var deleteErr error
		removed, deleteErr = s.ledger.DeleteByToken(c, token)
		return deleteErr
	})
	if err != nil {
		s.logger.Warn("logout could not reach refresh ledger", zap.Error(err))
		return
	}
	if removed {
		s.publish(ctx, events.New(events.EventSessionEnded, "", nil))
	}
}

// RevokeAllFor ends every session of the principal.
func (s *SessionService) RevokeAllFor(ctx context.Context, principalID string, actor *domain.Principal) error {
	if principalID == "" {
		return apperrors.NewValidationError("principal id is required", nil)
	}
	if err := s.storeCall(ctx, func(c context.Context) error {
		return s.ledger.DeleteAllFor(c, principalID)
	}); err != nil {
		s.logger.Error("revoke sessions failed", zap.String("principal_id", principalID), zap.Error(err))
		return apperrors.NewStoreUnavailable(err)
	}

	payload := events.SessionsRevokedPayload{}
	if actor != nil {
		payload.RevokedBy = actor.ID
	}
	s.publish(ctx, events.New(events.EventSessionsRevoked, principalID, payload))
	return nil
}

// startSession mints a pair and records its refresh half.
func (s *SessionService) startSession(ctx context.Context, principal domain.Principal) (domain.TokenPair, error) {
	pair, err := s.tokens.IssuePair(principal)
	if err != nil {
		return domain.TokenPair{}, apperrors.NewInternalError(err)
	}

	entry := domain.RefreshLedgerEntry{
		Token:     pair.RefreshToken,
		OwnerID:   principal.ID,
		CreatedAt: s.now().UTC(),
		ExpiresAt: pair.RefreshExpiresAt,
	}
	if err := s.storeCall(ctx, func(c context.Context) error {
		return s.ledger.Insert(c, entry)
	}); err != nil {
		if errors.Is(err, repository.ErrDuplicateToken) {
			return domain.TokenPair{}, apperrors.NewInternalError(err)
		}
		return domain.TokenPair{}, apperrors.NewStoreUnavailable(err)
	}
	return pair, nil
}

// storeCall bounds a ledger or account-store call by the store timeout. A call that
// outlives its deadline reports context.DeadlineExceeded whatever the driver returned.
func (s *SessionService) storeCall(ctx context.Context, fn func(context.Context) error) error {
	c, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	err := fn(c)
	if err != nil && c.Err() != nil && !errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(c.Err(), err)
	}
	return err
}

// storeFailure picks the response for a failed store call: timeouts fail closed with
// the given auth error, anything else is reported as unavailable.
func (s *SessionService) storeFailure(op string, err error, onTimeout error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.Warn("store call timed out", zap.String("op", op), zap.Error(err))
		return onTimeout
	}
	s.logger.Error("store call failed", zap.String("op", op), zap.Error(err))
	return apperrors.NewStoreUnavailable(err)
}

func (s *SessionService) discard(ctx context.Context, token string) {
	if err := s.storeCall(ctx, func(c context.Context) error {
		_, deleteErr := s.ledger.DeleteByToken(c, token)
		return deleteErr
	}); err != nil {
		s.logger.Warn("discard refresh token failed", zap.Error(err))
	}
}

func (s *SessionService) rejectRefresh(ctx context.Context, principalID string, err error) (*domain.Principal, domain.TokenPair, error) {
	reason := apperrors.ToDomainError(err).Code
	s.logger.Info("refresh rejected", zap.String("reason", reason), zap.String("principal_id", principalID))
	s.publish(ctx, events.New(events.EventRefreshRejected, principalID, events.RefreshRejectedPayload{Reason: reason}))
	return nil, domain.TokenPair{}, err
}

func (s *SessionService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
