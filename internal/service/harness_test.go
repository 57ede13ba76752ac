package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/shop-auth/internal/auth"
	"github.com/spec-kit/shop-auth/internal/domain"
	"github.com/spec-kit/shop-auth/internal/events"
	"github.com/spec-kit/shop-auth/internal/repository"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordedEvents struct {
	mu    sync.Mutex
	types []events.EventType
}

func (r *recordedEvents) handler(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, e.Type)
	return nil
}

func (r *recordedEvents) count(t events.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.types {
		if got == t {
			n++
		}
	}
	return n
}

type harness struct {
	clock    *testClock
	users    *repository.MemoryUserRepository
	ledger   *repository.MemoryRefreshLedger
	codec    *auth.Codec
	verifier *UserCredentialVerifier
	events   *recordedEvents
	sessions *SessionService
	accounts *AccountService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:  &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		users:  repository.NewMemoryUserRepository(),
		ledger: repository.NewMemoryRefreshLedger(),
		events: &recordedEvents{},
	}

	codec, err := auth.NewCodec(auth.CodecConfig{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Now:           h.clock.Now,
	})
	require.NoError(t, err)
	h.codec = codec

	dispatcher := events.NewInMemoryDispatcher(nil)
	dispatcher.SubscribeAll(h.events.handler)

	h.verifier = NewUserCredentialVerifier(h.users, bcrypt.MinCost)
	h.sessions = h.newSessions(h.ledger, 0)
	h.accounts = NewAccountService(h.users, dispatcher, nil, bcrypt.MinCost)
	h.sessions.dispatcher = dispatcher
	return h
}

func (h *harness) newSessions(ledger repository.RefreshLedger, timeout time.Duration) *SessionService {
	return NewSessionService(SessionDependencies{
		Verifier:     h.verifier,
		Principals:   h.verifier,
		Ledger:       ledger,
		Tokens:       h.codec,
		StoreTimeout: timeout,
		Now:          h.clock.Now,
	})
}

func (h *harness) seedUser(t *testing.T, email, password string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       domain.UserStatusActive,
	}
	require.NoError(t, h.users.Create(context.Background(), user))
	return user
}
