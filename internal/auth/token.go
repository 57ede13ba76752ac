package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/shop-auth/internal/domain"
)

var (
	// ErrInvalidToken covers malformed tokens, bad signatures and unexpected claims.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned for well-signed tokens past their expiry.
	ErrExpiredToken = errors.New("token expired")
)

// TokenManager signs and validates HS256 JWTs with a single secret.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration, now func() time.Time) *TokenManager {
	if now == nil {
		now = time.Now
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: now}
}

// TTL returns the configured token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

func (tm *TokenManager) registeredClaims(subject string) (jwt.RegisteredClaims, time.Time) {
	issuedAt := jwt.NewNumericDate(tm.now())
	expiresAt := jwt.NewNumericDate(issuedAt.Add(tm.ttl))
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, expiresAt.Time
}

func (tm *TokenManager) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

func (tm *TokenManager) parse(tokenStr string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: %v", ErrExpiredToken, err)
		}
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}

// AccessClaims is the payload of an access token. The subject is the principal id.
type AccessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. It only identifies the principal.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// CodecConfig carries the two independent secrets and lifetimes.
type CodecConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Now           func() time.Time
}

// Codec issues and verifies access and refresh tokens. It never touches storage.
type Codec struct {
	access  *TokenManager
	refresh *TokenManager
}

// NewCodec validates the secrets and builds a codec.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Codec{
		access:  NewTokenManager(cfg.AccessSecret, cfg.AccessTTL, cfg.Now),
		refresh: NewTokenManager(cfg.RefreshSecret, cfg.RefreshTTL, cfg.Now),
	}, nil
}

// AccessTTL returns the access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.access.TTL() }

// RefreshTTL returns the refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refresh.TTL() }

// IssueAccessToken signs the principal's public fields with the access secret.
func (c *Codec) IssueAccessToken(p domain.Principal) (string, time.Time, error) {
	registered, expiresAt := c.access.registeredClaims(p.ID)
	token, err := c.access.sign(&AccessClaims{
		Email:            p.Email,
		Role:             p.Role.String(),
		RegisteredClaims: registered,
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// IssueRefreshToken signs the principal id with the refresh secret.
func (c *Codec) IssueRefreshToken(principalID string) (string, time.Time, error) {
	registered, expiresAt := c.refresh.registeredClaims(principalID)
	token, err := c.refresh.sign(&RefreshClaims{RegisteredClaims: registered})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// IssuePair mints a fresh access and refresh token for the principal.
func (c *Codec) IssuePair(p domain.Principal) (domain.TokenPair, error) {
	access, accessExp, err := c.IssueAccessToken(p)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshExp, err := c.IssueRefreshToken(p.ID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return domain.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyAccessToken returns the principal asserted by a valid access token.
func (c *Codec) VerifyAccessToken(tokenStr string) (*domain.Principal, error) {
	claims := &AccessClaims{}
	if err := c.access.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &domain.Principal{ID: claims.Subject, Email: claims.Email, Role: role}, nil
}

// VerifyRefreshToken returns the principal id referenced by a valid refresh token.
func (c *Codec) VerifyRefreshToken(tokenStr string) (string, error) {
	claims := &RefreshClaims{}
	if err := c.refresh.parse(tokenStr, claims); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
