package dto

import (
	"errors"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/spec-kit/shop-auth/internal/domain"
)

var (
	hasUpper = regexp.MustCompile(`[A-Z]`)
	hasLower = regexp.MustCompile(`[a-z]`)
	hasDigit = regexp.MustCompile(`[0-9]`)
)

// LoginRequest payload for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks presence only; format errors must not reveal whether an account exists.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(1, 254)),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 72)),
	)
}

// RegisterRequest payload for POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate enforces email format and password strength.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(2, 50)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password,
			validation.Required,
			validation.Length(6, 72),
			validation.By(passwordStrength),
		),
	)
}

func passwordStrength(value interface{}) error {
	s, _ := value.(string)
	if !hasUpper.MatchString(s) || !hasLower.MatchString(s) || !hasDigit.MatchString(s) {
		return errors.New("must contain an upper case letter, a lower case letter and a digit")
	}
	return nil
}

// RefreshRequest optional body for POST /api/auth/refresh-token. The cookie wins when both are sent.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// PrincipalResponse is the public view of an authenticated identity.
type PrincipalResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// NewPrincipalResponse maps a principal.
func NewPrincipalResponse(p *domain.Principal) PrincipalResponse {
	return PrincipalResponse{ID: p.ID, Email: p.Email, Role: p.Role.String()}
}

// SessionResponse is returned by login and refresh. Tokens travel only in cookies.
type SessionResponse struct {
	Principal        PrincipalResponse `json:"principal"`
	AccessExpiresAt  time.Time         `json:"access_expires_at"`
	RefreshExpiresAt time.Time         `json:"refresh_expires_at"`
}

// NewSessionResponse maps a principal and its freshly issued pair.
func NewSessionResponse(p *domain.Principal, pair domain.TokenPair) SessionResponse {
	return SessionResponse{
		Principal:        NewPrincipalResponse(p),
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse maps a stored user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
	}
}

// ValidationDetails flattens ozzo validation errors into a field map.
func ValidationDetails(err error) map[string]any {
	details := map[string]any{}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for field, fieldErr := range fieldErrs {
			details[field] = fieldErr.Error()
		}
	}
	return details
}
