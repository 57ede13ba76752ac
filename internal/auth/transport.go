package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-auth/internal/domain"
)

// CookieOptions mirrors the cookie attributes the auth core cares about.
type CookieOptions struct {
	Path     string
	MaxAge   time.Duration
	HTTPOnly bool
	Secure   bool
	SameSite string
}

// Transport is the narrow view of the HTTP layer used by the auth core.
type Transport interface {
	SetCookie(name, value string, opts CookieOptions)
	ClearCookie(name string, opts CookieOptions)
	ReadCookie(name string) string
	ReadBearerHeader() string
}

// FiberTransport adapts a fiber request context to Transport.
type FiberTransport struct {
	c *fiber.Ctx
}

// NewFiberTransport wraps the request context.
func NewFiberTransport(c *fiber.Ctx) *FiberTransport {
	return &FiberTransport{c: c}
}

func (t *FiberTransport) SetCookie(name, value string, opts CookieOptions) {
	t.c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     opts.Path,
		MaxAge:   int(opts.MaxAge / time.Second),
		Expires:  time.Now().Add(opts.MaxAge),
		HTTPOnly: opts.HTTPOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

func (t *FiberTransport) ClearCookie(name string, opts CookieOptions) {
	t.c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     opts.Path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: opts.HTTPOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

func (t *FiberTransport) ReadCookie(name string) string {
	return t.c.Cookies(name)
}

func (t *FiberTransport) ReadBearerHeader() string {
	authHeader := t.c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// CookiePolicy decides where session cookies live and how long.
type CookiePolicy struct {
	AccessName  string
	RefreshName string
	RefreshPath string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	Secure      bool
}

func (p CookiePolicy) accessOptions() CookieOptions {
	return CookieOptions{
		Path:     "/",
		MaxAge:   p.AccessTTL,
		HTTPOnly: true,
		Secure:   p.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}

func (p CookiePolicy) refreshOptions() CookieOptions {
	return CookieOptions{
		Path:     p.RefreshPath,
		MaxAge:   p.RefreshTTL,
		HTTPOnly: true,
		Secure:   p.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}

// Place sets both session cookies. The refresh cookie is scoped to the refresh endpoint.
func (p CookiePolicy) Place(t Transport, pair domain.TokenPair) {
	t.SetCookie(p.AccessName, pair.AccessToken, p.accessOptions())
	t.SetCookie(p.RefreshName, pair.RefreshToken, p.refreshOptions())
}

// Clear removes both session cookies.
func (p CookiePolicy) Clear(t Transport) {
	t.ClearCookie(p.AccessName, p.accessOptions())
	t.ClearCookie(p.RefreshName, p.refreshOptions())
}

// AccessToken reads the access token, cookie first, then bearer header.
func (p CookiePolicy) AccessToken(t Transport) string {
	if token := t.ReadCookie(p.AccessName); token != "" {
		return token
	}
	return t.ReadBearerHeader()
}

// RefreshToken reads the refresh cookie, falling back to the given body value.
func (p CookiePolicy) RefreshToken(t Transport, bodyValue string) string {
	if token := t.ReadCookie(p.RefreshName); token != "" {
		return token
	}
	return strings.TrimSpace(bodyValue)
}
