// Package session issues and reads signed session cookies and tracks
// sessions ended by logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/okian/outbreak/internal/domain/types"
	"github.com/okian/outbreak/pkg/logger"
)

const (
	issuer            = "outbreak"
	defaultTTL        = 12 * time.Hour
	DefaultCookieName = "outbreak_session"
)

// Claims is the payload of a session token. The registered ID is the
// session id used for revocation.
type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// User returns the identity carried by c.
func (c *Claims) User() types.User {
	return types.User{ID: c.UID, Email: c.Email, Name: c.Name}
}

// Manager signs session tokens with HS256 and stores them in an HttpOnly cookie.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	cookie  string
	secure  bool
	revoker Revoker
	now     func() time.Time
	log     logger.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithCookieName sets the session cookie name.
func WithCookieName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.cookie = name
		}
	}
}

// WithSecureCookies marks cookies Secure.
func WithSecureCookies(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

// WithRevoker sets the revocation store. The default is an in-memory store.
func WithRevoker(r Revoker) Option {
	return func(m *Manager) {
		if r != nil {
			m.revoker = r
		}
	}
}

// WithNow replaces time.Now for issuing and validating tokens.
func WithNow(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// NewManager returns a session manager keyed by secret.
func NewManager(secret []byte, opts ...Option) (*Manager, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	m := &Manager{
		secret: append([]byte(nil), secret...),
		ttl:    defaultTTL,
		cookie: DefaultCookieName,
		now:    time.Now,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.revoker == nil {
		m.revoker = NewMemoryRevoker()
	}
	return m, nil
}

// Sign returns a token for u with a fresh session id.
func (m *Manager) Sign(u types.User) (string, *Claims, error) {
	if u.Anonymous() {
		return "", nil, ErrAnonymous
	}
	now := m.now()
	claims := &Claims{
		UID:   u.ID,
		Email: u.Email,
		Name:  u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}
	return token, claims, nil
}

// Parse validates raw and returns its claims. Revocation is not checked.
func (m *Manager) Parse(raw string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UID == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Issue signs a session for u and sets the cookie.
func (m *Manager) Issue(w http.ResponseWriter, u types.User) (*Claims, error) {
	token, claims, err := m.Sign(u)
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    token,
		Path:     "/",
		Expires:  claims.ExpiresAt.Time,
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return claims, nil
}

// Current returns the live session carried by r.
func (m *Manager) Current(r *http.Request) (*Claims, error) {
	c, err := r.Cookie(m.cookie)
	if err != nil || c.Value == "" {
		return nil, ErrNoSession
	}
	claims, err := m.Parse(c.Value)
	if err != nil {
		return nil, err
	}
	revoked, err := m.revoker.Revoked(r.Context(), claims.ID)
	if err != nil {
		// Fail closed when the revocation store cannot answer.
		m.log.Error(r.Context(), "revocation lookup failed", logger.String("sid", claims.ID), logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if revoked {
		return nil, ErrRevoked
	}
	return claims, nil
}

// End revokes the session and clears the cookie.
func (m *Manager) End(ctx context.Context, w http.ResponseWriter, claims *Claims) error {
	m.Clear(w)
	if claims == nil {
		return nil
	}
	until := m.now().Add(m.ttl)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	return m.revoker.Revoke(ctx, claims.ID, until)
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type userKey struct{}

// WithUser returns ctx carrying u.
func WithUser(ctx context.Context, u types.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom returns the user stored by WithUser.
func UserFrom(ctx context.Context) (types.User, bool) {
	u, ok := ctx.Value(userKey{}).(types.User)
	return u, ok && !u.Anonymous()
}

// IsAuthError reports whether err means the caller has no usable session.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNoSession) || errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrRevoked)
}
