package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vibelab/vibe-api/internal/domain"
)

// Validation failure causes. The HTTP layer collapses all of these into a
// uniform authentication failure; they stay distinguishable here so tests
// and logs can tell them apart.
var (
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired     = errors.New("token expired")
	ErrIssuerMismatch   = errors.New("token issuer mismatch")
	ErrKindMismatch     = errors.New("token kind mismatch")
	ErrTokenMalformed   = errors.New("token malformed")
)

// ErrExpiryOverflow is returned when expiry arithmetic leaves the
// representable time range. It indicates broken lifetime configuration.
var ErrExpiryOverflow = errors.New("token expiry overflows representable time")

// Claims is the decoded payload of a token. A Claims value is trusted only
// after it came out of Validate.
type Claims struct {
	Email string           `json:"email"`
	Role  domain.Role      `json:"role"`
	Kind  domain.TokenKind `json:"token_type"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *Claims) UserID() string {
	return c.Subject
}

// Config holds the signing material and lifetimes for a Manager. It is
// injected at construction and never mutated afterwards.
type Config struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now overrides the clock used by Validate. Defaults to time.Now.
	Now func() time.Time
}

// Manager issues and validates HS256-signed access and refresh tokens.
// All methods are pure CPU work, safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager creates a Manager after validating the configuration.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token: secret is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("token: issuer is required")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("token: access TTL must be positive")
	}
	if cfg.RefreshTTL <= 0 {
		return nil, errors.New("token: refresh TTL must be positive")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{config: cfg}, nil
}

// IssueAccess creates a signed access token for the user expiring at
// now + AccessTTL.
func (m *Manager) IssueAccess(userID, email string, role domain.Role, now time.Time) (string, error) {
	return m.issue(userID, email, role, domain.KindAccess, m.config.AccessTTL, now)
}

// IssueRefresh creates a signed refresh token for the user expiring at
// now + RefreshTTL.
func (m *Manager) IssueRefresh(userID, email string, role domain.Role, now time.Time) (string, error) {
	return m.issue(userID, email, role, domain.KindRefresh, m.config.RefreshTTL, now)
}

// IssuePair issues an access and refresh token together.
func (m *Manager) IssuePair(userID, email string, role domain.Role, now time.Time) (*domain.TokenPair, error) {
	accessToken, err := m.IssueAccess(userID, email, role, now)
	if err != nil {
		return nil, err
	}

	refreshToken, err := m.IssueRefresh(userID, email, role, now)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(m.config.AccessTTL.Seconds()),
	}, nil
}

func (m *Manager) issue(userID, email string, role domain.Role, kind domain.TokenKind, ttl time.Duration, now time.Time) (string, error) {
	exp := now.Add(ttl)
	if !exp.After(now) {
		// ttl is validated positive, so a non-increasing expiry means the
		// addition wrapped around.
		return "", ErrExpiryOverflow
	}

	claims := Claims{
		Email: email,
		Role:  role,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
	if err != nil {
		return "", fmt.Errorf("token: signing failed: %w", err)
	}
	return signed, nil
}

// Validate verifies the token and returns its claims. Checks run in a fixed
// order: signature, issuer, expiry, kind. A token is expired once the
// current time reaches exp; validity requires now < exp.
func (m *Manager) Validate(tokenString string, kind domain.TokenKind) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.config.Secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Expiry and issuer are checked explicitly below so the failure
		// causes stay distinguishable and ordered.
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, ErrSignatureInvalid
		default:
			return nil, ErrTokenMalformed
		}
	}
	if !parsed.Valid {
		return nil, ErrSignatureInvalid
	}

	if claims.Issuer != m.config.Issuer {
		return nil, ErrIssuerMismatch
	}

	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, ErrTokenMalformed
	}
	if !claims.ExpiresAt.Time.After(claims.IssuedAt.Time) {
		return nil, ErrTokenMalformed
	}
	if !m.config.Now().Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}

	if claims.Kind != kind {
		return nil, ErrKindMismatch
	}

	if !claims.Role.Valid() {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
