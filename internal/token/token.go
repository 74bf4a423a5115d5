package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dablu757/fast-auth-guard/internal/logger"
)

// Token kinds. An access token must never be accepted where a refresh
// token is required, and vice versa.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

const signingMethod = "HS256"

// ErrInvalidToken is returned for every decode failure: bad signature,
// expired, malformed, or wrong kind. Callers must not be able to tell
// these apart from the error value alone.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the verified contents of a decoded token.
type Claims struct {
	Subject   string // account ID the token is bound to
	ExpiresAt time.Time
	Kind      string
}

// Pair is the only artifact handed to a caller after a successful
// authentication or refresh. Both tokens are opaque encoded strings.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// wireClaims is the JWT payload: {sub, exp, type}.
type wireClaims struct {
	jwt.RegisteredClaims
	Kind string `json:"type"`
}

// Service issues and verifies token pairs. It holds no state beyond
// the signing secret and the clock; every operation is pure and safe
// for concurrent use.
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewService builds a token service. An empty secret is a
// configuration error and must abort startup.
func NewService(secret string, accessTTL, refreshTTL time.Duration, now func() time.Time) (*Service, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret is required")
	}
	if accessTTL <= 0 {
		accessTTL = 60 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        now,
	}, nil
}

func (s *Service) sign(subject, kind string, ttl time.Duration) (string, error) {
	claims := wireClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(s.now().Add(ttl)),
		},
		Kind: kind,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// IssuePair produces a fresh access/refresh pair bound to accountID.
func (s *Service) IssuePair(accountID string) (Pair, error) {
	access, err := s.sign(accountID, KindAccess, s.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.sign(accountID, KindRefresh, s.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Decode verifies signature, expiry, and kind. Any failure collapses
// to ErrInvalidToken; the specific reason is logged, never returned.
func (s *Service) Decode(raw string, expectedKind string) (Claims, error) {
	var parsed wireClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{signingMethod}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		logger.Warn("token parse failed", map[string]any{"error": err.Error()})
		return Claims{}, ErrInvalidToken
	}

	if parsed.Subject == "" || parsed.ExpiresAt == nil {
		logger.Warn("token missing required claims", nil)
		return Claims{}, ErrInvalidToken
	}

	exp := parsed.ExpiresAt.Time
	if !s.now().Before(exp) {
		logger.Warn("token expired", map[string]any{"expired_at": exp.Unix()})
		return Claims{}, ErrInvalidToken
	}

	if parsed.Kind != expectedKind {
		logger.Warn("token kind mismatch", map[string]any{
			"expected": expectedKind,
			"got":      parsed.Kind,
		})
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		Subject:   parsed.Subject,
		ExpiresAt: exp,
		Kind:      parsed.Kind,
	}, nil
}

// Refresh exchanges a valid refresh token for a brand-new pair bound
// to the same subject. The consumed token is not invalidated: tokens
// are stateless, so a refresh token stays usable until its natural
// expiry.
func (s *Service) Refresh(raw string) (Pair, error) {
	claims, err := s.Decode(raw, KindRefresh)
	if err != nil {
		return Pair{}, err
	}
	return s.IssuePair(claims.Subject)
}
