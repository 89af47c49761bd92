// Package auth issues and parses the HS256 session tokens carried by form
// fillers and administrators.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/opengovsg/FormSG-sub011/internal/common"
	"github.com/opengovsg/FormSG-sub011/internal/server/models"
)

// Session is the identity carried by a token. For fillers Subject is the
// identity asserted by the provider named in AuthType; for administrators
// it is the admin user id.
type Session struct {
	Subject   string
	AuthType  models.AuthType
	UserInfo  string
	Admin     bool
	ExpiresAt time.Time
	// Prefill are the values the identity provider returned at login. They
	// are signed into the token and never taken from the filler.
	Prefill []models.PrefilledField
}

// RemainingLifetime is the time left before the session expires, zero once
// it has.
func (s *Session) RemainingLifetime(now time.Time) time.Duration {
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Claims extends the registered claims with the session attributes.
type Claims struct {
	jwt.RegisteredClaims
	AuthType models.AuthType         `json:"authType,omitempty"`
	UserInfo string                  `json:"userInfo,omitempty"`
	Admin    bool                    `json:"admin,omitempty"`
	Prefill  []models.PrefilledField `json:"prefill,omitempty"`
}

func GenerateToken(s Session, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		AuthType: s.AuthType,
		UserInfo: s.UserInfo,
		Admin:    s.Admin,
		Prefill:  s.Prefill,
	})

	return token.SignedString(secretKey)
}

// ParseToken validates tokenString and returns its session. Expired tokens
// yield common.ErrTokenExpired, any other failure common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Session, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return &Session{
		Subject:   claims.Subject,
		AuthType:  claims.AuthType,
		UserInfo:  claims.UserInfo,
		Admin:     claims.Admin,
		ExpiresAt: claims.ExpiresAt.Time,
		Prefill:   claims.Prefill,
	}, nil
}

type sessionKey struct{}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session attached by WithSession, if any.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}
