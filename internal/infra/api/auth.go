package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"ai-coach-chat/internal/infra/logging"
)

type userKey struct{}

// UserIDFrom returns the authenticated caller set by Authenticator.
func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userKey{}).(string)
	return id, ok && id != ""
}

// withUserID stores the caller; logs only see a redacted form outside dev.
func withUserID(ctx context.Context, id string, dev bool) context.Context {
	return logging.WithUserID(context.WithValue(ctx, userKey{}, id), logging.Redact(id, dev))
}

// Authenticator verifies HS256 access tokens whose subject is the user id.
// In dev mode a plain header naming the user is accepted instead.
type Authenticator struct {
	secret    []byte
	ttl       time.Duration
	devHeader string
	dev       bool
	log       *zerolog.Logger
}

func NewAuthenticator(secret string, ttl time.Duration, devHeader string, dev bool, log *zerolog.Logger) *Authenticator {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Authenticator{secret: []byte(secret), ttl: ttl, devHeader: devHeader, dev: dev, log: log}
}

// Mint issues an access token for userID.
func (a *Authenticator) Mint(userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("empty subject")
	}
	if len(a.secret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) parse(tok string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New("token without subject")
	}
	return claims.Subject, nil
}

func (a *Authenticator) identify(r *http.Request) (string, error) {
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if len(hdr) > 7 && strings.EqualFold(hdr[:7], "bearer ") && len(a.secret) > 0 {
			return a.parse(strings.TrimSpace(hdr[7:]))
		}
		return "", errors.New("malformed authorization header")
	}
	if a.dev && a.devHeader != "" {
		if id := strings.TrimSpace(r.Header.Get(a.devHeader)); id != "" {
			return id, nil
		}
	}
	return "", errors.New("missing token")
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := a.identify(r)
		if err != nil {
			logging.With(r.Context(), a.log).Debug().Err(err).Msg("unauthenticated request")
			writeError(w, errUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID, a.dev)))
	})
}
