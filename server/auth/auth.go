// Package auth verifies the bearer tokens minted by the external identity
// service and attaches the resulting principal to the request context. Token
// issuance is not this service's job.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gatherhq/gather-server/server/domain"
)

type principalKey struct{}

var principalContextKey = &principalKey{}

func SetPrincipal(ctx context.Context, principal domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

func GetPrincipal(r *http.Request) domain.Principal {
	return r.Context().Value(principalContextKey).(domain.Principal)
}

func NewVerifier(cfg Config) *Verifier {
	return &Verifier{
		secret: []byte(cfg.Secret),
	}
}

type Verifier struct {
	secret []byte
}

// Verify parses and validates the token and returns the principal carried in
// its subject claim.
func (v *Verifier) Verify(tokenString string) (domain.Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return domain.Principal{}, fmt.Errorf("failed to parse token: %w", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return domain.Principal{}, fmt.Errorf("failed to get token subject: %w", err)
	}

	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("invalid token subject %q: %w", subject, err)
	}

	return domain.Principal{ID: userID}, nil
}
