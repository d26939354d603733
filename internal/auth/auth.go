// Package auth owns token issuance, validation, and the role gate that
// protects privileged endpoints. Tokens are stateless: validity is
// decided solely from the HMAC signature and the embedded expiration.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the validity window of an issued token.
const DefaultTokenTTL = time.Hour

// Distinct rejection reasons. They all answer with 403 but must stay
// separate values: a caller re-authenticates on an expired token and
// escalates privileges on a role mismatch.
var (
	ErrTokenMissing   = errors.New("token is missing")
	ErrTokenMalformed = errors.New("token format is invalid")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrRoleMismatch   = errors.New("insufficient role")
)

// Claims is the identity payload carried inside a token. It is never
// persisted server-side.
type Claims struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens issues and validates signed identity tokens. The secret is
// injected once at construction and immutable afterwards.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens constructs a token issuer/validator around the given
// symmetric secret. A non-positive ttl falls back to DefaultTokenTTL.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

// Issue mints a signed token for the given user identity.
func (t *Tokens) Issue(userID int, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse verifies a token string and returns its claims. Failures map
// to one of the sentinel errors above.
func (t *Tokens) Parse(tokenString string) (Claims, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if !token.Valid {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}

// BearerToken extracts the token from the Authorization header,
// distinguishing a missing header from a header that is not the
// expected two-part "Bearer <token>" shape.
func BearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", ErrTokenMissing
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrTokenMalformed
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrTokenMalformed
	}
	return token, nil
}

type contextKey string

const claimsContextKey contextKey = "claims"

// ClaimsFromContext returns the claims injected by RequireRole.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(Claims)
	return claims, ok
}

// RequireRole gates an endpoint on a validated token whose role equals
// the required one. Every rejection is a 403; the body names the
// precise reason. On success the decoded claims are forwarded through
// the request context.
func (t *Tokens) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := BearerToken(r)
			if err != nil {
				forbidden(w, err)
				return
			}

			claims, err := t.Parse(tokenString)
			if err != nil {
				forbidden(w, err)
				return
			}

			if claims.Role != role {
				forbidden(w, ErrRoleMismatch)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func forbidden(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
