package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func TestIssueParseRoundTrip(t *testing.T) {
	tokens := NewTokens(testSecret, 0)

	before := time.Now()
	signed, err := tokens.Issue(42, "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := tokens.Parse(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Role != "admin" {
		t.Fatalf("expected role admin, got %q", claims.Role)
	}

	wantExp := before.Add(DefaultTokenTTL)
	gotExp := claims.ExpiresAt.Time
	if diff := gotExp.Sub(wantExp); diff < -5*time.Second || diff > 5*time.Second {
		t.Fatalf("expiration %v not within tolerance of %v", gotExp, wantExp)
	}
}

func TestParseExpiredToken(t *testing.T) {
	tokens := NewTokens(testSecret, 0)

	signed := signToken(t, testSecret, Claims{
		UserID: 1,
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	if _, err := tokens.Parse(signed); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseBadSignature(t *testing.T) {
	tokens := NewTokens(testSecret, 0)

	signed := signToken(t, "some-other-secret", Claims{
		UserID: 1,
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	if _, err := tokens.Parse(signed); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := BearerToken(r); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}

	r.Header.Set("Authorization", "tokenwithoutscheme")
	if _, err := BearerToken(r); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}

	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	if _, err := BearerToken(r); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}

	r.Header.Set("Authorization", "Bearer abc.def.ghi")
	token, err := BearerToken(r)
	if err != nil {
		t.Fatalf("bearer token: %v", err)
	}
	if token != "abc.def.ghi" {
		t.Fatalf("unexpected token %q", token)
	}
}

func TestRequireRoleForwardsClaims(t *testing.T) {
	tokens := NewTokens(testSecret, 0)
	signed, err := tokens.Issue(7, "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	called := false
	handler := tokens.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Fatalf("claims not in context")
		}
		if claims.UserID != 7 || claims.Role != "admin" {
			t.Fatalf("unexpected claims %+v", claims)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRoleRejections(t *testing.T) {
	tokens := NewTokens(testSecret, 0)

	userToken, err := tokens.Issue(3, "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	expiredToken := signToken(t, testSecret, Claims{
		UserID: 3,
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	foreignToken := signToken(t, "wrong-secret", Claims{
		UserID: 3,
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	cases := []struct {
		name    string
		header  string
		wantMsg string
	}{
		{"missing token", "", ErrTokenMissing.Error()},
		{"malformed header", "Bearer", ErrTokenMalformed.Error()},
		{"expired token", "Bearer " + expiredToken, ErrTokenExpired.Error()},
		{"bad signature", "Bearer " + foreignToken, ErrTokenInvalid.Error()},
		{"role mismatch", "Bearer " + userToken, ErrRoleMismatch.Error()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := tokens.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatalf("should not reach next handler")
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusForbidden {
				t.Fatalf("expected 403, got %d", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] != tc.wantMsg {
				t.Fatalf("expected message %q, got %q", tc.wantMsg, body["error"])
			}
		})
	}
}

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
