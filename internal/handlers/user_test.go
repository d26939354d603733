package handlers

import (
	"net/http"
	"testing"

	"github.com/Fomalhautarc/kucun/internal/auth"
	"github.com/Fomalhautarc/kucun/types"
)

func TestRegisterMissingFields(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/users/register", "", map[string]string{"username": "alice"})
	mustStatus(t, rec, http.StatusBadRequest)
}

func TestRegisterInvalidRole(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "alice",
		"password": "pass123",
		"role":     "superuser",
	})
	mustStatus(t, rec, http.StatusBadRequest)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv()

	body := map[string]string{"username": "alice", "password": "pass123", "role": "user"}
	mustStatus(t, env.do(t, http.MethodPost, "/api/users/register", "", body), http.StatusCreated)
	mustStatus(t, env.do(t, http.MethodPost, "/api/users/register", "", body), http.StatusBadRequest)
}

func TestRegisterDefaultsToUserRole(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "alice",
		"password": "pass123",
	})
	mustStatus(t, rec, http.StatusCreated)

	user := decodeBody[types.User](t, rec)
	if user.Role != types.RoleUser {
		t.Fatalf("expected role user, got %q", user.Role)
	}
}

func TestLoginScenario(t *testing.T) {
	env := newTestEnv()

	mustStatus(t, env.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"username": "alice",
		"password": "rightpass",
		"role":     "admin",
	}), http.StatusCreated)

	rec := env.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	mustStatus(t, rec, http.StatusUnauthorized)

	rec = env.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"username": "alice",
		"password": "rightpass",
	})
	mustStatus(t, rec, http.StatusOK)

	resp := decodeBody[TokenResponse](t, rec)
	if resp.Token == "" {
		t.Fatalf("expected a token in the response")
	}
	claims, err := env.tokens.Parse(resp.Token)
	if err != nil {
		t.Fatalf("parse returned token: %v", err)
	}
	if claims.Role != types.RoleAdmin {
		t.Fatalf("expected admin role in claims, got %q", claims.Role)
	}
}

func TestLoginMissingFields(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/users/login", "", map[string]string{"username": "alice"})
	mustStatus(t, rec, http.StatusBadRequest)
}

func TestMeRequiresAdmin(t *testing.T) {
	env := newTestEnv()

	// No token at all.
	rec := env.do(t, http.MethodGet, "/api/users/me", "", nil)
	mustStatus(t, rec, http.StatusForbidden)
	missing := decodeBody[ErrorResponse](t, rec)

	// Valid token, wrong role.
	userToken, err := env.tokens.Issue(5, types.RoleUser)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	rec = env.do(t, http.MethodGet, "/api/users/me", userToken, nil)
	mustStatus(t, rec, http.StatusForbidden)
	mismatch := decodeBody[ErrorResponse](t, rec)

	if missing.Error == mismatch.Error {
		t.Fatalf("role mismatch must be distinguishable from a missing token")
	}
	if mismatch.Error != auth.ErrRoleMismatch.Error() {
		t.Fatalf("unexpected role mismatch message %q", mismatch.Error)
	}
}

func TestMeReturnsClaims(t *testing.T) {
	env := newTestEnv()
	token := env.adminToken(t)

	rec := env.do(t, http.MethodGet, "/api/users/me", token, nil)
	mustStatus(t, rec, http.StatusOK)

	me := decodeBody[MeResponse](t, rec)
	if me.Role != types.RoleAdmin {
		t.Fatalf("expected admin role, got %q", me.Role)
	}
	if me.UserID == 0 {
		t.Fatalf("expected user id in claims")
	}
	if me.ExpiresAt.IsZero() {
		t.Fatalf("expected expiration in claims")
	}
}
