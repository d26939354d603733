package handlers

import (
	"net/http"
	"testing"

	"github.com/Fomalhautarc/kucun/types"
)

func TestCreateCategory(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/categories", "", map[string]string{"name": "tools"})
	mustStatus(t, rec, http.StatusCreated)

	created := decodeBody[types.Category](t, rec)
	if created.Name != "tools" {
		t.Fatalf("unexpected category %+v", created)
	}
	if created.ID == 0 {
		t.Fatalf("expected category id to be set")
	}
}

func TestCreateCategoryMissingName(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/categories", "", map[string]string{})
	mustStatus(t, rec, http.StatusBadRequest)
}

func TestCreateCategoryDuplicate(t *testing.T) {
	env := newTestEnv()

	body := map[string]string{"name": "tools"}
	mustStatus(t, env.do(t, http.MethodPost, "/api/categories", "", body), http.StatusCreated)

	rec := env.do(t, http.MethodPost, "/api/categories", "", body)
	mustStatus(t, rec, http.StatusBadRequest)

	resp := decodeBody[ErrorResponse](t, rec)
	if resp.Error != "category already exists" {
		t.Fatalf("unexpected error message %q", resp.Error)
	}
}
