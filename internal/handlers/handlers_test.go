package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Fomalhautarc/kucun/internal/auth"
	"github.com/Fomalhautarc/kucun/internal/services"
	"github.com/Fomalhautarc/kucun/internal/store"
	"github.com/Fomalhautarc/kucun/types"
)

const testSecret = "test-secret"

type stubUserRepo struct {
	users  map[string]types.User
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]types.User), nextID: 1}
}

func (r *stubUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *stubUserRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	u, ok := r.users[username]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *stubUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	if _, exists := r.users[user.Username]; exists {
		return types.User{}, store.ErrConflict
	}
	user.ID = r.nextID
	r.nextID++
	r.users[user.Username] = user
	return user, nil
}

type stubProductRepo struct {
	products map[int]types.Product
	nextID   int
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[int]types.Product), nextID: 1}
}

func (r *stubProductRepo) Get(_ context.Context, id int) (types.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return types.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (r *stubProductRepo) Create(_ context.Context, product types.Product) (types.Product, error) {
	product.ID = r.nextID
	r.nextID++
	r.products[product.ID] = product
	return product, nil
}

func (r *stubProductRepo) Search(_ context.Context, filter types.ProductFilter) ([]types.Product, error) {
	var out []types.Product
	for _, p := range r.products {
		if filter.Name != "" && !strings.Contains(p.Name, filter.Name) {
			continue
		}
		if filter.MinInventory != nil && p.Inventory < *filter.MinInventory {
			continue
		}
		if filter.PriceMin != nil && p.Price < *filter.PriceMin {
			continue
		}
		if filter.PriceMax != nil && p.Price > *filter.PriceMax {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, store.ErrNotFound
	}
	return out, nil
}

func (r *stubProductRepo) UpdatePartial(_ context.Context, id int, patch types.ProductPatch) (types.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return types.Product{}, store.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Inventory != nil {
		p.Inventory = *patch.Inventory
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	r.products[id] = p
	return p, nil
}

func (r *stubProductRepo) SetImageKey(_ context.Context, id int, key string) error {
	p, ok := r.products[id]
	if !ok {
		return store.ErrNotFound
	}
	p.ImageKey = key
	r.products[id] = p
	return nil
}

type stubCategoryRepo struct {
	categories map[string]types.Category
	nextID     int
}

func newStubCategoryRepo() *stubCategoryRepo {
	return &stubCategoryRepo{categories: make(map[string]types.Category), nextID: 1}
}

func (r *stubCategoryRepo) Create(_ context.Context, category types.Category) (types.Category, error) {
	if _, exists := r.categories[category.Name]; exists {
		return types.Category{}, store.ErrConflict
	}
	category.ID = r.nextID
	r.nextID++
	r.categories[category.Name] = category
	return category, nil
}

func (r *stubCategoryRepo) GetByID(_ context.Context, id int) (types.Category, error) {
	for _, c := range r.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return types.Category{}, store.ErrNotFound
}

// testEnv mounts the full API surface over stub repositories.
type testEnv struct {
	router *chi.Mux
	tokens *auth.Tokens
	users  *services.UserService
}

func newTestEnv() *testEnv {
	tokens := auth.NewTokens(testSecret, 0)
	userService := services.NewUserService(newStubUserRepo(), tokens)
	productService := services.NewProductService(newStubProductRepo(), nil, nil)
	categoryService := services.NewCategoryService(newStubCategoryRepo(), nil)

	requireAdmin := tokens.RequireRole(types.RoleAdmin)

	router := chi.NewRouter()
	router.Route("/api/users", func(r chi.Router) {
		UserRouter(r, userService, tokens)
	})
	router.Route("/api/products", func(r chi.Router) {
		ProductRouter(r, productService, requireAdmin)
	})
	router.Route("/api/categories", func(r chi.Router) {
		CategoryRouter(r, categoryService)
	})

	return &testEnv{router: router, tokens: tokens, users: userService}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	if _, err := e.users.Register(context.Background(), "admin", "adminpass", "admin"); err != nil {
		t.Fatalf("register admin: %v", err)
	}
	token, err := e.users.Login(context.Background(), "admin", "adminpass")
	if err != nil {
		t.Fatalf("login admin: %v", err)
	}
	return token
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d (%s)", want, rec.Code, rec.Body.String())
	}
}
