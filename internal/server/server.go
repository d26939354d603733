package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Fomalhautarc/kucun/config"
	"github.com/Fomalhautarc/kucun/internal/auth"
	"github.com/Fomalhautarc/kucun/internal/blob"
	"github.com/Fomalhautarc/kucun/internal/db"
	"github.com/Fomalhautarc/kucun/internal/events"
	"github.com/Fomalhautarc/kucun/internal/handlers"
	"github.com/Fomalhautarc/kucun/internal/metrics"
	"github.com/Fomalhautarc/kucun/internal/services"
	"github.com/Fomalhautarc/kucun/internal/store"
	"github.com/Fomalhautarc/kucun/pkg/logger"
	"github.com/Fomalhautarc/kucun/types"
)

// Server wraps the HTTP server and its shared resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  *events.Publisher
}

// New constructs a Server: opens the database pool, builds the optional
// event publisher and image store, and wires all routes.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	log := logger.Get()

	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	publisher, err := events.FromConfig(ctx, cfg.Events, log)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	images, err := blob.FromConfig(ctx, cfg.Blob)
	if err != nil {
		_ = dbConn.Close()
		_ = publisher.Close()
		return nil, err
	}
	if images != nil {
		if err := images.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			_ = publisher.Close()
			return nil, fmt.Errorf("ensure image bucket: %w", err)
		}
	}

	userRepo := store.NewUserRepository(dbConn)
	productRepo := store.NewProductRepository(dbConn)
	categoryRepo := store.NewCategoryRepository(dbConn)

	tokens := auth.NewTokens(jwtSecret, auth.DefaultTokenTTL)
	userService := services.NewUserService(userRepo, tokens)
	productService := services.NewProductService(productRepo, images, publisher)
	categoryService := services.NewCategoryService(categoryRepo, publisher)

	requireAdmin := tokens.RequireRole(types.RoleAdmin)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		metrics.Middleware,
	)
	router.Get("/healthz", handlers.Healthz)
	router.Method(http.MethodGet, "/metrics", metrics.Handler())
	router.Route("/api/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, tokens)
	})
	router.Route("/api/products", func(r chi.Router) {
		handlers.ProductRouter(r, productService, requireAdmin)
	})
	router.Route("/api/categories", func(r chi.Router) {
		handlers.CategoryRouter(r, categoryService)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		publisher:  publisher,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	log := logger.Get()
	log.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown and releases shared resources.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	_ = s.publisher.Close()
	return s.httpServer.Close()
}
