package services

import (
	"context"
	"errors"

	"github.com/Fomalhautarc/kucun/internal/auth"
	"github.com/Fomalhautarc/kucun/internal/store"
	"github.com/Fomalhautarc/kucun/types"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers both an unknown username and a wrong
// password. Callers must not learn which factor failed.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrInvalidRole is returned when registration names an unknown role.
var ErrInvalidRole = errors.New("invalid role")

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// UserService owns registration and credential verification. Password
// hashing never leaves this layer.
type UserService struct {
	repo   UserRepository
	tokens *auth.Tokens
}

func NewUserService(repo UserRepository, tokens *auth.Tokens) *UserService {
	return &UserService{repo: repo, tokens: tokens}
}

// Register creates an account. An empty role defaults to "user"; a
// duplicate username surfaces as store.ErrConflict.
func (s *UserService) Register(ctx context.Context, username, password, role string) (types.User, error) {
	if role == "" {
		role = types.RoleUser
	}
	if !types.ValidRole(role) {
		return types.User{}, ErrInvalidRole
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		Username:     username,
		Role:         role,
		PasswordHash: string(hashed),
	})
}

// Login verifies credentials and mints a signed token carrying the
// user's identity and role, valid for one hour.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(user.ID, user.Role)
}
