package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/medlabel/apiserver/internal/store"
	"github.com/medlabel/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// UserService encapsulates user use-cases. Users are provisioned in
// batch and only read at request time.
type UserService struct {
	db *sql.DB
}

func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return store.NewUserRepository(s.db).GetByUsername(ctx, username)
}

// Authenticate verifies username/password against the stored bcrypt
// hash. Every failure mode collapses to ErrInvalidCredentials so the
// response never reveals whether the username exists.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (types.User, error) {
	if username == "" {
		return types.User{}, ErrInvalidCredentials
	}

	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}

	return user, nil
}

// Create hashes the password and inserts a user row. Used by the
// provision command, not exposed over HTTP.
func (s *UserService) Create(ctx context.Context, username, firstName, lastName, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return store.NewUserRepository(s.db).Create(ctx, types.User{
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: string(hashed),
	})
}
