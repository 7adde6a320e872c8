// Package users stores user accounts with bcrypt password hashes.
package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gridlinecompany/LetsEcrypt/pkg/jsonfile"
)

var (
	ErrUserExists         = errors.New("users: email already registered")
	ErrInvalidCredentials = errors.New("users: invalid email or password")
	ErrNotFound           = errors.New("users: user not found")
	ErrInvalidInput       = errors.New("users: all fields are required")
)

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"created"`
}

// Store keeps users in a JSON file.
type Store struct {
	file *jsonfile.File[[]User]
	cost int
}

// Option configures a Store.
type Option func(*Store)

// WithBcryptCost sets the bcrypt cost.
func WithBcryptCost(cost int) Option {
	return func(s *Store) { s.cost = cost }
}

// Open returns a Store backed by path, usually DATA_DIR/users.json.
func Open(path string, opts ...Option) *Store {
	s := &Store{file: jsonfile.New[[]User](path), cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user. Emails are unique, compared case-insensitively.
func (s *Store) Register(_ context.Context, name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return User{}, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	u := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	err = s.file.Update(func(all *[]User) error {
		for _, existing := range *all {
			if existing.Email == email {
				return ErrUserExists
			}
		}
		*all = append(*all, u)
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// Authenticate returns the user when password matches.
func (s *Store) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.byEmail(normalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Get returns the user with id.
func (s *Store) Get(_ context.Context, id string) (User, error) {
	all, err := s.file.Load()
	if err != nil {
		return User{}, err
	}
	for _, u := range all {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *Store) byEmail(email string) (User, error) {
	all, err := s.file.Load()
	if err != nil {
		return User{}, err
	}
	for _, u := range all {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}
