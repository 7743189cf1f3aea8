package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is a login identity. Hash is the bcrypt hash of the trimmed password.
type User struct {
	ID    string
	Email string
	Hash  []byte
	Role  string
}

// UserStore is what the login handler needs from a user backend.
type UserStore interface {
	Create(ctx context.Context, email, password, role, id string) error
	Verify(ctx context.Context, email, password string) (User, error)
}

var _ UserStore = (*MemStore)(nil)

// MemStore holds users in memory. The catalog service seeds it with the
// configured admin at start.
type MemStore struct {
	mu      sync.RWMutex
	byEmail map[string]User
	cost    int
}

func NewMemStore() *MemStore {
	return NewMemStoreWithCost(bcrypt.DefaultCost)
}

// NewMemStoreWithCost lets tests use bcrypt.MinCost.
func NewMemStoreWithCost(cost int) *MemStore {
	return &MemStore{byEmail: make(map[string]User), cost: cost}
}

func (s *MemStore) Create(ctx context.Context, email, password, role, id string) error {
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return ErrEmailExists
	}
	s.byEmail[email] = User{ID: id, Email: email, Hash: hash, Role: role}
	return nil
}

func (s *MemStore) Verify(ctx context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)

	s.mu.RLock()
	u, ok := s.byEmail[email]
	s.mu.RUnlock()

	if !ok {
		return User{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(u.Hash, []byte(strings.TrimSpace(password))); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
