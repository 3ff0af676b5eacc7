// Package auth gates annotation sessions behind email/password accounts.
//
// Accounts live in memory for the lifetime of the process. A successful
// sign-in yields an opaque token that identifies the login; the server keys
// annotation sessions by it.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingFields      = errors.New("missing fields")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Authorizer decides whether a session token may drive an annotation
// session.
type Authorizer interface {
	Authorized(token string) bool
}

// Local authorizes every token. It serves the single local user of stdio
// mode.
type Local struct{}

func (Local) Authorized(string) bool { return true }

// Registry is an in-memory account store. It is safe for concurrent use.
type Registry struct {
	cost int

	mu     sync.RWMutex
	users  map[string][]byte // email -> bcrypt hash
	tokens map[string]string // token -> email
}

// NewRegistry creates an empty registry hashing with bcrypt.DefaultCost.
func NewRegistry() *Registry {
	return NewRegistryWithCost(bcrypt.DefaultCost)
}

// NewRegistryWithCost creates an empty registry hashing with cost. Tests
// use bcrypt.MinCost.
func NewRegistryWithCost(cost int) *Registry {
	return &Registry{
		cost:   cost,
		users:  make(map[string][]byte),
		tokens: make(map[string]string),
	}
}

// SignUp creates an account.
func (r *Registry) SignUp(email, password string) error {
	email = normalize(email)
	if email == "" || password == "" {
		return ErrMissingFields
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[email]; ok {
		return fmt.Errorf("%w: %s", ErrUserExists, email)
	}
	r.users[email] = hash
	return nil
}

// Seed creates every account of users (email -> password), skipping ones
// that already exist.
func (r *Registry) Seed(users map[string]string) error {
	for email, password := range users {
		if err := r.SignUp(email, password); err != nil && !errors.Is(err, ErrUserExists) {
			return fmt.Errorf("seed %s: %w", email, err)
		}
	}
	return nil
}

// SignIn checks the credentials and returns a fresh session token.
func (r *Registry) SignIn(email, password string) (string, error) {
	email = normalize(email)
	if email == "" || password == "" {
		return "", ErrMissingFields
	}

	r.mu.RLock()
	hash, ok := r.users[email]
	r.mu.RUnlock()
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	r.mu.Lock()
	r.tokens[token] = email
	r.mu.Unlock()
	return token, nil
}

// SignOut invalidates token. It reports whether the token was active.
func (r *Registry) SignOut(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token]; !ok {
		return false
	}
	delete(r.tokens, token)
	return true
}

// Authorized reports whether token belongs to a signed-in user.
func (r *Registry) Authorized(token string) bool {
	_, ok := r.Email(token)
	return ok
}

// Email returns the account behind token.
func (r *Registry) Email(token string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	email, ok := r.tokens[token]
	return email, ok
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
