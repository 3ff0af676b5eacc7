package auth

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistryWithCost(bcrypt.MinCost)
	if err := r.SignUp("ann@example.com", "hunter2"); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	return r
}

func TestSignUp(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"new user", "bob@example.com", "pw", nil},
		{"duplicate", "ann@example.com", "other", ErrUserExists},
		{"duplicate differs in case", "  ANN@example.com ", "other", ErrUserExists},
		{"missing email", "", "pw", ErrMissingFields},
		{"blank email", "   ", "pw", ErrMissingFields},
		{"missing password", "carl@example.com", "", ErrMissingFields},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.SignUp(tt.email, tt.password)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("SignUp failed: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSignIn(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"valid", "ann@example.com", "hunter2", nil},
		{"case-insensitive email", "Ann@Example.com", "hunter2", nil},
		{"wrong password", "ann@example.com", "hunter3", ErrInvalidCredentials},
		{"unknown user", "zed@example.com", "hunter2", ErrInvalidCredentials},
		{"missing password", "ann@example.com", "", ErrMissingFields},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := r.SignIn(tt.email, tt.password)
			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Errorf("err = %v, want %v", err, tt.want)
				}
				if token != "" {
					t.Error("failed sign-in returned a token")
				}
				return
			}
			if err != nil {
				t.Fatalf("SignIn failed: %v", err)
			}
			if _, err := uuid.Parse(token); err != nil {
				t.Errorf("token %q is not a uuid: %v", token, err)
			}
			if !r.Authorized(token) {
				t.Error("token not authorized after sign-in")
			}
			if email, _ := r.Email(token); email != "ann@example.com" {
				t.Errorf("Email = %q", email)
			}
		})
	}
}

func TestSignOut(t *testing.T) {
	r := newTestRegistry(t)
	t1, _ := r.SignIn("ann@example.com", "hunter2")
	t2, _ := r.SignIn("ann@example.com", "hunter2")
	if t1 == t2 {
		t.Fatal("two sign-ins returned the same token")
	}

	if !r.SignOut(t1) {
		t.Error("SignOut of active token returned false")
	}
	if r.Authorized(t1) {
		t.Error("token still authorized after sign-out")
	}
	if !r.Authorized(t2) {
		t.Error("sign-out revoked an unrelated token")
	}
	if r.SignOut(t1) {
		t.Error("second SignOut returned true")
	}
	if r.Authorized("") {
		t.Error("empty token authorized")
	}
}

func TestSeed(t *testing.T) {
	r := newTestRegistry(t)
	err := r.Seed(map[string]string{
		"ann@example.com": "ignored",
		"dee@example.com": "pw",
	})
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if _, err := r.SignIn("dee@example.com", "pw"); err != nil {
		t.Errorf("seeded user cannot sign in: %v", err)
	}
	if _, err := r.SignIn("ann@example.com", "hunter2"); err != nil {
		t.Errorf("existing user lost password: %v", err)
	}
	if err := r.Seed(map[string]string{"": "pw"}); !errors.Is(err, ErrMissingFields) {
		t.Errorf("seeding empty email err = %v", err)
	}
}

func TestLocal(t *testing.T) {
	var a Authorizer = Local{}
	if !a.Authorized("") || !a.Authorized("anything") {
		t.Error("Local must authorize every token")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := newTestRegistry(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := r.SignIn("ann@example.com", "hunter2")
			if err != nil {
				t.Error(err)
				return
			}
			r.Authorized(token)
			r.SignOut(token)
		}()
	}
	wg.Wait()
}
