// Package auth provides the admin gate checked before every console mutation.
//
// The HTTP layer stores whatever credential the caller presented in the
// request context; services call Authorize before mutating anything.
package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/asterisk/tourney/internal/tourney"
)

// Header carries the admin credential on control requests.
const Header = "X-Auth-Token"

type Authorizer interface {
	Authorize(ctx context.Context) error
}

type AuthorizerFunc func(ctx context.Context) error

func (f AuthorizerFunc) Authorize(ctx context.Context) error { return f(ctx) }

// AllowAll authorizes every call. Used by tests and trusted tooling.
var AllowAll Authorizer = AuthorizerFunc(func(context.Context) error { return nil })

type ctxKey struct{}

// WithCredential returns a context carrying the presented credential.
func WithCredential(ctx context.Context, credential string) context.Context {
	return context.WithValue(ctx, ctxKey{}, credential)
}

// CredentialFrom returns the credential stored by WithCredential, or "".
func CredentialFrom(ctx context.Context) string {
	s, _ := ctx.Value(ctxKey{}).(string)
	return s
}

// Password authorizes callers presenting the admin password. Only the bcrypt
// hash is kept in memory.
type Password struct {
	hash []byte
}

// NewPassword hashes plain with the given bcrypt cost.
func NewPassword(plain string, cost int) (*Password, error) {
	if plain == "" {
		return nil, fmt.Errorf("admin password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return nil, fmt.Errorf("hashing admin password: %w", err)
	}
	return &Password{hash: hash}, nil
}

// PasswordFromHash uses an existing bcrypt hash.
func PasswordFromHash(hash string) (*Password, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid admin password hash: %w", err)
	}
	return &Password{hash: []byte(hash)}, nil
}

func (p *Password) Authorize(ctx context.Context) error {
	cred := CredentialFrom(ctx)
	if cred == "" {
		return fmt.Errorf("%w: missing admin credential", tourney.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword(p.hash, []byte(cred)); err != nil {
		return fmt.Errorf("%w: invalid admin credential", tourney.ErrUnauthorized)
	}
	return nil
}
