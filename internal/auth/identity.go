package auth

import (
	"context"
	"errors"
	"strings"
)

// Provider names, as used in AUTH_PROVIDERS and stored in users.provider.
const (
	ProviderPassword = "password"
	ProviderGitHub   = "github"
)

// ErrInvalidCredentials is returned by a Provider when the credential is
// well formed but does not authenticate anyone. Callers should not tell the
// user which part was wrong.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Identity is what a provider knows about an authenticated person.
// (Provider, ProviderID) is the stable key local users are upserted on.
type Identity struct {
	Provider    string
	ProviderID  string
	Email       string
	DisplayName string
	Username    string
	AvatarURL   string
}

// Credential is the input to a sign-in attempt. Password providers read
// Email and Password; OAuth providers read Code.
type Credential struct {
	Email    string
	Password string
	Code     string
}

// Provider authenticates a Credential against one identity source.
type Provider interface {
	Name() string
	Authenticate(ctx context.Context, cred Credential) (*Identity, error)
}

// NormalizeEmail trims and lowercases an address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UsernameFromEmail derives a default username from the local part of an
// email address.
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(NormalizeEmail(email), "@")
	if local == "" {
		return "maker"
	}
	return local
}
