package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/ysws-hunt/internal/apperror"
	"github.com/sakif/ysws-hunt/internal/auth"
	"github.com/sakif/ysws-hunt/internal/model"
	"github.com/sakif/ysws-hunt/internal/repository"
)

// MaxDisplayNameLength caps the display name given at registration.
const MaxDisplayNameLength = 80

// AccountStore is the part of the store AuthService needs.
type AccountStore interface {
	repository.UserRepository
	repository.CredentialRepository
}

// AuthService turns provider identities into local users and sessions.
//
//	AuthHandler → AuthService → Provider (password | github)
//	                          → AccountStore (users, credentials)
//	                          → TokenService (JWT)
type AuthService struct {
	accounts  AccountStore
	providers map[string]auth.Provider
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService wires the enabled providers. A provider missing from
// providers is treated as disabled.
func NewAuthService(
	accounts AccountStore,
	providers []auth.Provider,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	byName := make(map[string]auth.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &AuthService{
		accounts:  accounts,
		providers: byName,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the signed-in user with the session token so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// ProviderEnabled reports whether sign-in through name is available.
func (s *AuthService) ProviderEnabled(name string) bool {
	_, ok := s.providers[name]
	return ok
}

// SignIn authenticates cred with the named provider, upserts the local
// user for the resulting identity and issues a session token.
func (s *AuthService) SignIn(ctx context.Context, providerName string, cred auth.Credential) (*AuthResult, error) {
	provider, ok := s.providers[providerName]
	if !ok {
		return nil, apperror.Forbidden(fmt.Sprintf("sign-in with %s is not enabled", providerName))
	}

	identity, err := provider.Authenticate(ctx, cred)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Info("sign-in rejected", slog.String("provider", providerName))
			return nil, apperror.Unauthorized("invalid credentials")
		}
		s.logger.Error("identity provider failed",
			slog.String("provider", providerName),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/auth: authenticating with %s: %w", providerName, err)
	}

	user := &model.User{
		Provider:    identity.Provider,
		ProviderID:  identity.ProviderID,
		Email:       identity.Email,
		Username:    identity.Username,
		DisplayName: identity.DisplayName,
		AvatarURL:   identity.AvatarURL,
	}
	if user.DisplayName == "" {
		user.DisplayName = user.Username
	}
	if err := s.accounts.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (%s/%s): %w", identity.Provider, identity.ProviderID, err)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user authenticated",
		slog.String("userID", user.ID),
		slog.String("provider", identity.Provider),
		slog.String("username", user.Username),
	)
	return &AuthResult{User: user, Token: token}, nil
}

// Register creates a password credential and signs the new user in.
func (s *AuthService) Register(ctx context.Context, email, password, displayName string) (*AuthResult, error) {
	if !s.ProviderEnabled(auth.ProviderPassword) {
		return nil, apperror.Forbidden("password sign-up is not enabled")
	}

	email = auth.NormalizeEmail(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, apperror.ValidationFailed("email", "email is not a valid address")
	}
	if len(password) < auth.MinPasswordLength || len(password) > auth.MaxPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be between %d and %d characters", auth.MinPasswordLength, auth.MaxPasswordLength))
	}
	displayName = strings.TrimSpace(displayName)
	if len([]rune(displayName)) > MaxDisplayNameLength {
		return nil, apperror.ValidationFailed("display_name",
			fmt.Sprintf("display name must be %d characters or less", MaxDisplayNameLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	err = s.accounts.CreateCredential(ctx, &model.Credential{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
	})
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrConflict,
				Message: "an account with this email already exists",
				Field:   "email",
			}
		}
		return nil, fmt.Errorf("service/auth: creating credential: %w", err)
	}

	s.logger.Info("account registered", slog.String("email", email))

	return s.SignIn(ctx, auth.ProviderPassword, auth.Credential{Email: email, Password: password})
}

// GetUserByID returns the user behind a session.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.Unauthorized("authentication required")
	}
	user, err := s.accounts.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// TokenTTL is the session lifetime, used as the cookie max-age.
func (s *AuthService) TokenTTL() int {
	return int(s.tokens.TTL().Seconds())
}
