package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/ysws-hunt/internal/apperror"
	"github.com/sakif/ysws-hunt/internal/model"
)

const (
	defaultCost = 12

	// MinPasswordLength and MaxPasswordLength bound registration passwords.
	// bcrypt ignores everything past 72 bytes.
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// PasswordService hashes and verifies passwords with bcrypt. The cost is a
// field so tests can use the bcrypt minimum.
type PasswordService struct {
	cost int
}

// NewPasswordService returns a PasswordService using cost 12.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest returns a PasswordService with the given cost.
// Never use it outside tests.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt hash of plaintext, salt and cost included.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordLength {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plaintext matches hash and ErrInvalidCredentials
// when it does not.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// CredentialLookup is the part of the store the password provider reads.
type CredentialLookup interface {
	GetCredential(ctx context.Context, email string) (*model.Credential, error)
}

// PasswordProvider authenticates email + password against stored
// credentials.
type PasswordProvider struct {
	creds     CredentialLookup
	passwords *PasswordService

	dummyOnce sync.Once
	dummyHash string
}

var _ Provider = (*PasswordProvider)(nil)

func NewPasswordProvider(creds CredentialLookup, passwords *PasswordService) *PasswordProvider {
	return &PasswordProvider{creds: creds, passwords: passwords}
}

func (p *PasswordProvider) Name() string { return ProviderPassword }

// Authenticate checks cred.Password against the stored hash for cred.Email.
// Unknown emails still pay for one bcrypt comparison so response time does
// not reveal which addresses are registered.
func (p *PasswordProvider) Authenticate(ctx context.Context, cred Credential) (*Identity, error) {
	email := NormalizeEmail(cred.Email)
	if email == "" || cred.Password == "" {
		return nil, ErrInvalidCredentials
	}

	stored, err := p.creds.GetCredential(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			p.passwords.Verify(p.dummy(), cred.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: loading credential: %w", err)
	}

	if err := p.passwords.Verify(stored.PasswordHash, cred.Password); err != nil {
		return nil, err
	}

	return &Identity{
		Provider:    ProviderPassword,
		ProviderID:  email,
		Email:       email,
		DisplayName: stored.DisplayName,
		Username:    UsernameFromEmail(email),
	}, nil
}

func (p *PasswordProvider) dummy() string {
	p.dummyOnce.Do(func() {
		h, err := p.passwords.Hash("not-a-real-password")
		if err == nil {
			p.dummyHash = h
		}
	})
	return p.dummyHash
}
