package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ysws-hunt/internal/apperror"
	"github.com/sakif/ysws-hunt/internal/model"
)

func newTestPasswordService() *PasswordService {
	return NewPasswordServiceForTest(4)
}

// =========================================================================
// PasswordService
// =========================================================================

func TestHash(t *testing.T) {
	ps := newTestPasswordService()

	hash1, err := ps.Hash("same-password")
	require.NoError(t, err)
	hash2, err := ps.Hash("same-password")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash1, "$2"), "not a bcrypt hash: %q", hash1)
	assert.NotEqual(t, hash1, hash2, "salt must be random")
}

func TestHash_Length(t *testing.T) {
	ps := newTestPasswordService()

	_, err := ps.Hash(strings.Repeat("a", MaxPasswordLength))
	assert.NoError(t, err)

	_, err = ps.Hash(strings.Repeat("a", MaxPasswordLength+1))
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	ps := newTestPasswordService()
	hash, err := ps.Hash("correct horse")
	require.NoError(t, err)

	assert.NoError(t, ps.Verify(hash, "correct horse"))
	assert.ErrorIs(t, ps.Verify(hash, "battery staple"), ErrInvalidCredentials)
	assert.ErrorIs(t, ps.Verify(hash, ""), ErrInvalidCredentials)

	err = ps.Verify("not-a-hash", "correct horse")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidCredentials))
}

// =========================================================================
// PasswordProvider
// =========================================================================

type fakeCredentials map[string]*model.Credential

func (f fakeCredentials) GetCredential(_ context.Context, email string) (*model.Credential, error) {
	c, ok := f[email]
	if !ok {
		return nil, apperror.NotFound("credential", email)
	}
	return c, nil
}

func TestPasswordProvider_Authenticate(t *testing.T) {
	ps := newTestPasswordService()
	hash, err := ps.Hash("hunter22")
	require.NoError(t, err)

	p := NewPasswordProvider(fakeCredentials{
		"ada@example.com": {Email: "ada@example.com", PasswordHash: hash, DisplayName: "Ada"},
	}, ps)
	assert.Equal(t, ProviderPassword, p.Name())

	id, err := p.Authenticate(context.Background(), Credential{Email: "  Ada@Example.com ", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, &Identity{
		Provider:    ProviderPassword,
		ProviderID:  "ada@example.com",
		Email:       "ada@example.com",
		DisplayName: "Ada",
		Username:    "ada",
	}, id)
}

func TestPasswordProvider_Rejects(t *testing.T) {
	ps := newTestPasswordService()
	hash, err := ps.Hash("hunter22")
	require.NoError(t, err)
	p := NewPasswordProvider(fakeCredentials{
		"ada@example.com": {Email: "ada@example.com", PasswordHash: hash},
	}, ps)

	tests := map[string]Credential{
		"wrong password": {Email: "ada@example.com", Password: "hunter23"},
		"unknown email":  {Email: "bob@example.com", Password: "hunter22"},
		"empty password": {Email: "ada@example.com"},
		"empty email":    {Password: "hunter22"},
	}
	for name, cred := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := p.Authenticate(context.Background(), cred)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestUsernameFromEmail(t *testing.T) {
	assert.Equal(t, "ada.l", UsernameFromEmail("Ada.L@Example.com"))
	assert.Equal(t, "maker", UsernameFromEmail("@example.com"))
}
