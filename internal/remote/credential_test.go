package remote

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeeper(t *testing.T) *CredentialKeeper {
	t.Helper()
	return NewCredentialKeeper([]byte("secret"), filepath.Join(t.TempDir(), "credential"))
}

func TestCredentialKeeper_IssueAndRestore(t *testing.T) {
	keeper := newTestKeeper(t)

	require.NoError(t, keeper.Issue("admin"))

	identity, err := keeper.Restore()
	require.NoError(t, err)
	assert.Equal(t, "admin", identity)
}

func TestCredentialKeeper_Restore_NoFile(t *testing.T) {
	keeper := newTestKeeper(t)

	_, err := keeper.Restore()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCredentialKeeper_Restore_Expired(t *testing.T) {
	keeper := newTestKeeper(t)
	keeper.ttl = -time.Minute

	require.NoError(t, keeper.Issue("admin"))

	_, err := keeper.Restore()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCredentialKeeper_WithTTL(t *testing.T) {
	keeper := newTestKeeper(t).WithTTL(time.Hour)
	assert.Equal(t, time.Hour, keeper.ttl)

	// Non-positive values keep the current TTL
	keeper.WithTTL(0)
	assert.Equal(t, time.Hour, keeper.ttl)
}

func TestCredentialKeeper_Restore_WrongSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credential")
	issuer := NewCredentialKeeper([]byte("secret-a"), path)
	require.NoError(t, issuer.Issue("admin"))

	verifier := NewCredentialKeeper([]byte("secret-b"), path)
	_, err := verifier.Restore()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCredentialKeeper_Clear(t *testing.T) {
	keeper := newTestKeeper(t)

	require.NoError(t, keeper.Issue("admin"))
	require.NoError(t, keeper.Clear())

	_, err := keeper.Restore()
	assert.ErrorIs(t, err, ErrNoSession)

	// Clearing again is not an error
	assert.NoError(t, keeper.Clear())
}
