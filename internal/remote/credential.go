// ABOUTME: Signed-credential persistence backing session restore
// ABOUTME: HS256 JWTs written to a token file, verified on the next start

package remote

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultCredentialTTL is how long a stored credential stays valid.
const DefaultCredentialTTL = 7 * 24 * time.Hour

// CredentialKeeper persists the authenticated identity between runs as a
// signed token on disk. A missing, expired, or tampered token restores to
// nothing rather than an error the caller must distinguish.
type CredentialKeeper struct {
	secret []byte
	path   string
	ttl    time.Duration
}

// NewCredentialKeeper creates a keeper signing with the given secret and
// storing the token at path.
func NewCredentialKeeper(secret []byte, path string) *CredentialKeeper {
	return &CredentialKeeper{
		secret: secret,
		path:   path,
		ttl:    DefaultCredentialTTL,
	}
}

// WithTTL overrides the credential lifetime. Non-positive values keep the
// default.
func (k *CredentialKeeper) WithTTL(ttl time.Duration) *CredentialKeeper {
	if ttl > 0 {
		k.ttl = ttl
	}
	return k
}

// Issue signs a token for the identity and writes it to the token file.
func (k *CredentialKeeper) Issue(identity string) error {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": identity,
		"iat": now.Unix(),
		"exp": now.Add(k.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(k.secret)
	if err != nil {
		return fmt.Errorf("signing credential: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(k.path), 0700); err != nil {
		return fmt.Errorf("creating credential directory: %w", err)
	}
	if err := os.WriteFile(k.path, []byte(signed), 0600); err != nil {
		return fmt.Errorf("writing credential file: %w", err)
	}
	return nil
}

// Restore reads and verifies the stored token, returning the identity it was
// issued for. Returns ErrNoSession when the file is missing or the token is
// no longer valid.
func (k *CredentialKeeper) Restore() (string, error) {
	data, err := os.ReadFile(k.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoSession
		}
		return "", fmt.Errorf("reading credential file: %w", err)
	}

	token, err := jwt.Parse(string(data), func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return k.secret, nil
	})
	if err != nil || !token.Valid {
		// Expired or tampered credentials restore to nothing.
		return "", ErrNoSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrNoSession
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrNoSession
	}
	return sub, nil
}

// Clear removes the stored credential. Clearing an already-absent credential
// is not an error.
func (k *CredentialKeeper) Clear() error {
	if err := os.Remove(k.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing credential file: %w", err)
	}
	return nil
}
