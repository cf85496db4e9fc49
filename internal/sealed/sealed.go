// Package sealed encrypts the persisted business profile at rest. It wraps
// filippo.io/age with a single X25519 identity owned by the device: the
// identity's recipient encrypts, the identity decrypts.
//
// The identity is kept in a key file next to the database. Losing the key
// file makes the stored profile unreadable, which the profile store treats
// the same as a missing profile (onboarding runs again).
package sealed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
)

// Sealer encrypts and decrypts opaque records.
type Sealer struct {
	identity  *age.X25519Identity
	recipient *age.X25519Recipient
}

// New builds a Sealer around an existing identity.
func New(identity *age.X25519Identity) *Sealer {
	return &Sealer{identity: identity, recipient: identity.Recipient()}
}

// Generate builds a Sealer with a fresh identity. Useful for tests and
// ephemeral stores.
func Generate() (*Sealer, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age identity: %w", err)
	}
	return New(identity), nil
}

// LoadOrCreate reads the identity at path, creating the file with mode 0600
// when it does not exist yet.
func LoadOrCreate(path string) (*Sealer, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		identity, err := age.ParseX25519Identity(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("parsing identity %s: %w", path, err)
		}
		return New(identity), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading identity %s: %w", path, err)
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age identity: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating key directory: %w", err)
		}
	}
	// O_EXCL so two processes racing on first start cannot clobber each other.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("creating identity %s: %w", path, err)
	}
	if _, err := f.WriteString(identity.String() + "\n"); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("writing identity %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing identity %s: %w", path, err)
	}
	return New(identity), nil
}

// Recipient returns the public half of the identity in age1... form.
func (s *Sealer) Recipient() string {
	return s.recipient.String()
}

// Seal encrypts plaintext to the device identity.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, s.recipient)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing age encryption: %w", err)
	}
	return buf.Bytes(), nil
}

// Open decrypts a record produced by Seal.
func (s *Sealer) Open(ciphertext []byte) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(ciphertext), s.identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted plaintext: %w", err)
	}
	return plaintext, nil
}
