package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const keySize = 32

// Keys are the secrets derived from the configured session secret.
type Keys struct {
	// Signing signs the user_details cookie.
	Signing []byte
	// CSRF authenticates CSRF tokens.
	CSRF []byte
}

// DeriveKeys expands secret into independent signing and CSRF keys using HKDF-SHA256.
func DeriveKeys(secret string) (Keys, error) {
	if secret == "" {
		return Keys{}, errors.New("session secret is empty")
	}
	signing, err := expand(secret, "voyager-admin/session-signing")
	if err != nil {
		return Keys{}, err
	}
	csrfKey, err := expand(secret, "voyager-admin/csrf")
	if err != nil {
		return Keys{}, err
	}
	return Keys{Signing: signing, CSRF: csrfKey}, nil
}

func expand(secret, info string) ([]byte, error) {
	key := make([]byte, keySize)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return key, nil
}
