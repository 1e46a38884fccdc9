// Package crypto seals secrets stored in the bot state document.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"

	"evecorpbot/internal/domain"
)

const (
	keySize    = 32
	nonceSize  = 24
	sealPrefix = "sb1:"
)

var errMalformed = errors.New("malformed sealed value")

type secretboxSealer struct {
	key [keySize]byte
}

// NewSealer returns a TokenSealer for the given base64 key. An empty key
// yields a sealer that stores values in plain text.
func NewSealer(encodedKey string) (domain.TokenSealer, error) {
	if encodedKey == "" {
		return plainSealer{}, nil
	}
	raw, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decode token encryption key: %w", err)
	}
	if len(raw) != keySize {
		return nil, fmt.Errorf("token encryption key must be %d bytes, got %d", keySize, len(raw))
	}
	s := &secretboxSealer{}
	copy(s.key[:], raw)
	return s, nil
}

func (s *secretboxSealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return sealPrefix + base64.RawURLEncoding.EncodeToString(box), nil
}

// Open accepts plain values too, so a key can be introduced on an existing
// state document; they are sealed on the next save.
func (s *secretboxSealer) Open(sealed string) (string, error) {
	encoded, ok := strings.CutPrefix(sealed, sealPrefix)
	if !ok {
		return sealed, nil
	}
	box, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(box) < nonceSize+secretbox.Overhead {
		return "", errMalformed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", errors.New("sealed value failed authentication")
	}
	return string(plain), nil
}

type plainSealer struct{}

func (plainSealer) Seal(plaintext string) (string, error) { return plaintext, nil }

func (plainSealer) Open(sealed string) (string, error) {
	if strings.HasPrefix(sealed, sealPrefix) {
		return "", errors.New("sealed value found but no token encryption key is configured")
	}
	return sealed, nil
}
