package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"
)

// tokenPrefix marks ciphertexts produced with the current key derivation
const tokenPrefix = "v1:"

var ErrNotInitialized = errors.New("encryption key not initialized")

var encryptionKey []byte

// InitializeEncryption derives the AES-256 key used for stored upstream tokens
func InitializeEncryption(passphrase string) {
	sum := sha256.Sum256([]byte(passphrase))
	encryptionKey = sum[:]
}

func newGCM() (cipher.AEAD, error) {
	if len(encryptionKey) == 0 {
		return nil, ErrNotInitialized
	}
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext with AES-GCM and returns "v1:" + base64(nonce|ciphertext)
func Encrypt(plaintext string) (string, error) {
	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return tokenPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt
func Decrypt(encrypted string) (string, error) {
	gcm, err := newGCM()
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(encrypted, tokenPrefix) {
		return "", errors.New("unsupported ciphertext format")
	}

	sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(encrypted, tokenPrefix))
	if err != nil {
		return "", err
	}

	if len(sealed) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}
