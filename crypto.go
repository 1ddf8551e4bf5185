package confhall

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	errors "github.com/goliatone/go-errors"
)

const nonceSize = 12

// Cryptographer encrypts the stored email address and provides the
// URL-safe encoding used for credentials embedded in sign-in links.
//
// Encryption is AES-256-GCM with a nonce derived from the plaintext, so
// the same address always produces the same ciphertext under one key.
// That keeps the ciphertext usable as a stored value while Decrypt
// inverts Encrypt exactly.
type Cryptographer struct {
	key  []byte
	aead cipher.AEAD
}

// NewCryptographer derives a 256-bit key from the configured secret.
func NewCryptographer(secret string) (*Cryptographer, error) {
	if secret == "" {
		return nil, errors.New("cipher secret must be provided", errors.CategoryBadInput)
	}

	key := sha256.Sum256([]byte(secret))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to initialize cipher")
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to initialize cipher")
	}

	return &Cryptographer{key: key[:], aead: aead}, nil
}

// Encrypt returns a URL-safe ciphertext for the given plaintext.
func (c *Cryptographer) Encrypt(plaintext string) string {
	nonce := c.deriveNonce([]byte(plaintext))
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed)
}

// Decrypt inverts Encrypt. Malformed input yields ErrDecode, never a
// silent empty string.
func (c *Cryptographer) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil || len(raw) < nonceSize {
		return "", ErrDecode
	}

	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", ErrDecode
	}

	return string(plaintext), nil
}

// EmailHash returns the stable pseudonymous identifier for an address,
// used as the store lookup key. The address is lowercased first.
func (c *Cryptographer) EmailHash(email string) string {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(NormalizeEmail(email)))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Cryptographer) deriveNonce(plaintext []byte) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte("nonce:"))
	mac.Write(plaintext)
	return mac.Sum(nil)[:nonceSize]
}

// EncodeForURL makes a value safe for use as a URL path segment.
// It is a reversible text transform, not a secrecy mechanism.
func EncodeForURL(value string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(value))
}

// DecodeFromURL inverts EncodeForURL. Malformed input yields ErrDecode.
func DecodeFromURL(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrDecode
	}
	return string(raw), nil
}
