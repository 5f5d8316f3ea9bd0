package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"

	"messenger-backend/apperror"
)

const (
	aesKeyLen        = 16 // AES-128
	saltLen          = 16
	pbkdf2Iterations = 10
	pbkdf2KeyLen     = 64

	scryptN = 16384
	scryptR = 8
	scryptP = 1
)

// Cipher performs authenticated symmetric encryption of stored text fields.
//
// The nonce is fixed per deployment on purpose: encryption is deterministic,
// so equality lookups against encrypted columns (FindByUserName) work by
// encrypting the search key. The GCM tag still detects any tampering.
type Cipher struct {
	aead  cipher.AEAD
	nonce []byte
}

// NewCipher derives an AES-128 key from the configured secret via scrypt and
// prepares GCM with the configured fixed IV. Both values are required; the
// process must not start without them.
func NewCipher(secret, iv string) (*Cipher, error) {
	if secret == "" || iv == "" {
		return nil, errors.New("missing encryption secret or IV")
	}

	key, err := scrypt.Key([]byte(secret), []byte("salt"), scryptN, scryptR, scryptP, aesKeyLen)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCMWithNonceSize(block, len(iv))
	if err != nil {
		return nil, err
	}

	return &Cipher{aead: aead, nonce: []byte(iv)}, nil
}

// Encrypt encrypts plaintext and returns hex-encoded ciphertext with the
// 16-byte authentication tag appended.
func (c *Cipher) Encrypt(plaintext string) string {
	sealed := c.aead.Seal(nil, c.nonce, []byte(plaintext), nil)
	return hex.EncodeToString(sealed)
}

// Decrypt is the inverse of Encrypt. It fails if the ciphertext is not valid
// hex or the authentication tag does not verify.
func (c *Cipher) Decrypt(ciphertextHex string) (string, error) {
	sealed, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return "", apperror.Wrap(apperror.Decryption, "ciphertext is not valid hex", err)
	}

	plaintext, err := c.aead.Open(nil, c.nonce, sealed, nil)
	if err != nil {
		return "", apperror.Wrap(apperror.Decryption, "ciphertext failed authentication", err)
	}

	return string(plaintext), nil
}

// HashPassword derives a deterministic PBKDF2-SHA512 hash of the password
// with the given salt, hex-encoded. Same inputs always yield the same output.
func HashPassword(password, salt string) string {
	hash := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLen, sha512.New)
	return hex.EncodeToString(hash)
}

// GenerateSalt returns a fixed-length, hex-encoded random salt.
func GenerateSalt() (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	return hex.EncodeToString(salt), nil
}
