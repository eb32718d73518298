package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const saltBytes = 16

// Argon2Params tunes the argon2id key derivation.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// DefaultArgon2Params are the production settings: one pass over 64 MiB.
var DefaultArgon2Params = Argon2Params{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32}

// Credentials hashes and verifies passwords with a per-user salt.
type Credentials struct {
	params Argon2Params
	random io.Reader
}

// NewCredentials returns a Credentials engine. Zero params fall back to
// DefaultArgon2Params and a nil random source to crypto/rand.
func NewCredentials(params Argon2Params, random io.Reader) *Credentials {
	if params == (Argon2Params{}) {
		params = DefaultArgon2Params
	}
	if random == nil {
		random = rand.Reader
	}
	return &Credentials{params: params, random: random}
}

// GenerateSalt returns a fresh random salt encoded as printable text.
func (c *Credentials) GenerateSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := io.ReadFull(c.random, b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(b), nil
}

// Hash derives the hex-encoded argon2id digest of secret under salt.
func (c *Credentials) Hash(secret, salt string) string {
	key := argon2.IDKey([]byte(secret), []byte(salt), c.params.Time, c.params.Memory, c.params.Threads, c.params.KeyLen)
	return hex.EncodeToString(key)
}

// Verify recomputes the digest for candidate and compares it in constant time.
func (c *Credentials) Verify(candidate, salt, expectedHash string) bool {
	got := c.Hash(candidate, salt)
	return subtle.ConstantTimeCompare([]byte(got), []byte(expectedHash)) == 1
}
