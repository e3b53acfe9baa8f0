// Package credential implements the stored-credential codec: a one-way
// transform from a plaintext password to a salted, verifiable stored string.
//
// The stored format is "derivedKeyHex.saltHex". The derived key is produced
// by scrypt with the package parameters below. Changing any of the parameters
// invalidates every previously stored credential, so a parameter change
// requires a credential migration for existing users.
package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/go-playground/errors/v5"
	"golang.org/x/crypto/scrypt"
)

const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1

	keyLen  = 64
	saltLen = 16

	separator = "."
)

// dummyStored is a well-formed stored value that matches no password.
// DummyVerify runs a full derivation against it so a login attempt for an
// unknown username costs the same as a wrong password.
var dummyStored = strings.Repeat("00", keyLen) + separator + strings.Repeat("00", saltLen)

// Hash derives a stored credential from plaintext using a fresh random salt.
// The same plaintext hashed twice yields different stored values.
func Hash(plaintext string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "rand.Read()")
	}

	key, err := scrypt.Key([]byte(plaintext), salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return "", errors.Wrap(err, "scrypt.Key()")
	}

	return hex.EncodeToString(key) + separator + hex.EncodeToString(salt), nil
}

// Verify reports whether plaintext matches the stored credential. Malformed
// stored values (missing separator, bad hex, wrong lengths) fail closed and
// return false; Verify never panics.
func Verify(plaintext, stored string) bool {
	keyHex, saltHex, found := strings.Cut(stored, separator)
	if !found {
		return false
	}

	storedKey, err := hex.DecodeString(keyHex)
	if err != nil || len(storedKey) != keyLen {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) != saltLen {
		return false
	}

	key, err := scrypt.Key([]byte(plaintext), salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(key, storedKey) == 1
}

// DummyVerify performs a full derivation against a throwaway credential so
// callers can equalize the timing of unknown-username and wrong-password
// login failures.
func DummyVerify(plaintext string) {
	Verify(plaintext, dummyStored)
}
