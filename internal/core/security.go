// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

// tempPasswordBytes yields a 12 character hex password.
const tempPasswordBytes = 6

var errMalformedHash = errors.New("malformed password hash")

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

var currentArgon = argonParams{
	memory:  64 * 1024,
	time:    1,
	threads: 4,
	keyLen:  32,
}

func (p argonParams) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
}

// encode renders the PHC string form: $argon2id$v=19$m=..,t=..,p=..$salt$key
func (p argonParams) encode(salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func parseArgonHash(encoded string) (argonParams, []byte, []byte, error) {
	var p argonParams

	fields := strings.Split(strings.TrimPrefix(encoded, "$"), "$")
	if len(fields) != 5 || fields[0] != "argon2id" {
		return p, nil, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(
		fields[1]+" "+fields[2],
		"v=%d m=%d,t=%d,p=%d",
		&version, &p.memory, &p.time, &p.threads,
	); err != nil {
		return p, nil, nil, fmt.Errorf("%w: %w", errMalformedHash, err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	salt, err := base64.RawStdEncoding.DecodeString(fields[3])
	if err != nil {
		return p, nil, nil, fmt.Errorf("decode salt: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(fields[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("decode key: %w", err)
	}

	//nolint:gosec // G115: key length is a few dozen bytes
	p.keyLen = uint32(len(key))
	return p, salt, key, nil
}

func HashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	return currentArgon.encode(salt, currentArgon.derive(password, salt)), nil
}

func VerifyPassword(password, encoded string) (bool, error) {
	params, salt, key, err := parseArgonHash(encoded)
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare(key, params.derive(password, salt)) == 1, nil
}

var placeholderHash = sync.OnceValue(func() string {
	hash, err := HashPassword("placeholder")
	if err != nil {
		panic(fmt.Sprintf("security: placeholder hash: %v", err))
	}
	return hash
})

// MatchPassword verifies password against encoded. An empty encoded hash
// (unknown account) is checked against a placeholder so both paths cost
// one argon2 derivation, and always fails. When the stored hash uses
// outdated parameters and the password matches, upgraded carries a fresh
// hash for the caller to persist.
func MatchPassword(password, encoded string) (ok bool, upgraded string, err error) {
	if encoded == "" {
		_, _ = VerifyPassword(password, placeholderHash())
		return false, "", nil
	}

	params, _, _, err := parseArgonHash(encoded)
	if err != nil {
		return false, "", err
	}

	ok, err = VerifyPassword(password, encoded)
	if err != nil || !ok {
		return false, "", err
	}

	if params != currentArgon {
		// a failed upgrade still lets the login through
		upgraded, _ = HashPassword(password)
	}
	return true, upgraded, nil
}

func GenerateSecureToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

// GenerateTempPassword returns a short hex password for provisioning and
// reset mails. It stays valid until its expiry window closes or the
// holder changes it.
func GenerateTempPassword() (string, error) {
	buf := make([]byte, tempPasswordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate temp password: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashToken is the at-rest form of refresh tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
