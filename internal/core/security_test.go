// AngelaMos | 2026
// security_test.go

package core

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$v=19$m=65536,t=1,p=4$")

	ok, err := VerifyPassword("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong horse", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchPassword(t *testing.T) {
	current, err := HashPassword("s3cret")
	require.NoError(t, err)

	weak := argonParams{memory: 8 * 1024, time: 1, threads: 1, keyLen: 32}
	salt := []byte("0123456789abcdef")
	outdated := weak.encode(salt, weak.derive("s3cret", salt))

	tests := []struct {
		name        string
		password    string
		encoded     string
		wantOK      bool
		wantUpgrade bool
		wantErr     bool
	}{
		{"current params", "s3cret", current, true, false, false},
		{"wrong password", "nope", current, false, false, false},
		{"unknown account", "s3cret", "", false, false, false},
		{"outdated params", "s3cret", outdated, true, true, false},
		{"outdated params wrong password", "nope", outdated, false, false, false},
		{"malformed", "s3cret", "$bcrypt$whatever", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, upgraded, err := MatchPassword(tt.password, tt.encoded)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantUpgrade, upgraded != "")

			if upgraded != "" {
				params, _, _, err := parseArgonHash(upgraded)
				require.NoError(t, err)
				assert.Equal(t, currentArgon, params)
			}
		})
	}
}

func TestParseArgonHashRejects(t *testing.T) {
	salt := base64.RawStdEncoding.EncodeToString([]byte("salt"))

	for _, encoded := range []string{
		"",
		"$argon2i$v=19$m=65536,t=1,p=4$" + salt + "$" + salt,
		"$argon2id$v=16$m=65536,t=1,p=4$" + salt + "$" + salt,
		"$argon2id$v=19$m=x,t=1,p=4$" + salt + "$" + salt,
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$" + salt,
	} {
		_, _, _, err := parseArgonHash(encoded)
		assert.Error(t, err, encoded)
	}
}

func TestGenerateTempPassword(t *testing.T) {
	a, err := GenerateTempPassword()
	require.NoError(t, err)
	b, err := GenerateTempPassword()
	require.NoError(t, err)

	assert.Len(t, a, 12)
	assert.NotEqual(t, a, b)
}

func TestHashTokenIsStable(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}
