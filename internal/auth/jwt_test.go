// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/solution-ledger/internal/config"
	"github.com/carterperez-dev/solution-ledger/internal/core"
)

var testJWTConfig = config.JWTConfig{
	AccessTokenExpire:  15 * time.Minute,
	RefreshTokenExpire: 24 * time.Hour,
	Issuer:             "solution-ledger",
	Audience:           "solution-ledger-api",
}

func newTestJWTManager(t *testing.T, cfg config.JWTConfig) *JWTManager {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	m, err := NewJWTManagerFromKey(key, cfg)
	require.NoError(t, err)
	return m
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestJWTManager(t, testJWTConfig)

	token, err := m.CreateAccessToken(AccessTokenClaims{
		UserID:       "user-1",
		Role:         "admin",
		TokenVersion: 3,
		TempPassword: true,
	})
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.True(t, claims.TempPassword)
	assert.NotEmpty(t, claims.JTI)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt, 5*time.Second)
}

func TestVerifyAccessTokenFailures(t *testing.T) {
	m := newTestJWTManager(t, testJWTConfig)
	other := newTestJWTManager(t, testJWTConfig)

	otherAudience := testJWTConfig
	otherAudience.Audience = "someone-else"
	foreign := newTestJWTManager(t, otherAudience)
	foreign.signer = m.signer

	valid, err := m.CreateAccessToken(AccessTokenClaims{UserID: "u", Role: "user"})
	require.NoError(t, err)

	forged, err := other.CreateAccessToken(AccessTokenClaims{UserID: "u", Role: "user"})
	require.NoError(t, err)

	wrongAudience, err := foreign.CreateAccessToken(AccessTokenClaims{UserID: "u", Role: "user"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-jwt", core.ErrTokenInvalid},
		{"signed by another key", forged, core.ErrTokenInvalid},
		{"wrong audience", wrongAudience, core.ErrTokenInvalid},
		{"truncated", valid[:len(valid)-4], core.ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.VerifyAccessToken(context.Background(), tt.token)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVerifyAccessTokenExpired(t *testing.T) {
	m := newTestJWTManager(t, testJWTConfig)

	token, err := m.CreateAccessToken(AccessTokenClaims{UserID: "u", Role: "user"})
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	_, err = m.VerifyAccessToken(context.Background(), token)
	require.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestCreateRefreshToken(t *testing.T) {
	m := newTestJWTManager(t, testJWTConfig)

	first, err := m.CreateRefreshToken("")
	require.NoError(t, err)
	assert.NotEmpty(t, first.FamilyID)
	assert.Equal(t, core.HashToken(first.Token), first.Hash)

	rotated, err := m.CreateRefreshToken(first.FamilyID)
	require.NoError(t, err)
	assert.Equal(t, first.FamilyID, rotated.FamilyID)
	assert.NotEqual(t, first.Token, rotated.Token)
}

func TestJWKSPublishesSigningKey(t *testing.T) {
	m := newTestJWTManager(t, testJWTConfig)

	rec := httptest.NewRecorder()
	m.GetJWKSHandler()(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Keys []struct {
			Kid string `json:"kid"`
			Use string `json:"use"`
			D   string `json:"d"`
		} `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Len(t, doc.Keys, 1)
	assert.Equal(t, m.GetKeyID(), doc.Keys[0].Kid)
	assert.Equal(t, "sig", doc.Keys[0].Use)
	assert.Empty(t, doc.Keys[0].D)
}

func TestGenerateKeyPairLoads(t *testing.T) {
	dir := t.TempDir()
	privatePath := filepath.Join(dir, "private.pem")
	publicPath := filepath.Join(dir, "public.pem")

	require.NoError(t, GenerateKeyPair(privatePath, publicPath))

	info, err := os.Stat(privatePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg := testJWTConfig
	cfg.PrivateKeyPath = privatePath
	m, err := NewJWTManager(cfg)
	require.NoError(t, err)

	token, err := m.CreateAccessToken(AccessTokenClaims{UserID: "u", Role: "user"})
	require.NoError(t, err)
	_, err = m.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)
}
