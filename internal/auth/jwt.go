// AngelaMos | 2026
// jwt.go

package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/solution-ledger/internal/config"
	"github.com/carterperez-dev/solution-ledger/internal/core"
	"github.com/carterperez-dev/solution-ledger/internal/middleware"
)

const (
	claimRole         = "role"
	claimTokenVersion = "token_version"
	claimTempPassword = "tmp_pwd"
	claimType         = "type"
	accessTokenType   = "access"
	refreshTokenBytes = 32
)

// JWTManager signs access tokens with a single ES256 key and publishes its
// public half as a JWKS document.
type JWTManager struct {
	signer   jwk.Key
	verifier jwk.Key
	jwks     jwk.Set
	cfg      config.JWTConfig
	now      func() time.Time
}

func NewJWTManager(cfg config.JWTConfig) (*JWTManager, error) {
	raw, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	key, err := jwk.ParseKey(raw, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return newJWTManager(key, cfg)
}

// NewJWTManagerFromKey builds a manager around an in-memory key.
func NewJWTManagerFromKey(
	key *ecdsa.PrivateKey,
	cfg config.JWTConfig,
) (*JWTManager, error) {
	imported, err := jwk.Import(key)
	if err != nil {
		return nil, fmt.Errorf("import private key: %w", err)
	}

	return newJWTManager(imported, cfg)
}

func newJWTManager(signer jwk.Key, cfg config.JWTConfig) (*JWTManager, error) {
	if err := tagSigningKey(signer); err != nil {
		return nil, err
	}

	verifier, err := signer.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}
	if err := verifier.Set(jwk.KeyUsageKey, "sig"); err != nil {
		return nil, fmt.Errorf("set key usage: %w", err)
	}

	set := jwk.NewSet()
	if err := set.AddKey(verifier); err != nil {
		return nil, fmt.Errorf("add key to set: %w", err)
	}

	return &JWTManager{
		signer:   signer,
		verifier: verifier,
		jwks:     set,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

// tagSigningKey pins the algorithm and assigns a short key id unless the
// key already carries one.
func tagSigningKey(key jwk.Key) error {
	if err := key.Set(jwk.AlgorithmKey, jwa.ES256()); err != nil {
		return fmt.Errorf("set algorithm: %w", err)
	}

	if _, ok := key.KeyID(); ok {
		return nil
	}
	if err := key.Set(jwk.KeyIDKey, uuid.New().String()[:8]); err != nil {
		return fmt.Errorf("set key id: %w", err)
	}
	return nil
}

// GenerateKeyPair writes a fresh P-256 key pair as PEM files. The private
// key is only readable by the owner.
func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	private, err := jwk.Import(raw)
	if err != nil {
		return fmt.Errorf("import private key: %w", err)
	}
	if err := tagSigningKey(private); err != nil {
		return err
	}

	public, err := private.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	if err := writePEM(privateKeyPath, private, 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}
	if err := writePEM(publicKeyPath, public, 0o644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}

	return nil
}

func writePEM(path string, key jwk.Key, mode os.FileMode) error {
	encoded, err := jwk.Pem(key)
	if err != nil {
		return err
	}
	return os.WriteFile(path, encoded, mode)
}

// AccessTokenClaims are the inputs to CreateAccessToken. TempPassword marks
// sessions opened with a mailed password that has not been replaced yet.
type AccessTokenClaims struct {
	UserID       string
	Role         string
	TokenVersion int
	TempPassword bool
}

func (m *JWTManager) AccessTokenTTL() time.Duration {
	return m.cfg.AccessTokenExpire
}

func (m *JWTManager) CreateAccessToken(claims AccessTokenClaims) (string, error) {
	issued := m.now()

	token, err := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(m.cfg.Issuer).
		Audience([]string{m.cfg.Audience}).
		Subject(claims.UserID).
		IssuedAt(issued).
		NotBefore(issued).
		Expiration(issued.Add(m.cfg.AccessTokenExpire)).
		Claim(claimType, accessTokenType).
		Claim(claimRole, claims.Role).
		Claim(claimTokenVersion, claims.TokenVersion).
		Claim(claimTempPassword, claims.TempPassword).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), m.signer))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return string(signed), nil
}

// VerifyAccessToken checks the signature first, then expiry against the
// manager's clock, then issuer and audience. Expiry is reported as
// ErrTokenExpired so clients know to refresh instead of logging in again.
func (m *JWTManager) VerifyAccessToken(
	_ context.Context,
	raw string,
) (*middleware.AccessTokenClaims, error) {
	token, err := jwt.Parse(
		[]byte(raw),
		jwt.WithKey(jwa.ES256(), m.verifier),
		jwt.WithValidate(false),
	)
	if err != nil {
		return nil, invalidToken("signature")
	}

	now := m.now()
	expiresAt, ok := token.Expiration()
	if !ok {
		return nil, invalidToken("missing exp")
	}
	if !now.Before(expiresAt) {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
	}

	if err := jwt.Validate(token,
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithAudience(m.cfg.Audience),
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
	); err != nil {
		return nil, invalidToken("claims")
	}

	var tokenType string
	if err := token.Get(claimType, &tokenType); err != nil || tokenType != accessTokenType {
		return nil, invalidToken("type")
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, invalidToken("missing sub")
	}

	jti, ok := token.JwtID()
	if !ok || jti == "" {
		return nil, invalidToken("missing jti")
	}

	var role string
	if err := token.Get(claimRole, &role); err != nil {
		return nil, invalidToken("missing role")
	}

	// numeric claims come back from JSON as float64
	var version float64
	if err := token.Get(claimTokenVersion, &version); err != nil {
		return nil, invalidToken("missing token_version")
	}

	var temp bool
	_ = token.Get(claimTempPassword, &temp)

	return &middleware.AccessTokenClaims{
		UserID:       subject,
		Role:         role,
		TokenVersion: int(version),
		TempPassword: temp,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func invalidToken(reason string) error {
	return fmt.Errorf("verify token: %s: %w", reason, core.ErrTokenInvalid)
}

func (m *JWTManager) GetJWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		body, err := json.Marshal(m.jwks)
		if err != nil {
			core.InternalServerError(w, fmt.Errorf("encode jwks: %w", err))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		//nolint:errcheck // best-effort response write
		_, _ = w.Write(body)
	}
}

func (m *JWTManager) GetKeyID() string {
	kid, _ := m.signer.KeyID()
	return kid
}

// RefreshTokenData is a freshly minted opaque refresh token. Only Hash is
// persisted; Token goes to the client once.
type RefreshTokenData struct {
	Token     string
	Hash      string
	ExpiresAt time.Time
	FamilyID  string
}

// CreateRefreshToken mints a token in familyID, or in a new family when
// familyID is empty.
func (m *JWTManager) CreateRefreshToken(familyID string) (*RefreshTokenData, error) {
	token, err := core.GenerateSecureToken(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if familyID == "" {
		familyID = uuid.New().String()
	}

	return &RefreshTokenData{
		Token:     token,
		Hash:      core.HashToken(token),
		ExpiresAt: m.now().Add(m.cfg.RefreshTokenExpire),
		FamilyID:  familyID,
	}, nil
}
