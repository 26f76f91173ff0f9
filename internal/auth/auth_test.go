package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/filesvc/internal/auth"
)

const testKeyID = "test-key"

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func publicPEM(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func jwksJSON(pub *rsa.PublicKey) json.RawMessage {
	data, _ := json.Marshal(map[string]any{
		"keys": []map[string]any{{
			"kty": "RSA",
			"kid": testKeyID,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
	return data
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	token.Header["kid"] = testKeyID
	s, err := token.SignedString(key)
	require.NoError(t, err)
	return s
}

func baseClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "user-1",
		"email": "user@example.com",
		"roles": []string{"member"},
		"iss":   "https://issuer.test",
		"exp":   jwt.NewNumericDate(time.Now().Add(time.Hour)),
		"iat":   jwt.NewNumericDate(time.Now()),
	}
}

func TestVerifier_RS256PEM(t *testing.T) {
	t.Parallel()

	key := generateKey(t)
	v, err := auth.NewVerifier(context.Background(), auth.Config{
		PublicKeyPEM: publicPEM(t, key),
		Issuer:       "https://issuer.test",
	}, nil)
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), sign(t, jwt.SigningMethodRS256, key, baseClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, "user@example.com", id.Email)
	assert.Equal(t, []string{"member"}, id.Roles)

	t.Run("wrong key", func(t *testing.T) {
		other := generateKey(t)
		_, err := v.Verify(context.Background(), sign(t, jwt.SigningMethodRS256, other, baseClaims()))
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		c := baseClaims()
		c["iss"] = "https://evil.test"
		_, err := v.Verify(context.Background(), sign(t, jwt.SigningMethodRS256, key, c))
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		c := baseClaims()
		c["exp"] = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		_, err := v.Verify(context.Background(), sign(t, jwt.SigningMethodRS256, key, c))
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("no expiry", func(t *testing.T) {
		c := baseClaims()
		delete(c, "exp")
		_, err := v.Verify(context.Background(), sign(t, jwt.SigningMethodRS256, key, c))
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("hmac token rejected", func(t *testing.T) {
		_, err := v.Verify(context.Background(), sign(t, jwt.SigningMethodHS256, []byte("secret"), baseClaims()))
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("no subject", func(t *testing.T) {
		c := baseClaims()
		delete(c, "sub")
		_, err := v.Verify(context.Background(), sign(t, jwt.SigningMethodRS256, key, c))
		assert.ErrorIs(t, err, auth.ErrMissingSubject)
	})
}

func TestVerifier_EscapedPEM(t *testing.T) {
	t.Parallel()

	key := generateKey(t)
	escaped := ""
	for _, r := range publicPEM(t, key) {
		if r == '\n' {
			escaped += `\n`
			continue
		}
		escaped += string(r)
	}
	_, err := auth.NewVerifier(context.Background(), auth.Config{PublicKeyPEM: escaped}, nil)
	assert.NoError(t, err)

	_, err = auth.NewVerifier(context.Background(), auth.Config{PublicKeyPEM: "not a key"}, nil)
	assert.ErrorIs(t, err, auth.ErrInvalidKey)
}

func TestVerifier_HS256(t *testing.T) {
	t.Parallel()

	v, err := auth.NewVerifier(context.Background(), auth.Config{Secret: "s3cret"}, nil)
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), sign(t, jwt.SigningMethodHS256, []byte("s3cret"), baseClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)

	_, err = v.Verify(context.Background(), sign(t, jwt.SigningMethodHS256, []byte("other"), baseClaims()))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, auth.ErrMissingToken)
}

func TestVerifier_JWKS(t *testing.T) {
	t.Parallel()

	key := generateKey(t)
	kf, err := keyfunc.NewJWKSetJSON(jwksJSON(&key.PublicKey))
	require.NoError(t, err)
	v := auth.NewVerifierWithKeyfunc(kf, "", time.Minute)

	c := baseClaims()
	c["roles"] = []string{"admin"}
	c["realm_access"] = map[string]any{"roles": []string{"moderator", "admin"}}

	id, err := v.Verify(context.Background(), sign(t, jwt.SigningMethodRS256, key, c))
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "moderator"}, id.Roles)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	_, err := auth.NewVerifier(context.Background(), auth.Config{}, nil)
	assert.ErrorIs(t, err, auth.ErrInvalidConfig)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{"Bearer abc", "abc", nil},
		{"bearer  abc ", "abc", nil},
		{"", "", auth.ErrMissingToken},
		{"Basic abc", "", auth.ErrMalformedToken},
		{"Bearer", "", auth.ErrMalformedToken},
		{"Bearer ", "", auth.ErrMalformedToken},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := auth.BearerToken(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanDelete(t *testing.T) {
	t.Parallel()

	assert.True(t, auth.CanDelete("u1", "u1", nil))
	assert.False(t, auth.CanDelete("u2", "u1", nil))
	assert.False(t, auth.CanDelete("u2", "u1", []string{"member"}))
	assert.True(t, auth.CanDelete("u2", "u1", []string{"moderator"}))
	assert.True(t, auth.CanDelete("u2", "u1", []string{"member", "admin"}))
	assert.False(t, auth.CanDelete("", "", nil), "empty ids never match")
}

func TestIdentityContext(t *testing.T) {
	t.Parallel()

	_, ok := auth.FromContext(context.Background())
	assert.False(t, ok)

	ctx := auth.WithIdentity(context.Background(), auth.Identity{UserID: "u1"})
	id, ok := auth.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", id.UserID)
}
