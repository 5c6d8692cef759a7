package feed

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuthenticator_SelectsScheme(t *testing.T) {
	auth, err := NewAuthenticator(AuthTypeHMAC, "key", "secret", "", "")
	require.NoError(t, err)
	assert.IsType(t, &HMACAuthenticator{}, auth)

	// Empty auth type defaults to HMAC.
	auth, err = NewAuthenticator("", "key", "secret", "", "")
	require.NoError(t, err)
	assert.IsType(t, &HMACAuthenticator{}, auth)

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})

	auth, err = NewAuthenticator(AuthTypeJWT, "", "", "md/keys/test", string(pemBytes))
	require.NoError(t, err)
	assert.IsType(t, &JWTAuthenticator{}, auth)
}

func TestNewAuthenticator_UnknownType(t *testing.T) {
	_, err := NewAuthenticator("oauth", "", "", "", "")
	assert.Error(t, err)
}

func TestNewAuthenticator_JWTRequiresValidKey(t *testing.T) {
	_, err := NewAuthenticator(AuthTypeJWT, "", "", "md/keys/test", "not a pem block")
	assert.Error(t, err)
}

func TestHMACAuthenticator_SetsHeaders(t *testing.T) {
	auth := NewHMACAuthenticator("key-id", "top-secret")

	req, err := http.NewRequest(http.MethodGet, "https://gateway.example.com/subscribe", nil)
	require.NoError(t, err)

	require.NoError(t, auth.AddAuthHeaders(req, http.MethodGet, "/subscribe", ""))

	assert.Equal(t, "key-id", req.Header.Get("MD-ACCESS-KEY"))
	assert.NotEmpty(t, req.Header.Get("MD-ACCESS-SIGN"))
	assert.NotEmpty(t, req.Header.Get("MD-ACCESS-TIMESTAMP"))
}

func TestComputeHMAC_DeterministicPerSecret(t *testing.T) {
	first := computeHMAC("1700000000GET/subscribe", "secret-a")
	second := computeHMAC("1700000000GET/subscribe", "secret-a")
	other := computeHMAC("1700000000GET/subscribe", "secret-b")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
}

func TestJWTAuthenticator_RejectsBadKey(t *testing.T) {
	_, err := NewJWTAuthenticator("key-name", "not a pem block")
	assert.Error(t, err)
}

func TestJWTAuthenticator_SignsRequests(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})

	auth, err := NewJWTAuthenticator("md/keys/test", string(pemBytes))
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, "https://gateway.example.com/subscribe", nil)
	require.NoError(t, err)

	require.NoError(t, auth.AddAuthHeaders(req, http.MethodGet, "/subscribe", ""))

	header := req.Header.Get("Authorization")
	assert.True(t, strings.HasPrefix(header, "Bearer "), "got %q", header)
	// Compact JWS: header.payload.signature
	assert.Len(t, strings.Split(strings.TrimPrefix(header, "Bearer "), "."), 3)
}
