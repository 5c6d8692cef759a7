package feed

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthType selects how requests to the market-data gateway are signed.
type AuthType string

const (
	AuthTypeHMAC AuthType = "hmac"
	AuthTypeJWT  AuthType = "jwt"
)

// Authenticator adds gateway credentials to an outbound request.
type Authenticator interface {
	AddAuthHeaders(req *http.Request, method, path, body string) error
}

// NewAuthenticator selects the gateway signing scheme from configuration.
// An empty auth type defaults to HMAC.
func NewAuthenticator(authType AuthType, apiKey, apiSecret, apiKeyName, privateKeyPEM string) (Authenticator, error) {
	switch authType {
	case AuthTypeHMAC, "":
		return NewHMACAuthenticator(apiKey, apiSecret), nil
	case AuthTypeJWT:
		return NewJWTAuthenticator(apiKeyName, privateKeyPEM)
	default:
		return nil, fmt.Errorf("unknown feed auth type %q", authType)
	}
}

// HMACAuthenticator signs requests with a shared key/secret pair.
type HMACAuthenticator struct {
	apiKey    string
	apiSecret string
}

func NewHMACAuthenticator(apiKey, apiSecret string) *HMACAuthenticator {
	return &HMACAuthenticator{apiKey: apiKey, apiSecret: apiSecret}
}

func (a *HMACAuthenticator) AddAuthHeaders(req *http.Request, method, path, body string) error {
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	signature := a.sign(method, path, body, timestamp)

	req.Header.Set("MD-ACCESS-KEY", a.apiKey)
	req.Header.Set("MD-ACCESS-SIGN", signature)
	req.Header.Set("MD-ACCESS-TIMESTAMP", timestamp)

	return nil
}

func (a *HMACAuthenticator) sign(method, path, body, timestamp string) string {
	message := timestamp + method + path + body
	return computeHMAC(message, a.apiSecret)
}

func computeHMAC(message, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// JWTAuthenticator signs requests with a short-lived ES256 bearer token.
type JWTAuthenticator struct {
	apiKeyName string
	privateKey *ecdsa.PrivateKey
}

func NewJWTAuthenticator(apiKeyName, privateKeyPEM string) (*JWTAuthenticator, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("failed to parse PEM block containing the private key")
	}

	privateKey, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		// Try PKCS8 format
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse EC private key: %w", err)
		}
		var ok bool
		privateKey, ok = key.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("not an EC private key")
		}
	}

	return &JWTAuthenticator{
		apiKeyName: apiKeyName,
		privateKey: privateKey,
	}, nil
}

func (a *JWTAuthenticator) AddAuthHeaders(req *http.Request, method, path, body string) error {
	token, err := a.generateJWT(method, req.Host, path)
	if err != nil {
		return fmt.Errorf("failed to generate JWT: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (a *JWTAuthenticator) generateJWT(method, host, path string) (string, error) {
	nonce, err := generateNonce()
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"sub":   a.apiKeyName,
		"nbf":   time.Now().Unix(),
		"exp":   time.Now().Add(2 * time.Minute).Unix(),
		"uri":   method + " " + host + path,
		"nonce": nonce,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = a.apiKeyName
	token.Header["nonce"] = nonce

	tokenString, err := token.SignedString(a.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func generateNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
