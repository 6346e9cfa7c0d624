package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yourusername/culture-king-api/internal/pkg/errors"
)

const (
	testIssuer   = "https://idp.example.com/"
	testAudience = "https://api.culture-king.app"
)

// jwksServer отдает подвижный набор ключей и считает обращения
type jwksServer struct {
	mu    sync.Mutex
	keys  map[string]*rsa.PublicKey
	calls int
}

func (s *jwksServer) setKeys(keys map[string]*rsa.PublicKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = keys
}

func (s *jwksServer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *jwksServer) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	type jwkDoc struct {
		Kty string `json:"kty"`
		Use string `json:"use"`
		Alg string `json:"alg"`
		Kid string `json:"kid"`
		N   string `json:"n"`
		E   string `json:"e"`
	}
	docs := make([]jwkDoc, 0, len(s.keys))
	for kid, pub := range s.keys {
		docs = append(docs, jwkDoc{
			Kty: "RSA",
			Use: "sig",
			Alg: "RS256",
			Kid: kid,
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"keys": docs})
}

func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func mintToken(t *testing.T, key *rsa.PrivateKey, kid, issuer, audience string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":     "auth0|user-1",
		"name":    "Alice",
		"picture": "https://cdn.example.com/alice.png",
		"iss":     issuer,
		"aud":     audience,
		"iat":     time.Now().Add(-time.Minute).Unix(),
		"exp":     time.Now().Add(expiresIn).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func newTestVerifier(t *testing.T, jwksURL string) *IdentityVerifier {
	t.Helper()
	v, err := NewIdentityVerifier(testIssuer, testAudience, jwksURL)
	require.NoError(t, err)
	return v
}

func TestVerify_OK(t *testing.T) {
	key := generateTestKey(t)
	srv := &jwksServer{keys: map[string]*rsa.PublicKey{"kid-1": &key.PublicKey}}
	server := httptest.NewServer(http.HandlerFunc(srv.handler))
	defer server.Close()

	v := newTestVerifier(t, server.URL)

	token := mintToken(t, key, "kid-1", testIssuer, testAudience, time.Hour)

	ident, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "auth0|user-1", ident.Sub)
	assert.Equal(t, "Alice", ident.Name)
	assert.Equal(t, "https://cdn.example.com/alice.png", ident.Picture)

	// Повторная проверка обслуживается из кеша ключей
	_, err = v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, 1, srv.callCount())
}

func TestVerify_WrongIssuer(t *testing.T) {
	key := generateTestKey(t)
	srv := &jwksServer{keys: map[string]*rsa.PublicKey{"kid-1": &key.PublicKey}}
	server := httptest.NewServer(http.HandlerFunc(srv.handler))
	defer server.Close()

	v := newTestVerifier(t, server.URL)

	token := mintToken(t, key, "kid-1", "https://evil.example.com/", testAudience, time.Hour)

	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestVerify_WrongAudience(t *testing.T) {
	key := generateTestKey(t)
	srv := &jwksServer{keys: map[string]*rsa.PublicKey{"kid-1": &key.PublicKey}}
	server := httptest.NewServer(http.HandlerFunc(srv.handler))
	defer server.Close()

	v := newTestVerifier(t, server.URL)

	token := mintToken(t, key, "kid-1", testIssuer, "https://other-api.example.com", time.Hour)

	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestVerify_Expired(t *testing.T) {
	key := generateTestKey(t)
	srv := &jwksServer{keys: map[string]*rsa.PublicKey{"kid-1": &key.PublicKey}}
	server := httptest.NewServer(http.HandlerFunc(srv.handler))
	defer server.Close()

	v := newTestVerifier(t, server.URL)

	token := mintToken(t, key, "kid-1", testIssuer, testAudience, -time.Hour)

	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// Токен, подписанный симметричным алгоритмом, отклоняется еще парсером:
// верификатор принимает только RS256
func TestVerify_HS256Rejected(t *testing.T) {
	key := generateTestKey(t)
	srv := &jwksServer{keys: map[string]*rsa.PublicKey{"kid-1": &key.PublicKey}}
	server := httptest.NewServer(http.HandlerFunc(srv.handler))
	defer server.Close()

	v := newTestVerifier(t, server.URL)

	claims := jwt.MapClaims{
		"sub": "auth0|user-1",
		"iss": testIssuer,
		"aud": testAudience,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	hsToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	hsToken.Header["kid"] = "kid-1"
	signed, err := hsToken.SignedString([]byte("shared-secret"))
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), signed)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	// До JWKS дело не доходит
	assert.Equal(t, 0, srv.callCount())
}

func TestVerify_TamperedSignature(t *testing.T) {
	key := generateTestKey(t)
	otherKey := generateTestKey(t)
	srv := &jwksServer{keys: map[string]*rsa.PublicKey{"kid-1": &key.PublicKey}}
	server := httptest.NewServer(http.HandlerFunc(srv.handler))
	defer server.Close()

	v := newTestVerifier(t, server.URL)

	// kid валиден, но подпись сделана другим ключом
	token := mintToken(t, otherKey, "kid-1", testIssuer, testAudience, time.Hour)

	_, err := v.Verify(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// Ротация ключей провайдером: неизвестный kid вызывает повторную загрузку
// JWKS даже при еще не истекшем кеше
func TestVerify_UnknownKidRefreshesJWKS(t *testing.T) {
	key1 := generateTestKey(t)
	key2 := generateTestKey(t)

	srv := &jwksServer{keys: map[string]*rsa.PublicKey{"kid-1": &key1.PublicKey}}
	server := httptest.NewServer(http.HandlerFunc(srv.handler))
	defer server.Close()

	v := newTestVerifier(t, server.URL)

	_, err := v.Verify(context.Background(), mintToken(t, key1, "kid-1", testIssuer, testAudience, time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, srv.callCount())

	// Провайдер добавил новый ключ
	srv.setKeys(map[string]*rsa.PublicKey{
		"kid-1": &key1.PublicKey,
		"kid-2": &key2.PublicKey,
	})

	ident, err := v.Verify(context.Background(), mintToken(t, key2, "kid-2", testIssuer, testAudience, time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "auth0|user-1", ident.Sub)
	assert.Equal(t, 2, srv.callCount())
}

func TestVerify_EmptyToken(t *testing.T) {
	v := newTestVerifier(t, "https://idp.example.com/jwks.json")

	_, err := v.Verify(context.Background(), "  ")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestParseRSAPublicKey(t *testing.T) {
	key := generateTestKey(t)

	pub, err := parseRSAPublicKey(jwk{
		Kty: "RSA",
		Kid: "kid-1",
		N:   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, pub.N.Cmp(key.PublicKey.N))
	assert.Equal(t, key.PublicKey.E, pub.E)

	_, err = parseRSAPublicKey(jwk{N: "not-base64!!!", E: "AQAB"})
	assert.Error(t, err)
}

func TestParseJWKSMaxAge(t *testing.T) {
	tests := []struct {
		name         string
		cacheControl string
		expected     time.Duration
	}{
		{"обычный max-age", "public, max-age=3600", time.Hour},
		{"только max-age", "max-age=600", 10 * time.Minute},
		{"меньше минуты — поднимается до минуты", "max-age=10", time.Minute},
		{"без max-age", "no-cache, no-store", 0},
		{"пустой заголовок", "", 0},
		{"мусор в значении", "max-age=abc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseJWKSMaxAge(tt.cacheControl))
		})
	}
}
