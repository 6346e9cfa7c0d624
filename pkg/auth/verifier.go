// Package auth проверяет токены внешнего identity-провайдера.
// Сервис не выпускает собственных токенов: аутентификация полностью
// делегирована провайдеру, здесь только верификация подписи и claims.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	apperrors "github.com/yourusername/culture-king-api/internal/pkg/errors"
)

// Identity представляет аутентифицированного пользователя,
// как его описывает identity-провайдер.
type Identity struct {
	Sub     string
	Name    string
	Picture string
}

type identityClaims struct {
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// IdentityVerifier проверяет RS256-токены провайдера по его JWKS.
// Ключи кешируются; TTL кеша берется из Cache-Control ответа JWKS.
type IdentityVerifier struct {
	issuer     string
	audience   string
	jwksURL    string
	httpClient *http.Client

	jwksMu     sync.RWMutex
	jwksKeys   map[string]*rsa.PublicKey
	jwksExpiry time.Time
}

// NewIdentityVerifier создает верификатор токенов identity-провайдера
func NewIdentityVerifier(issuer, audience, jwksURL string) (*IdentityVerifier, error) {
	if strings.TrimSpace(jwksURL) == "" {
		return nil, fmt.Errorf("jwks url is required")
	}
	return &IdentityVerifier{
		issuer:     strings.TrimSpace(issuer),
		audience:   strings.TrimSpace(audience),
		jwksURL:    jwksURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Verify проверяет подпись и claims токена и возвращает Identity.
// Любая проблема с токеном возвращается как apperrors.ErrUnauthorized.
func (v *IdentityVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, fmt.Errorf("%w: empty token", apperrors.ErrUnauthorized)
	}

	claims := &identityClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	token, err := parser.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		if strings.TrimSpace(kid) == "" {
			return nil, fmt.Errorf("missing kid header")
		}
		return v.publicKey(ctx, strings.TrimSpace(kid))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}
	if token == nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", apperrors.ErrUnauthorized)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", apperrors.ErrUnauthorized)
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, fmt.Errorf("%w: unexpected issuer", apperrors.ErrUnauthorized)
	}
	if v.audience != "" {
		audOK := false
		for _, aud := range claims.Audience {
			if aud == v.audience {
				audOK = true
				break
			}
		}
		if !audOK {
			return nil, fmt.Errorf("%w: unexpected audience", apperrors.ErrUnauthorized)
		}
	}

	return &Identity{
		Sub:     claims.Subject,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

func (v *IdentityVerifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	now := time.Now()
	v.jwksMu.RLock()
	if key, ok := v.jwksKeys[kid]; ok && now.Before(v.jwksExpiry) {
		v.jwksMu.RUnlock()
		return key, nil
	}
	v.jwksMu.RUnlock()

	if err := v.refreshJWKS(ctx); err != nil {
		return nil, err
	}

	v.jwksMu.RLock()
	defer v.jwksMu.RUnlock()
	key, ok := v.jwksKeys[kid]
	if !ok || key == nil {
		return nil, fmt.Errorf("jwks key not found")
	}
	return key, nil
}

func (v *IdentityVerifier) refreshJWKS(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create jwks request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("jwks status=%d body=%s", resp.StatusCode, string(body))
	}

	var set jwkSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("failed to decode jwks response: %w", err)
	}
	if len(set.Keys) == 0 {
		return fmt.Errorf("empty jwks response")
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if strings.TrimSpace(k.Kid) == "" {
			continue
		}
		if k.Kty != "RSA" {
			continue
		}
		pub, err := parseRSAPublicKey(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return fmt.Errorf("no usable rsa keys in jwks")
	}

	ttl := parseJWKSMaxAge(resp.Header.Get("Cache-Control"))
	if ttl <= 0 {
		ttl = time.Hour
	}

	v.jwksMu.Lock()
	v.jwksKeys = keys
	v.jwksExpiry = time.Now().Add(ttl)
	v.jwksMu.Unlock()
	return nil
}

func parseRSAPublicKey(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}

	n := new(big.Int).SetBytes(nBytes)
	eInt := 0
	for _, b := range eBytes {
		eInt = eInt<<8 + int(b)
	}
	if n.Sign() <= 0 || eInt <= 0 {
		return nil, fmt.Errorf("invalid rsa jwk")
	}

	return &rsa.PublicKey{N: n, E: eInt}, nil
}

func parseJWKSMaxAge(cacheControl string) time.Duration {
	for _, part := range strings.Split(cacheControl, ",") {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(strings.ToLower(part), "max-age=") {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(strings.ToLower(part), "max-age="))
		seconds, err := time.ParseDuration(value + "s")
		if err != nil {
			return 0
		}
		if seconds < time.Minute {
			return time.Minute
		}
		return seconds
	}
	return 0
}
