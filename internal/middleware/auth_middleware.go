package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/culture-king-api/pkg/auth"
)

// Ключ gin-контекста с аутентифицированным пользователем
const identityContextKey = "identity"

// TokenVerifier проверяет токен identity-провайдера
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*auth.Identity, error)
}

// AuthMiddleware обеспечивает аутентификацию для защищенных маршрутов.
// Токены выпускает внешний identity-провайдер; здесь только проверка.
type AuthMiddleware struct {
	verifier TokenVerifier
}

// NewAuthMiddleware создает новый middleware аутентификации
func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth проверяет, аутентифицирован ли пользователь.
// Неаутентифицированный запрос отклоняется до любого обращения к хранилищу.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "token_missing"})
			c.Abort()
			return
		}

		// Проверяем формат заголовка Bearer {token}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}", "error_type": "token_format"})
			c.Abort()
			return
		}

		ident, err := m.verifier.Verify(c.Request.Context(), parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": "token_invalid"})
			c.Abort()
			return
		}

		c.Set(identityContextKey, ident)
		c.Next()
	}
}

// IdentityFromContext возвращает аутентифицированного пользователя из контекста.
// Второе значение false означает, что RequireAuth не отработал для маршрута.
func IdentityFromContext(c *gin.Context) (*auth.Identity, bool) {
	val, exists := c.Get(identityContextKey)
	if !exists {
		return nil, false
	}
	ident, ok := val.(*auth.Identity)
	return ident, ok
}
