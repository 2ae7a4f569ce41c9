package middleware

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/EgehanKilicarslan/blog-api/internal/apperror"
	"github.com/EgehanKilicarslan/blog-api/internal/database/service"
)

// UserIDKey is the gin context key holding the authenticated user's ID
const UserIDKey = "userID"

var (
	errMissingToken   = apperror.Authentication("You are not logged in. Please log in to get access")
	errMalformedToken = apperror.Authentication("Invalid authorization header format")
)

// AuthMiddleware handles bearer token validation
type AuthMiddleware struct {
	service service.AuthService
	logger  *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware instance
func NewAuthMiddleware(service service.AuthService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		service: service,
		logger:  logger,
	}
}

// RequireAuth validates the bearer token and sets userID in context
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := m.authenticate(c)
		if err != nil {
			m.logger.Warn("⚠️ [Middleware] Authentication failed", "path", c.Request.URL.Path, "error", err)
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		m.logger.Debug("✅ [Middleware] Token validated", "user_id", userID)

		c.Next()
	}
}

// OptionalAuth sets userID when a valid token is present and otherwise
// continues as an anonymous request.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if userID, err := m.authenticate(c); err == nil {
				c.Set(UserIDKey, userID)
			} else {
				m.logger.Debug("🔓 [Middleware] Ignoring invalid token on public route", "error", err)
			}
		}

		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context) (uuid.UUID, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return uuid.Nil, errMissingToken
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return uuid.Nil, errMalformedToken
	}

	return m.service.Authenticate(c.Request.Context(), parts[1])
}

// CurrentUserID returns the authenticated user's ID, or uuid.Nil for anonymous requests
func CurrentUserID(c *gin.Context) uuid.UUID {
	if value, exists := c.Get(UserIDKey); exists {
		if userID, ok := value.(uuid.UUID); ok {
			return userID
		}
	}
	return uuid.Nil
}
