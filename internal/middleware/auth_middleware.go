package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/smarttransit/route-planner/pkg/jwt"
)

// OperatorContextKey is the key used to store the authenticated operator in Gin context
const OperatorContextKey = "operator"

// OperatorContext represents the authenticated operator's information
type OperatorContext struct {
	*jwt.Claims
}

// AuthMiddleware creates a middleware that validates JWT tokens
func AuthMiddleware(jwtService *jwt.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry := logger.WithFields(logrus.Fields{
			"path": c.Request.URL.Path,
			"ip":   c.ClientIP(),
		})

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			entry.Warn("AUTH FAILED: Missing authorization header")
			abort(c, http.StatusUnauthorized, "unauthorized", "Authorization header is required", "MISSING_AUTH_HEADER")
			return
		}

		// Check Bearer token format
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			entry.Warn("AUTH FAILED: Invalid auth format")
			abort(c, http.StatusUnauthorized, "unauthorized",
				"Invalid authorization header format. Expected: Bearer <token>", "INVALID_AUTH_FORMAT")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			entry.Warn("AUTH FAILED: Empty token")
			abort(c, http.StatusUnauthorized, "unauthorized", "Token cannot be empty", "INVALID_AUTH_FORMAT")
			return
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			if jwt.IsExpired(err) {
				entry.WithError(err).Warn("AUTH FAILED: Token expired")
				abort(c, http.StatusUnauthorized, "token_expired", "Token has expired", "TOKEN_EXPIRED")
			} else {
				entry.WithError(err).Warn("AUTH FAILED: Invalid token")
				abort(c, http.StatusUnauthorized, "invalid_token", "Invalid token", "INVALID_TOKEN")
			}
			return
		}

		c.Set(OperatorContextKey, OperatorContext{Claims: claims})

		c.Next()
	}
}

// RequireRole creates a middleware that checks if the operator has one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator, exists := GetOperatorContext(c)
		if !exists {
			abort(c, http.StatusUnauthorized, "unauthorized",
				"Operator context not found. Auth middleware may not be applied.", "MISSING_USER_CONTEXT")
			return
		}

		for _, role := range roles {
			if operator.HasRole(role) {
				c.Next()
				return
			}
		}

		abort(c, http.StatusForbidden, "forbidden",
			"You don't have permission to access this resource", "INSUFFICIENT_PERMISSIONS")
	}
}

// GetOperatorContext retrieves the operator context from Gin context
func GetOperatorContext(c *gin.Context) (OperatorContext, bool) {
	value, exists := c.Get(OperatorContextKey)
	if !exists {
		return OperatorContext{}, false
	}

	operator, ok := value.(OperatorContext)
	if !ok || operator.Claims == nil {
		return OperatorContext{}, false
	}

	return operator, true
}

func abort(c *gin.Context, status int, errType, message, code string) {
	c.JSON(status, gin.H{
		"error":   errType,
		"message": message,
		"code":    code,
	})
	c.Abort()
}
