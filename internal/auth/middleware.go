package auth

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware for downstream handlers.
const (
	ctxUserID    = "user_id"
	ctxUserEmail = "user_email"
	ctxUserRole  = "user_role"
)

func unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
	c.Abort()
}

// bearerToken extracts the token from an Authorization header value. The
// second return is the rejection message when extraction fails.
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "Authorization header required"
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || strings.TrimSpace(scheme) != "Bearer" {
		return "", "Invalid authorization header format"
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", "Token is empty"
	}

	return token, ""
}

func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, msg := bearerToken(c.GetHeader("Authorization"))
		if msg != "" {
			unauthorized(c, msg)
			return
		}

		claims, err := ValidateToken(token, accessTokenSecret)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				unauthorized(c, "Token expired")
			case errors.Is(err, ErrInvalidTokenType):
				unauthorized(c, "Invalid token type")
			default:
				unauthorized(c, "Invalid or malformed token")
			}
			return
		}

		// Refresh tokens never open API routes.
		if claims.TokenType != typeAccess {
			unauthorized(c, "Access token required")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserEmail, claims.Email)
		c.Set(ctxUserRole, claims.Role)

		c.Next()
	}
}

// RequireRole admits requests whose user holds any of the given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			unauthorized(c, "User role not found")
			return
		}

		if !slices.Contains(roles, role) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func GetUserID(c *gin.Context) (string, bool) {
	id := c.GetString(ctxUserID)
	return id, id != ""
}

func GetUserRole(c *gin.Context) (string, bool) {
	role := c.GetString(ctxUserRole)
	return role, role != ""
}
