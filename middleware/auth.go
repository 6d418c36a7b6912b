package middleware

import (
	"loyaltystay/response"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
)

// TokenParser resolves a bearer token to a user id and role.
type TokenParser interface {
	GetUserIDFromToken(tokenString string) (uint, int, error)
}

// AuthMiddleware rejects requests without a valid token. When roles are
// given the token's role must be one of them.
func AuthMiddleware(tokens TokenParser, roles ...int) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		userID, userRole, err := tokens.GetUserIDFromToken(authHeader)
		if err != nil {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		if len(roles) > 0 && !hasRole(userRole, roles) {
			response.Forbidden(c)
			c.Abort()
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxUserRole, userRole)
		c.Next()
	}
}

// OptionalAuth reads the token when one is sent. Guests booking without an
// account pass through with no user.
func OptionalAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			userID, userRole, err := tokens.GetUserIDFromToken(authHeader)
			if err != nil {
				response.Unauthorized(c)
				c.Abort()
				return
			}
			c.Set(ctxUserID, userID)
			c.Set(ctxUserRole, userRole)
		}
		c.Next()
	}
}

func hasRole(role int, roles []int) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// UserID returns the authenticated user, or 0.
func UserID(c *gin.Context) uint {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0
	}
	id, _ := v.(uint)
	return id
}

// UserRole returns the authenticated role and whether there is one.
func UserRole(c *gin.Context) (int, bool) {
	v, ok := c.Get(ctxUserRole)
	if !ok {
		return 0, false
	}
	role, ok := v.(int)
	return role, ok
}
