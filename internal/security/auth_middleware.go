package security

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dataframe-gateway/pkg/response"
)

// DefaultOrgID scopes sources created by requests that carry no organization
const DefaultOrgID = "default"

// Context keys set by the authentication middleware
const (
	contextClaims   = "user_claims"
	contextUserID   = "user_id"
	contextUsername = "username"
	contextOrgID    = "org_id"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	jwtManager *JWTManager
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtManager *JWTManager) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
	}
}

// RequireAuth creates a middleware that requires authentication
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := am.jwtManager.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.UnauthorizedResponse(
				err.Error(),
				c.GetString("correlation_id"),
			))
			return
		}

		claims, err := am.jwtManager.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.UnauthorizedResponse(
				"Invalid or expired token",
				c.GetString("correlation_id"),
			))
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth stores claims when a valid token is present and continues either way
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := am.jwtManager.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if err == nil {
			if claims, err := am.jwtManager.ValidateToken(token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// RequireRole creates a middleware that requires one of the given roles.
// It must run after RequireAuth.
func (am *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetUserClaims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.UnauthorizedResponse(
				"User claims not found",
				c.GetString("correlation_id"),
			))
			return
		}

		if !claims.HasAnyRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ForbiddenResponse(
				"Insufficient permissions",
				c.GetString("correlation_id"),
			))
			return
		}

		c.Next()
	}
}

func setClaims(c *gin.Context, claims *Claims) {
	c.Set(contextClaims, claims)
	c.Set(contextUserID, claims.UserID)
	c.Set(contextUsername, claims.Username)
	c.Set(contextOrgID, claims.OrgID)
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	id := c.GetString(contextUserID)
	return id, id != ""
}

// GetOrgID returns the caller's organization, or DefaultOrgID
func GetOrgID(c *gin.Context) string {
	if org := c.GetString(contextOrgID); org != "" {
		return org
	}
	return DefaultOrgID
}

// GetUserClaims extracts user claims from context
func GetUserClaims(c *gin.Context) (*Claims, bool) {
	claims, exists := c.Get(contextClaims)
	if !exists {
		return nil, false
	}
	userClaims, ok := claims.(*Claims)
	return userClaims, ok
}

// IsAuthenticated checks if user is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get(contextClaims)
	return exists
}
