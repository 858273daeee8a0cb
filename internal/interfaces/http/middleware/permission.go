package middleware

import (
	"net/http"

	"github.com/dividas/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequirePermission rejects requests whose token does not grant permission
func RequirePermission(permission string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		if !claims.HasPermission(permission) {
			if log != nil {
				log.Warn("Permission denied",
					zap.String("user_id", claims.UserID),
					zap.String("required", permission),
					zap.String("path", c.Request.URL.Path),
				)
			}
			abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "Missing permission "+permission)
			return
		}
		c.Next()
	}
}
