package middleware

import (
	"context"
	"net/http"

	"github.com/dividas/backend/internal/domain/debt"
	"github.com/dividas/backend/internal/infrastructure/logger"
	"github.com/dividas/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActorKey is the gin context key of the resolved actor
const ActorKey = "actor"

// ActorResolver classifies an authenticated user
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID uuid.UUID) (debt.Actor, error)
}

// ResolveActor resolves the request's actor once from the user's membership.
// It must run after JWT authentication.
func ResolveActor(resolver ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		userID, err := claims.UserUUID()
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeTokenInvalid, "Invalid token")
			return
		}

		ctx := c.Request.Context()
		actor, err := resolver.ResolveActor(ctx, userID)
		if err != nil {
			logger.L(ctx).Error("failed to resolve actor", zap.String("user_id", userID.String()), zap.Error(err))
			abortWithError(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
			return
		}

		if companyID, ok := debt.CompanyOf(actor); ok {
			ctx = logger.WithCompanyID(ctx, companyID.String())
			c.Request = c.Request.WithContext(ctx)
		}
		c.Set(ActorKey, actor)
		c.Next()
	}
}

// GetActor returns the actor resolved for the request
func GetActor(c *gin.Context) (debt.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return nil, false
	}
	actor, ok := v.(debt.Actor)
	return actor, ok
}
