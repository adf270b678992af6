package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/admissions-dev/admissions/internal/auth"
	"github.com/admissions-dev/admissions/internal/models"
	"github.com/admissions-dev/admissions/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserFinder interface {
	FindByUUID(ctx context.Context, uuid string) (*models.User, error)
}

// AuthMiddleware resolves the bearer token to a stored user and puts it
// in the request context under types.ContextUserKey.
func AuthMiddleware(tokens *auth.TokenIssuer, users UserFinder, log *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")

		if authHeader == "" {
			abortUnauthorized(ctx, "Authorization token is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)

		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			abortUnauthorized(ctx, "Authorization header format must be Bearer {token}")
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimSpace(parts[1]))

		if err != nil {
			abortUnauthorized(ctx, "Invalid or expired token")
			return
		}

		user, err := users.FindByUUID(ctx.Request.Context(), claims.Subject)

		if err != nil {
			log.Error("failed to load token subject", zap.String("user_uuid", claims.Subject), zap.Error(err))
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if user == nil {
			abortUnauthorized(ctx, "User not found")
			return
		}

		ctx.Set(types.ContextUserKey, user)
		ctx.Next()
	}
}

func abortUnauthorized(ctx *gin.Context, message string) {
	ctx.Header("WWW-Authenticate", "Bearer")
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
