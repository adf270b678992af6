package utils

import (
	"fmt"

	"github.com/admissions-dev/admissions/internal/models"
	"github.com/admissions-dev/admissions/internal/types"
	"github.com/gin-gonic/gin"
)

func GetCurrentUser(ctx *gin.Context) (*models.User, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return nil, fmt.Errorf("user not authenticated")
	}

	authenticatedUser, ok := user.(*models.User)

	if !ok || authenticatedUser == nil {
		return nil, fmt.Errorf("invalid user type in context")
	}

	return authenticatedUser, nil
}
