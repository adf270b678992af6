package utils

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetApplicationUUID returns the :uuid path parameter in canonical form.
func GetApplicationUUID(ctx *gin.Context) (string, error) {
	raw := strings.TrimSpace(ctx.Param("uuid"))

	if raw == "" {
		return "", errors.New("application UUID not found")
	}

	parsed, err := uuid.Parse(raw)

	if err != nil {
		return "", errors.New("invalid application UUID")
	}

	return parsed.String(), nil
}
