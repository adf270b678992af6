package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/admissions-dev/admissions/internal/models"
	"github.com/admissions-dev/admissions/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() *gin.Context {
	gin.SetMode(gin.TestMode)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	return ctx
}

func TestGetCurrentUser(t *testing.T) {
	ctx := newContext()

	_, err := GetCurrentUser(ctx)
	assert.Error(t, err)

	ctx.Set(types.ContextUserKey, "not-a-user")
	_, err = GetCurrentUser(ctx)
	assert.Error(t, err)

	want := &models.User{Email: "a@x.com"}
	ctx.Set(types.ContextUserKey, want)
	got, err := GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestGetApplicationUUID(t *testing.T) {
	ctx := newContext()

	_, err := GetApplicationUUID(ctx)
	assert.Error(t, err)

	ctx.Params = gin.Params{{Key: "uuid", Value: "not-a-uuid"}}
	_, err = GetApplicationUUID(ctx)
	assert.Error(t, err)

	ctx.Params = gin.Params{{Key: "uuid", Value: "3F1C2B7E-8D4A-4C61-9A0E-2B5F6C7D8E9F"}}
	got, err := GetApplicationUUID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3f1c2b7e-8d4a-4c61-9a0e-2b5f6c7d8e9f", got)
}
