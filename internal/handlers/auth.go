package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/admissions-dev/admissions/internal/apperrors"
	"github.com/admissions-dev/admissions/internal/auth"
	"github.com/admissions-dev/admissions/internal/metrics"
	"github.com/admissions-dev/admissions/internal/types"
	"github.com/admissions-dev/admissions/internal/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const invalidCredentials = "Incorrect email or password"

type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Program  string `json:"program" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest accepts the OAuth2 password form (username, password) or a
// JSON body (email, password).
type LoginRequest struct {
	Email    string `form:"username" json:"email" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

var (
	dummyDigestOnce sync.Once
	dummyDigest     string
)

// equalizeLoginTiming spends a bcrypt comparison when the email is unknown
// so both failure paths cost the same.
func equalizeLoginTiming(password string) {
	dummyDigestOnce.Do(func() {
		dummyDigest, _ = auth.HashPassword("admissions-timing-placeholder")
	})
	auth.VerifyPassword(password, dummyDigest)
}

func (h *Handler) CreateUser(ctx *gin.Context) {
	var req CreateUserRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.respondBindError(ctx, err)
		return
	}

	user, err := h.users.CreateUser(
		ctx.Request.Context(),
		strings.TrimSpace(req.Email),
		strings.TrimSpace(req.FullName),
		strings.TrimSpace(req.Program),
		req.Password,
	)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	h.logger.Info("user registered", zap.String("user_uuid", user.UUID))

	ctx.JSON(http.StatusCreated, types.NewUserResponse(user))
}

func (h *Handler) Login(ctx *gin.Context) {
	var req LoginRequest

	if err := ctx.ShouldBind(&req); err != nil {
		h.respondBindError(ctx, err)
		return
	}

	user, err := h.users.FindByEmail(ctx.Request.Context(), strings.TrimSpace(req.Email))

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	if user == nil {
		equalizeLoginTiming(req.Password)
	}

	if user == nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		metrics.LoginAttempts.WithLabelValues(metrics.LoginFailure).Inc()
		h.respondError(ctx, apperrors.Unauthorized(invalidCredentials))
		return
	}

	token, expiresAt, err := h.tokens.IssueToken(auth.Claims{Subject: user.UUID, Email: user.Email})

	if err != nil {
		h.respondError(ctx, apperrors.Internal("Failed to issue token", err))
		return
	}

	response := types.TokenResponse{
		AccessToken: token,
		TokenType:   auth.TokenType,
		ExpiresAt:   expiresAt,
		User:        types.NewUserSummary(user),
	}

	if includeApplications(ctx) {
		apps, err := h.admissions.ListApplications(ctx.Request.Context(), user)

		if err != nil {
			h.respondError(ctx, err)
			return
		}

		response.Applications = make([]types.ApplicationResponse, 0, len(apps))
		for i := range apps {
			response.Applications = append(response.Applications, types.NewApplicationResponse(&apps[i]))
		}
	}

	metrics.LoginAttempts.WithLabelValues(metrics.LoginSuccess).Inc()

	ctx.JSON(http.StatusOK, response)
}

func includeApplications(ctx *gin.Context) bool {
	raw := ctx.Query("include_applications")
	if raw == "" {
		raw = ctx.PostForm("include_applications")
	}
	include, _ := strconv.ParseBool(raw)
	return include
}

func (h *Handler) Me(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		h.respondError(ctx, apperrors.Unauthorized("User not authenticated"))
		return
	}

	ctx.JSON(http.StatusOK, types.NewUserResponse(currentUser))
}
