package handlers

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/admissions-dev/admissions/internal/apperrors"
	"github.com/admissions-dev/admissions/internal/auth"
	"github.com/admissions-dev/admissions/internal/models"
	"github.com/admissions-dev/admissions/internal/monitors"
	"github.com/admissions-dev/admissions/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type UserService interface {
	CreateUser(ctx context.Context, email, fullName, program, password string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type AdmissionService interface {
	SubmitApplication(ctx context.Context, owner *models.User, fields models.ApplicationFields, docs services.Documents) (*models.Application, error)
	GetApplication(ctx context.Context, uuid string, requester *models.User) (*models.Application, error)
	ListApplications(ctx context.Context, owner *models.User) ([]models.Application, error)
}

type Options struct {
	Users          UserService
	Admissions     AdmissionService
	Tokens         *auth.TokenIssuer
	Logger         *zap.Logger
	MaxUploadBytes int64
	Probes         []monitors.Probe
}

type Handler struct {
	users          UserService
	admissions     AdmissionService
	tokens         *auth.TokenIssuer
	logger         *zap.Logger
	maxUploadBytes int64
	probes         []monitors.Probe
}

var registerTagNames sync.Once

func New(opts Options) *Handler {
	registerTagNames.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(requestFieldName)
		}
	})

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Handler{
		users:          opts.Users,
		admissions:     opts.Admissions,
		tokens:         opts.Tokens,
		logger:         logger.Named("http"),
		maxUploadBytes: opts.MaxUploadBytes,
		probes:         opts.Probes,
	}
}

// requestFieldName names request fields by their json or form tag.
func requestFieldName(field reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}

func (h *Handler) respondError(ctx *gin.Context, err error) {
	var appErr *apperrors.Error

	if !errors.As(err, &appErr) || appErr.Code == apperrors.CodeInternal {
		h.logger.Error("request failed",
			zap.String("method", ctx.Request.Method),
			zap.String("route", ctx.FullPath()),
			zap.Error(err),
		)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	body := gin.H{"error": appErr.Message}
	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}

	if appErr.Code == apperrors.CodeUnauthorized {
		ctx.Header("WWW-Authenticate", "Bearer")
	}

	ctx.JSON(apperrors.HTTPStatus(appErr.Code), body)
}

// respondBindError reports a request that could not be decoded or failed
// its binding rules.
func (h *Handler) respondBindError(ctx *gin.Context, err error) {
	var verrs validator.ValidationErrors

	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		h.respondError(ctx, apperrors.Validation("Invalid request", fields))
		return
	}

	h.logger.Debug("failed to bind request", zap.Error(err))
	ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
}
