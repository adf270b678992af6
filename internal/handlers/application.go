package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/admissions-dev/admissions/internal/apperrors"
	"github.com/admissions-dev/admissions/internal/models"
	"github.com/admissions-dev/admissions/internal/services"
	"github.com/admissions-dev/admissions/internal/types"
	"github.com/admissions-dev/admissions/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

// Multipart field names of the uploaded documents.
const (
	FilePassportPhoto       = "passport_photo"
	FileTranscript          = "transcript"
	FileCertificate         = "certificate"
	FileStatementOfPurpose  = "statement_of_purpose"
	FilePaymentReceipt      = "payment_receipt"
	FileOtherQualifications = "other_qualifications"
)

// UploadApplication creates or replaces the caller's application. Any uuid
// sent by the client is ignored; the application is always the caller's own.
func (h *Handler) UploadApplication(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		h.respondError(ctx, apperrors.Unauthorized("User not authenticated"))
		return
	}

	if h.maxUploadBytes > 0 {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, h.maxUploadBytes)
	}

	form, err := ctx.MultipartForm()

	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload too large"})
			return
		}
		h.respondBindError(ctx, err)
		return
	}

	defer func() {
		if err := form.RemoveAll(); err != nil {
			h.logger.Warn("failed to remove multipart temp files", zap.Error(err))
		}
	}()

	var fields models.ApplicationFields

	if err := binding.MapFormWithTag(&fields, form.Value, "form"); err != nil {
		h.respondBindError(ctx, err)
		return
	}

	docs := services.Documents{
		PassportPhoto:       formDocument(form, FilePassportPhoto),
		Transcript:          formDocument(form, FileTranscript),
		Certificate:         formDocument(form, FileCertificate),
		StatementOfPurpose:  formDocument(form, FileStatementOfPurpose),
		PaymentReceipt:      formDocument(form, FilePaymentReceipt),
		OtherQualifications: formDocument(form, FileOtherQualifications),
	}

	app, err := h.admissions.SubmitApplication(ctx.Request.Context(), currentUser, fields, docs)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewApplicationResponse(app))
}

// formDocument returns the first file under name, or nil when none was
// sent.
func formDocument(form *multipart.Form, name string) *services.Document {
	headers := form.File[name]

	if len(headers) == 0 || headers[0] == nil {
		return nil
	}

	header := headers[0]

	return &services.Document{
		Filename: header.Filename,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}

func (h *Handler) GetApplication(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		h.respondError(ctx, apperrors.Unauthorized("User not authenticated"))
		return
	}

	applicationUUID, err := utils.GetApplicationUUID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application UUID"})
		return
	}

	app, err := h.admissions.GetApplication(ctx.Request.Context(), applicationUUID, currentUser)

	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, types.NewApplicationResponse(app))
}
