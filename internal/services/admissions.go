package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/admissions-dev/admissions/internal/apperrors"
	"github.com/admissions-dev/admissions/internal/blob"
	"github.com/admissions-dev/admissions/internal/metrics"
	"github.com/admissions-dev/admissions/internal/models"
	"github.com/admissions-dev/admissions/internal/store"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type ApplicationRepository interface {
	FindByUUID(ctx context.Context, uuid string) (*models.Application, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Application, error)
	Upsert(ctx context.Context, app *models.Application, columns []string) (bool, error)
}

type DocumentStore interface {
	Save(applicationUUID, prefix, originalName string, r io.Reader) (string, error)
}

// Document is one uploaded file. Open is called at most once.
type Document struct {
	Filename string
	Open     func() (io.ReadCloser, error)
}

type Documents struct {
	PassportPhoto       *Document
	Transcript          *Document
	Certificate         *Document
	StatementOfPurpose  *Document
	PaymentReceipt      *Document
	OtherQualifications *Document
}

type documentSlot struct {
	field    string
	prefix   string
	column   string
	required bool
	pick     func(*Documents) *Document
	assign   func(*models.Application, string)
}

// documentSlots is written in upload order: required documents first.
var documentSlots = []documentSlot{
	{
		field: "passport_photo", prefix: "passport", column: models.ColumnPassportPhotoPath, required: true,
		pick:   func(d *Documents) *Document { return d.PassportPhoto },
		assign: func(a *models.Application, p string) { a.PassportPhotoPath = p },
	},
	{
		field: "transcript", prefix: "transcript", column: models.ColumnTranscriptPath, required: true,
		pick:   func(d *Documents) *Document { return d.Transcript },
		assign: func(a *models.Application, p string) { a.TranscriptPath = p },
	},
	{
		field: "certificate", prefix: "certificate", column: models.ColumnCertificatePath, required: true,
		pick:   func(d *Documents) *Document { return d.Certificate },
		assign: func(a *models.Application, p string) { a.CertificatePath = p },
	},
	{
		field: "statement_of_purpose", prefix: "sop", column: models.ColumnStatementOfPurposePath, required: true,
		pick:   func(d *Documents) *Document { return d.StatementOfPurpose },
		assign: func(a *models.Application, p string) { a.StatementOfPurposePath = p },
	},
	{
		field: "payment_receipt", prefix: "receipt", column: models.ColumnPaymentReceiptPath, required: true,
		pick:   func(d *Documents) *Document { return d.PaymentReceipt },
		assign: func(a *models.Application, p string) { a.PaymentReceiptPath = p },
	},
	{
		field: "other_qualifications", prefix: "other", column: models.ColumnOtherQualificationsPath,
		pick:   func(d *Documents) *Document { return d.OtherQualifications },
		assign: func(a *models.Application, p string) { a.OtherQualificationsPath = p },
	},
}

var fieldValidator = newFieldValidator()

func newFieldValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

type AdmissionService struct {
	applications ApplicationRepository
	documents    DocumentStore
	logger       *zap.Logger
}

func NewAdmissionService(applications ApplicationRepository, documents DocumentStore, logger *zap.Logger) *AdmissionService {
	return &AdmissionService{
		applications: applications,
		documents:    documents,
		logger:       logger.Named("admissions"),
	}
}

// SubmitApplication creates or updates the single application owned by
// owner. The application is keyed by owner.UUID only. Documents are written
// before the database is touched; a failed write leaves the row as it was.
// A path column is only rewritten when a new file was supplied for it.
func (s *AdmissionService) SubmitApplication(ctx context.Context, owner *models.User, fields models.ApplicationFields, docs Documents) (*models.Application, error) {
	if owner == nil || owner.UUID == "" || owner.ID == 0 {
		return nil, apperrors.Unauthorized("User not authenticated")
	}

	if err := ValidateSubmission(fields, docs); err != nil {
		metrics.ApplicationSubmissions.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, err
	}

	log := s.logger.With(zap.String("application_uuid", owner.UUID), zap.Uint("user_id", owner.ID))

	paths := make(map[string]string, len(documentSlots))
	for _, slot := range documentSlots {
		doc := slot.pick(&docs)
		if doc == nil {
			continue
		}

		path, err := s.saveDocument(owner.UUID, slot, doc)
		if err != nil {
			metrics.ApplicationSubmissions.WithLabelValues(metrics.OutcomeFailed).Inc()
			if apperrors.Is(err, apperrors.CodeValidation) {
				return nil, err
			}
			log.Error("failed to store document", zap.String("document", slot.field), zap.Error(err))
			return nil, apperrors.Internal("Failed to store documents", err)
		}
		paths[slot.column] = path
	}

	columns := append([]string{}, models.ApplicationFieldColumns...)
	for _, slot := range documentSlots {
		if _, ok := paths[slot.column]; ok {
			columns = append(columns, slot.column)
		}
	}

	build := func() *models.Application {
		app := &models.Application{
			UUID:              owner.UUID,
			UserID:            owner.ID,
			ApplicationFields: fields,
		}
		for _, slot := range documentSlots {
			if path, ok := paths[slot.column]; ok {
				slot.assign(app, path)
			}
		}
		return app
	}

	app := build()
	created, err := s.applications.Upsert(ctx, app, columns)
	if errors.Is(err, store.ErrDuplicateKey) {
		// Another request inserted this UUID between our lookup and insert;
		// the row exists now, so the retry takes the update path.
		log.Warn("concurrent application insert, retrying as update")
		app = build()
		created, err = s.applications.Upsert(ctx, app, columns)
		if errors.Is(err, store.ErrDuplicateKey) {
			err = apperrors.Conflict("Application is being modified by another request")
		}
	}
	if err != nil {
		metrics.ApplicationSubmissions.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil, err
	}

	if created {
		metrics.ApplicationSubmissions.WithLabelValues(metrics.OutcomeCreated).Inc()
		log.Info("application created", zap.Uint("application_id", app.ID))
	} else {
		metrics.ApplicationSubmissions.WithLabelValues(metrics.OutcomeUpdated).Inc()
		log.Info("application updated", zap.Uint("application_id", app.ID), zap.Strings("columns", columns))
	}

	return app, nil
}

// GetApplication loads an application by UUID and checks that requester
// owns it. Ownership is compared on the owner's internal id.
func (s *AdmissionService) GetApplication(ctx context.Context, uuid string, requester *models.User) (*models.Application, error) {
	app, err := s.applications.FindByUUID(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, apperrors.NotFound("Application not found")
	}

	if requester == nil || app.UserID != requester.ID {
		s.logger.Warn("application access denied", zap.String("application_uuid", uuid))
		return nil, apperrors.Forbidden("Not enough permissions")
	}

	return app, nil
}

func (s *AdmissionService) ListApplications(ctx context.Context, owner *models.User) ([]models.Application, error) {
	if owner == nil {
		return nil, apperrors.Unauthorized("User not authenticated")
	}
	return s.applications.ListByUser(ctx, owner.ID)
}

// ValidateSubmission checks the payload, the presence of every required
// document and every document's file name. It performs no I/O.
func ValidateSubmission(fields models.ApplicationFields, docs Documents) error {
	problems := map[string]string{}

	if err := fieldValidator.Struct(fields); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return apperrors.Internal("Failed to validate application", err)
		}
		for _, fe := range verrs {
			problems[fe.Field()] = describeRule(fe)
		}
	}

	for _, slot := range documentSlots {
		doc := slot.pick(&docs)
		if doc == nil {
			if slot.required {
				problems[slot.field] = "required"
			}
			continue
		}
		if doc.Open == nil {
			problems[slot.field] = "invalid file"
			continue
		}
		if _, err := blob.SanitizeFilename(doc.Filename); err != nil {
			problems[slot.field] = "invalid file name"
		}
	}

	if len(problems) > 0 {
		return apperrors.Validation("Invalid application", problems)
	}
	return nil
}

func describeRule(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
	}
	return fe.Tag()
}

func (s *AdmissionService) saveDocument(applicationUUID string, slot documentSlot, doc *Document) (string, error) {
	r, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", slot.field, err)
	}
	defer r.Close()

	counter := &countingReader{r: r}
	path, err := s.documents.Save(applicationUUID, slot.prefix, doc.Filename, counter)
	if err != nil {
		return "", err
	}

	metrics.DocumentBytes.WithLabelValues(slot.field).Add(float64(counter.n))
	return path, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
