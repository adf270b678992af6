package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/admissions-dev/admissions/internal/apperrors"
	"github.com/admissions-dev/admissions/internal/blob"
	"github.com/admissions-dev/admissions/internal/models"
	"github.com/admissions-dev/admissions/internal/store"
	"github.com/admissions-dev/admissions/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	users    *store.UserStore
	service  *AdmissionService
	blobRoot string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := testutil.NewTestDB(t)
	root := t.TempDir()
	return &fixture{
		db:       conn,
		users:    store.NewUserStore(conn),
		service:  NewAdmissionService(store.NewApplicationStore(conn), blob.NewDiskStore(root), zap.NewNop()),
		blobRoot: root,
	}
}

func (f *fixture) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := f.users.CreateUser(context.Background(), email, "Applicant", "Computer Science", "password123")
	require.NoError(t, err)
	return user
}

func (f *fixture) countApplications(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.Application{}).Count(&count).Error)
	return count
}

func validFields() models.ApplicationFields {
	return models.ApplicationFields{
		Nationality:          "Nigerian",
		Address:              "12 Admissions Way",
		DateOfBirth:          "2001-04-12",
		Gender:               "female",
		PhoneNumber:          "+2348000000000",
		AcademicSession:      "2026/2027",
		Program:              "Computer Science",
		ModeOfStudy:          "full_time",
		HighestQualification: "BSc",
		Institution:          "University of Lagos",
		GraduationYear:       "2024",
		Referee1Name:         "Dr. One",
		Referee1Email:        "one@uni.edu",
		Referee2Name:         "Dr. Two",
		Referee2Email:        "two@uni.edu",
	}
}

func doc(name, content string) *Document {
	return &Document{
		Filename: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func requiredDocs() Documents {
	return Documents{
		PassportPhoto:      doc("photo.jpg", "photo"),
		Transcript:         doc("transcript.pdf", "transcript-v1"),
		Certificate:        doc("cert.pdf", "certificate"),
		StatementOfPurpose: doc("sop.txt", "statement"),
		PaymentReceipt:     doc("receipt.pdf", "receipt"),
	}
}

func TestSubmitApplication_CreatesPending(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "a@x.com")

	app, err := f.service.SubmitApplication(context.Background(), owner, validFields(), requiredDocs())
	require.NoError(t, err)

	assert.NotZero(t, app.ID)
	assert.Equal(t, owner.UUID, app.UUID)
	assert.Equal(t, owner.ID, app.UserID)
	assert.Equal(t, models.StatusPending, app.Status)
	assert.False(t, app.CreatedAt.IsZero())
	for _, path := range []string{app.PassportPhotoPath, app.TranscriptPath, app.CertificatePath, app.StatementOfPurposePath, app.PaymentReceiptPath} {
		assert.NotEmpty(t, path)
		assert.True(t, strings.HasPrefix(path, f.blobRoot))
		_, err := os.Stat(path)
		assert.NoError(t, err)
	}
	assert.Empty(t, app.OtherQualificationsPath)
}

func TestSubmitApplication_ResubmitUpdatesInPlace(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "a@x.com")
	ctx := context.Background()

	first, err := f.service.SubmitApplication(ctx, owner, validFields(), requiredDocs())
	require.NoError(t, err)

	fields := validFields()
	fields.Nationality = "Ghanaian"
	docs := requiredDocs()
	docs.Transcript = doc("transcript-final.pdf", "transcript-v2")

	second, err := f.service.SubmitApplication(ctx, owner, fields, docs)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Ghanaian", second.Nationality)
	assert.Equal(t, models.StatusPending, second.Status)
	assert.NotEqual(t, first.TranscriptPath, second.TranscriptPath)
	assert.Equal(t, first.CertificatePath, second.CertificatePath)
	assert.Equal(t, int64(1), f.countApplications(t))

	data, err := os.ReadFile(second.TranscriptPath)
	require.NoError(t, err)
	assert.Equal(t, "transcript-v2", string(data))
}

func TestSubmitApplication_KeepsOptionalPathWhenOmitted(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "a@x.com")
	ctx := context.Background()

	docs := requiredDocs()
	docs.OtherQualifications = doc("extra.pdf", "extra")
	first, err := f.service.SubmitApplication(ctx, owner, validFields(), docs)
	require.NoError(t, err)
	require.NotEmpty(t, first.OtherQualificationsPath)

	second, err := f.service.SubmitApplication(ctx, owner, validFields(), requiredDocs())
	require.NoError(t, err)

	assert.Equal(t, first.OtherQualificationsPath, second.OtherQualificationsPath)
}

func TestSubmitApplication_StatusSurvivesResubmission(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "a@x.com")
	ctx := context.Background()

	first, err := f.service.SubmitApplication(ctx, owner, validFields(), requiredDocs())
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Application{}).Where("id = ?", first.ID).Update("status", models.StatusApproved).Error)

	second, err := f.service.SubmitApplication(ctx, owner, validFields(), requiredDocs())
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, second.Status)
}

func TestSubmitApplication_ValidationBeforeAnyWrite(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "a@x.com")

	docs := requiredDocs()
	docs.PaymentReceipt = nil
	fields := validFields()
	fields.Referee1Email = "not-an-email"

	_, err := f.service.SubmitApplication(context.Background(), owner, fields, docs)
	require.Error(t, err)

	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Equal(t, "required", appErr.Fields["payment_receipt"])
	assert.Equal(t, "email", appErr.Fields["referee1_email"])

	entries, err := os.ReadDir(f.blobRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, int64(0), f.countApplications(t))
}

func TestSubmitApplication_BadFileNameRejectedBeforeAnyWrite(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "a@x.com")

	first, err := f.service.SubmitApplication(context.Background(), owner, validFields(), requiredDocs())
	require.NoError(t, err)

	appDir := filepath.Join(f.blobRoot, owner.UUID)
	require.NoError(t, os.RemoveAll(appDir))

	for _, name := range []string{"..", "/", "a/..", "bad\x00name"} {
		docs := requiredDocs()
		docs.PaymentReceipt = doc(name, "receipt")

		_, err := f.service.SubmitApplication(context.Background(), owner, validFields(), docs)

		var appErr *apperrors.Error
		require.True(t, errors.As(err, &appErr), name)
		assert.Equal(t, apperrors.CodeValidation, appErr.Code, name)
		assert.Equal(t, "invalid file name", appErr.Fields["payment_receipt"], name)

		assert.NoDirExists(t, appDir, name)
	}

	stored, err := f.service.GetApplication(context.Background(), owner.UUID, owner)
	require.NoError(t, err)
	assert.Equal(t, first.PaymentReceiptPath, stored.PaymentReceiptPath)
	assert.Equal(t, int64(1), f.countApplications(t))
}

func TestSubmitApplication_FailedWriteLeavesNoRow(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "a@x.com")

	docs := requiredDocs()
	docs.PaymentReceipt = &Document{
		Filename: "receipt.pdf",
		Open: func() (io.ReadCloser, error) {
			return nil, errors.New("upload stream closed")
		},
	}

	_, err := f.service.SubmitApplication(context.Background(), owner, validFields(), docs)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeInternal))
	assert.Equal(t, int64(0), f.countApplications(t))
}

func TestSubmitApplication_RequiresOwner(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.SubmitApplication(context.Background(), nil, validFields(), requiredDocs())
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorized))
}

func TestGetApplication_OwnerNotFoundForbidden(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "a@x.com")
	other := f.createUser(t, "b@x.com")
	ctx := context.Background()

	_, err := f.service.SubmitApplication(ctx, owner, validFields(), requiredDocs())
	require.NoError(t, err)

	app, err := f.service.GetApplication(ctx, owner.UUID, owner)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, app.UserID)

	_, err = f.service.GetApplication(ctx, owner.UUID, other)
	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))

	_, err = f.service.GetApplication(ctx, other.UUID, other)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestListApplications(t *testing.T) {
	f := newFixture(t)
	owner := f.createUser(t, "a@x.com")
	ctx := context.Background()

	apps, err := f.service.ListApplications(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, apps)

	_, err = f.service.SubmitApplication(ctx, owner, validFields(), requiredDocs())
	require.NoError(t, err)
	_, err = f.service.SubmitApplication(ctx, owner, validFields(), requiredDocs())
	require.NoError(t, err)

	apps, err = f.service.ListApplications(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}

// racingRepository reports a duplicate key on the first n upserts.
type racingRepository struct {
	duplicates int
	calls      int
	columns    [][]string
}

func (r *racingRepository) FindByUUID(ctx context.Context, uuid string) (*models.Application, error) {
	return nil, nil
}

func (r *racingRepository) ListByUser(ctx context.Context, userID uint) ([]models.Application, error) {
	return nil, nil
}

func (r *racingRepository) Upsert(ctx context.Context, app *models.Application, columns []string) (bool, error) {
	r.calls++
	r.columns = append(r.columns, columns)
	if r.calls <= r.duplicates {
		app.ID = 99
		return false, store.ErrDuplicateKey
	}
	if app.ID != 0 {
		return false, errors.New("retry reused a mutated application")
	}
	app.ID = 1
	return false, nil
}

type memoryDocuments struct{}

func (memoryDocuments) Save(applicationUUID, prefix, originalName string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return applicationUUID + "/" + prefix + "_" + originalName, nil
}

func TestSubmitApplication_RetriesDuplicateInsertAsUpdate(t *testing.T) {
	repo := &racingRepository{duplicates: 1}
	service := NewAdmissionService(repo, memoryDocuments{}, zap.NewNop())
	owner := &models.User{UUID: "3f1c2b7e-8d4a-4c61-9a0e-2b5f6c7d8e9f"}
	owner.ID = 7

	app, err := service.SubmitApplication(context.Background(), owner, validFields(), requiredDocs())
	require.NoError(t, err)

	assert.Equal(t, 2, repo.calls)
	assert.Equal(t, uint(1), app.ID)
	assert.Equal(t, repo.columns[0], repo.columns[1])
	assert.NotContains(t, repo.columns[1], models.ColumnOtherQualificationsPath)
	assert.NotContains(t, repo.columns[1], "status")
}

func TestSubmitApplication_PersistentDuplicateIsConflict(t *testing.T) {
	repo := &racingRepository{duplicates: 2}
	service := NewAdmissionService(repo, memoryDocuments{}, zap.NewNop())
	owner := &models.User{UUID: "3f1c2b7e-8d4a-4c61-9a0e-2b5f6c7d8e9f"}
	owner.ID = 7

	_, err := service.SubmitApplication(context.Background(), owner, validFields(), requiredDocs())
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))
	assert.Equal(t, 2, repo.calls)
}

func TestValidateSubmission(t *testing.T) {
	assert.NoError(t, ValidateSubmission(validFields(), requiredDocs()))

	fields := validFields()
	fields.ModeOfStudy = "weekends"
	fields.GraduationYear = "24"
	fields.DateOfBirth = "12/04/2001"
	docs := requiredDocs()
	docs.Transcript = &Document{Filename: " "}

	err := ValidateSubmission(fields, docs)
	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "oneof=full_time part_time distance", appErr.Fields["mode_of_study"])
	assert.Contains(t, appErr.Fields, "graduation_year")
	assert.Contains(t, appErr.Fields, "date_of_birth")
	assert.Equal(t, "invalid file", appErr.Fields["transcript"])
}
