package types

import (
	"time"

	"github.com/admissions-dev/admissions/internal/models"
)

type UserResponse struct {
	ID        uint       `json:"id"`
	UUID      string     `json:"uuid"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Program   string     `json:"program"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// UserSummary is the public user view embedded in token responses. Its
// "id" is the external UUID, never the internal key.
type UserSummary struct {
	Email    string `json:"email"`
	ID       string `json:"id"`
	Program  string `json:"program"`
	FullName string `json:"full_name"`
}

type ApplicationResponse struct {
	ID     uint   `json:"id"`
	UUID   string `json:"uuid"`
	UserID uint   `json:"user_id"`

	models.ApplicationFields

	PassportPhotoPath       string `json:"passport_photo_path"`
	TranscriptPath          string `json:"transcript_path"`
	CertificatePath         string `json:"certificate_path"`
	StatementOfPurposePath  string `json:"statement_of_purpose_path"`
	PaymentReceiptPath      string `json:"payment_receipt_path"`
	OtherQualificationsPath string `json:"other_qualifications_path,omitempty"`

	Status    models.ApplicationStatus `json:"status"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt *time.Time               `json:"updated_at"`
}

type TokenResponse struct {
	AccessToken  string                `json:"access_token"`
	TokenType    string                `json:"token_type"`
	ExpiresAt    time.Time             `json:"expires_at"`
	User         UserSummary           `json:"user"`
	Applications []ApplicationResponse `json:"applications,omitempty"`
}

func NewUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		UUID:      user.UUID,
		Email:     user.Email,
		FullName:  user.FullName,
		Program:   user.Program,
		CreatedAt: user.CreatedAt,
		UpdatedAt: updatedAt(user.CreatedAt, user.UpdatedAt),
	}
}

func NewUserSummary(user *models.User) UserSummary {
	return UserSummary{
		Email:    user.Email,
		ID:       user.UUID,
		Program:  user.Program,
		FullName: user.FullName,
	}
}

func NewApplicationResponse(app *models.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:                      app.ID,
		UUID:                    app.UUID,
		UserID:                  app.UserID,
		ApplicationFields:       app.ApplicationFields,
		PassportPhotoPath:       app.PassportPhotoPath,
		TranscriptPath:          app.TranscriptPath,
		CertificatePath:         app.CertificatePath,
		StatementOfPurposePath:  app.StatementOfPurposePath,
		PaymentReceiptPath:      app.PaymentReceiptPath,
		OtherQualificationsPath: app.OtherQualificationsPath,
		Status:                  app.Status,
		CreatedAt:               app.CreatedAt,
		UpdatedAt:               updatedAt(app.CreatedAt, app.UpdatedAt),
	}
}

// updatedAt is nil until the row has been modified after creation.
func updatedAt(created, updated time.Time) *time.Time {
	if updated.IsZero() || !updated.After(created) {
		return nil
	}
	return &updated
}
