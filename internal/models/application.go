package models

import "time"

type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// ApplicationFields is the applicant-supplied payload. The same struct is
// bound from the multipart form, validated, persisted and rendered.
type ApplicationFields struct {
	// Personal
	Nationality   string `gorm:"column:nationality;not null" form:"nationality" json:"nationality" binding:"required,max=100"`
	Address       string `gorm:"column:address;type:text;not null" form:"address" json:"address" binding:"required,max=1000"`
	DateOfBirth   string `gorm:"column:date_of_birth;not null" form:"date_of_birth" json:"date_of_birth" binding:"required,datetime=2006-01-02"`
	Gender        string `gorm:"column:gender;not null" form:"gender" json:"gender" binding:"required,max=50"`
	PhoneNumber   string `gorm:"column:phone_number;not null" form:"phone_number" json:"phone_number" binding:"required,max=30"`
	StateOfOrigin string `gorm:"column:state_of_origin" form:"state_of_origin" json:"state_of_origin" binding:"max=100"`

	// Academic selection
	AcademicSession string `gorm:"column:academic_session;not null" form:"academic_session" json:"academic_session" binding:"required,max=20"`
	Program         string `gorm:"column:program;not null" form:"program" json:"program" binding:"required,max=200"`
	ModeOfStudy     string `gorm:"column:mode_of_study;not null" form:"mode_of_study" json:"mode_of_study" binding:"required,oneof=full_time part_time distance"`

	// Qualification
	HighestQualification string `gorm:"column:highest_qualification;not null" form:"highest_qualification" json:"highest_qualification" binding:"required,max=200"`
	Institution          string `gorm:"column:institution;not null" form:"institution" json:"institution" binding:"required,max=200"`
	GraduationYear       string `gorm:"column:graduation_year;not null" form:"graduation_year" json:"graduation_year" binding:"required,numeric,len=4"`
	Grade                string `gorm:"column:grade" form:"grade" json:"grade" binding:"max=50"`

	// Referees
	Referee1Name  string `gorm:"column:referee1_name;not null" form:"referee1_name" json:"referee1_name" binding:"required,max=200"`
	Referee1Email string `gorm:"column:referee1_email;not null" form:"referee1_email" json:"referee1_email" binding:"required,email"`
	Referee2Name  string `gorm:"column:referee2_name;not null" form:"referee2_name" json:"referee2_name" binding:"required,max=200"`
	Referee2Email string `gorm:"column:referee2_email;not null" form:"referee2_email" json:"referee2_email" binding:"required,email"`
}

// ApplicationFieldColumns enumerates the payload columns of
// ApplicationFields. Create and update both write exactly this list.
var ApplicationFieldColumns = []string{
	"nationality",
	"address",
	"date_of_birth",
	"gender",
	"phone_number",
	"state_of_origin",
	"academic_session",
	"program",
	"mode_of_study",
	"highest_qualification",
	"institution",
	"graduation_year",
	"grade",
	"referee1_name",
	"referee1_email",
	"referee2_name",
	"referee2_email",
}

// Document path columns.
const (
	ColumnPassportPhotoPath       = "passport_photo_path"
	ColumnTranscriptPath          = "transcript_path"
	ColumnCertificatePath         = "certificate_path"
	ColumnStatementOfPurposePath  = "statement_of_purpose_path"
	ColumnPaymentReceiptPath      = "payment_receipt_path"
	ColumnOtherQualificationsPath = "other_qualifications_path"
)

// Application has no soft delete. Every row keeps its uuid in the unique
// index.
type Application struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	UUID   string `gorm:"type:varchar(36);uniqueIndex;not null;<-:create"`
	UserID uint   `gorm:"not null;index"`

	ApplicationFields `gorm:"embedded"`

	PassportPhotoPath       string `gorm:"column:passport_photo_path"`
	TranscriptPath          string `gorm:"column:transcript_path"`
	CertificatePath         string `gorm:"column:certificate_path"`
	StatementOfPurposePath  string `gorm:"column:statement_of_purpose_path"`
	PaymentReceiptPath      string `gorm:"column:payment_receipt_path"`
	OtherQualificationsPath string `gorm:"column:other_qualifications_path"`

	Status ApplicationStatus `gorm:"type:varchar(20);not null;default:pending;check:chk_applications_status,status IN ('pending','approved','rejected')"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
