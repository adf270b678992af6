package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

func parseSchema(t *testing.T, model interface{}) *schema.Schema {
	t.Helper()
	s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	return s
}

func TestApplicationFieldColumns_MatchPayloadStruct(t *testing.T) {
	fields := parseSchema(t, &ApplicationFields{})

	var columns []string
	for _, field := range fields.Fields {
		if field.DBName != "" {
			columns = append(columns, field.DBName)
		}
	}

	assert.ElementsMatch(t, columns, ApplicationFieldColumns)
}

func TestApplicationSchema_HasPathAndPayloadColumns(t *testing.T) {
	app := parseSchema(t, &Application{})

	expected := append([]string{
		ColumnPassportPhotoPath,
		ColumnTranscriptPath,
		ColumnCertificatePath,
		ColumnStatementOfPurposePath,
		ColumnPaymentReceiptPath,
		ColumnOtherQualificationsPath,
		"uuid",
		"user_id",
		"status",
	}, ApplicationFieldColumns...)

	for _, column := range expected {
		assert.NotNil(t, app.LookUpField(column), column)
	}
}

func TestSchemas_HaveNoSoftDelete(t *testing.T) {
	for _, model := range []interface{}{&Application{}, &User{}} {
		s := parseSchema(t, model)
		assert.Nil(t, s.LookUpField("deleted_at"), s.Name)
		assert.NotNil(t, s.LookUpField("created_at"), s.Name)
		assert.NotNil(t, s.LookUpField("updated_at"), s.Name)
		require.NotNil(t, s.PrioritizedPrimaryField, s.Name)
		assert.Equal(t, "id", s.PrioritizedPrimaryField.DBName, s.Name)
	}
}

func TestApplicationStatus_Valid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusApproved.Valid())
	assert.True(t, StatusRejected.Valid())
	assert.False(t, ApplicationStatus("withdrawn").Valid())
}

func TestUserBeforeCreate_AssignsUUIDOnce(t *testing.T) {
	user := &User{Email: "a@x.com"}
	require.NoError(t, user.BeforeCreate(&gorm.DB{}))
	assigned := user.UUID
	assert.Len(t, assigned, 36)

	require.NoError(t, user.BeforeCreate(&gorm.DB{}))
	assert.Equal(t, assigned, user.UUID)
}
