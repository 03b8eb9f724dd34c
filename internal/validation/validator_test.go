package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourdesk/internal/models"
)

func TestStruct_FirstFailingFieldInDeclarationOrder(t *testing.T) {
	v := New()

	err := v.Struct(models.BoatDraft{Capacity: 0, Status: "sunk"})

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "name", ve.Field)
	assert.Equal(t, "name is required", ve.Message)

	fields := ve.Map()
	assert.Contains(t, fields, "type")
	assert.Contains(t, fields, "capacity")
	assert.Equal(t, "status must be one of [available maintenance retired]", fields["status"])
}

func TestStruct_Valid(t *testing.T) {
	v := Default()

	err := v.Struct(models.HotelDraft{Name: "Harbour", Location: "Split", Stars: 4, Website: "https://harbour.example"})
	assert.NoError(t, err)
}

func TestCustomValidations(t *testing.T) {
	v := Default()

	tests := []struct {
		name  string
		draft interface{}
		field string
	}{
		{"bad role", models.UserDraft{Name: "Ann", Email: "ann@example.com", Role: "root"}, "role"},
		{"short password", models.UserDraft{Name: "Ann", Email: "ann@example.com", Role: "admin", Password: "short"}, "password"},
		{"bad scope", models.RoleDraft{Name: "ops", Permissions: []string{"boats:launch"}}, "permissions[0]"},
		{"worker status", models.EmailDraft{Subject: "Hi", Body: "x", Status: "sent"}, "status"},
		{"scheduled without date", models.EmailDraft{Subject: "Hi", Body: "x", Status: "scheduled"}, "scheduled_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.draft)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestScheduledEmailWithDate(t *testing.T) {
	at := time.Now().Add(time.Hour)
	err := Default().Struct(models.EmailDraft{Subject: "Hi", Body: "x", Status: "scheduled", ScheduledAt: &at})
	assert.NoError(t, err)
}

func TestEnum(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Enum("oneof", "a b"))
	assert.Equal(t, []string{"admin", "editor", "viewer"}, Enum("user_role", ""))
	assert.Nil(t, Enum("min", "3"))
}
