package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalstash/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestStructGoalInput(t *testing.T) {
	tests := []struct {
		name    string
		input   model.GoalInput
		field   string
		wantErr bool
	}{
		{name: "minimal", input: model.GoalInput{Title: "Vacation"}},
		{name: "full", input: model.GoalInput{Title: "Vacation", TargetAmount: ptr(model.MustAmount("1000")), Currency: "EUR"}},
		{name: "zero target", input: model.GoalInput{Title: "Vacation", TargetAmount: ptr(model.MustAmount("0"))}},
		{name: "negative target", input: model.GoalInput{Title: "Vacation", TargetAmount: ptr(model.MustAmount("-1"))}, field: "targetAmount", wantErr: true},
		{name: "unknown currency", input: model.GoalInput{Title: "Vacation", Currency: "XYZ1"}, field: "currency", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *Error
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestStructGoalUpdate(t *testing.T) {
	assert.NoError(t, Struct(model.GoalUpdate{}))
	assert.NoError(t, Struct(model.GoalUpdate{CurrentAmount: ptr(model.MustAmount("-20"))}))

	err := Struct(model.GoalUpdate{TargetAmount: ptr(model.MustAmount("-0.01"))})
	require.Error(t, err)
	assert.Equal(t, "targetAmount must be greater than or equal to 0", err.Error())
}

func TestStructStatInputRequiresAmount(t *testing.T) {
	err := Struct(model.StatInput{Note: "birthday"})
	require.Error(t, err)
	assert.Equal(t, model.ErrInvalidAmount.Error(), err.Error())

	assert.NoError(t, Struct(model.StatInput{Amount: ptr(model.MustAmount("-5"))}))
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
	assert.Error(t, ValidatePassword("mypassword1234"))
	assert.NoError(t, ValidatePassword("correct horse battery"))
	assert.Error(t, ValidatePassword("my goalstash login"))
	assert.Error(t, ValidatePassword(strings.Repeat("x7", 40)))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("jane@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("Jane <jane@example.com>"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 250)+"@example.com"))
}
