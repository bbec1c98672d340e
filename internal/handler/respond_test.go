package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalstash/internal/model"
	"github.com/templui/goalstash/internal/validation"
)

func decodeBody(t *testing.T, body string, v any) error {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return decodeJSON(httptest.NewRecorder(), req, v)
}

func TestDecodeJSONNamesAmountField(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		target  any
		field   string
		message string
	}{
		{
			name:    "stat amount text",
			body:    `{"amount":"abc"}`,
			target:  &model.StatInput{},
			field:   "amount",
			message: "amount is required and must be a number",
		},
		{
			name:    "target amount text",
			body:    `{"title":"Car","targetAmount":"x"}`,
			target:  &model.GoalUpdate{},
			field:   "targetAmount",
			message: "targetAmount must be a number",
		},
		{
			name:    "current amount after a valid target",
			body:    `{"targetAmount":10,"currentAmount":"lots"}`,
			target:  &model.GoalInput{},
			field:   "currentAmount",
			message: "currentAmount must be a number",
		},
		{
			name:    "stat amount too large",
			body:    `{"amount":"100000000000000000000"}`,
			target:  &model.StatInput{},
			field:   "amount",
			message: "amount is out of range",
		},
		{
			name:    "target amount too large",
			body:    `{"targetAmount":1e20}`,
			target:  &model.GoalUpdate{},
			field:   "targetAmount",
			message: "targetAmount is out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decodeBody(t, tt.body, tt.target)
			var verr *validation.Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.message, verr.Message)
		})
	}
}

func TestDecodeJSONMalformed(t *testing.T) {
	var in model.GoalInput

	err := decodeBody(t, "", &in)
	assert.EqualError(t, err, "request body is required")

	err = decodeBody(t, `{"title":`, &in)
	assert.EqualError(t, err, "invalid JSON body")

	err = decodeBody(t, `{"title":12}`, &in)
	assert.EqualError(t, err, "title has the wrong type")

	err = decodeBody(t, strings.Repeat(" ", maxBodyBytes+1), &in)
	assert.EqualError(t, err, "request body too large")

	require.NoError(t, decodeBody(t, `{"title":"Car","targetAmount":"12.5"}`, &in))
	assert.Equal(t, "12.50", in.TargetAmount.String())
}
