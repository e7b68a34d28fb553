package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_PetRegistration(t *testing.T) {
	v := MustNew()

	tests := []struct {
		name    string
		body    string
		wantErr bool
		field   string
	}{
		{"valid with hash", `{"name":"Coco","gender":"female","photo_hash":"p:8f373714acfcf4d0"}`, false, ""},
		{"valid with photo", `{"name":"Coco","gender":"male","birth_date":"2021-05-15","photo_base64":"aGVsbG8="}`, false, ""},
		{"missing name", `{"gender":"female","photo_hash":"h"}`, true, "(root)"},
		{"bad gender", `{"name":"Coco","gender":"other","photo_hash":"h"}`, true, "gender"},
		{"bad birth date", `{"name":"Coco","gender":"male","birth_date":"15/05/2021","photo_hash":"h"}`, true, "birth_date"},
		{"no photo", `{"name":"Coco","gender":"male"}`, true, "(root)"},
		{"malformed json", `{"name":`, true, "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(PetRegistration, []byte(tt.body))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *Error
			require.True(t, errors.As(err, &verr), "expected *Error, got %v", err)
			require.NotEmpty(t, verr.Fields)

			found := false
			for _, f := range verr.Fields {
				if f.Field == tt.field {
					found = true
				}
			}
			assert.True(t, found, "expected violation on %q, got %+v", tt.field, verr.Fields)
		})
	}
}

func TestValidator_MissingReportPhone(t *testing.T) {
	v := MustNew()

	ok := `{"missing_date":"2024-01-15T10:00:00Z","missing_location":"Gangnam","contact_phone":"010-1234-5678"}`
	assert.NoError(t, v.Validate(MissingReport, []byte(ok)))

	bad := `{"missing_date":"2024-01-15T10:00:00Z","missing_location":"Gangnam","contact_phone":"call me"}`
	assert.Error(t, v.Validate(MissingReport, []byte(bad)))
}

func TestValidator_UnknownSchema(t *testing.T) {
	v := MustNew()
	err := v.Validate("nope", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownSchema)
}
