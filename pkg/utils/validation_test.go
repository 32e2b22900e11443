package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name  string `validate:"required"`
	Email string `validate:"omitempty,email"`
	Mode  string `validate:"oneof=a b"`
	Zone  string `validate:"omitempty,timezone"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   sample
		wantErr string
	}{
		{"valid", sample{Name: "x", Email: "ops@example.com", Mode: "a", Zone: "Europe/Berlin"}, ""},
		{"missing name", sample{Mode: "a"}, "name is required"},
		{"bad email", sample{Name: "x", Email: "nope", Mode: "b"}, "email must be a valid email"},
		{"bad mode", sample{Name: "x", Mode: "c"}, "mode must be one of: a b"},
		{"bad zone", sample{Name: "x", Mode: "a", Zone: "Mars/Olympus"}, "zone must be an IANA time zone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}
