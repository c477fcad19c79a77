package validation

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Password string `json:"password" validate:"required,pwd"`
}

func TestPasswordTag(t *testing.T) {
	v := validator.New()
	Configure(v)

	tests := []struct {
		name     string
		password string
		ok       bool
	}{
		{name: "minimum", password: "secret", ok: true},
		{name: "too short", password: "12345"},
		{name: "six multibyte characters", password: "ééééé é", ok: true},
		{name: "bcrypt limit", password: strings.Repeat("a", MaxPasswordBytes), ok: true},
		{name: "over bcrypt limit", password: strings.Repeat("a", MaxPasswordBytes+1)},
		{name: "over limit in bytes only", password: strings.Repeat("é", 37)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(signup{Password: tt.password})
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			details := ToDetails(err)
			assert.Equal(t, "must be at least 6 characters and at most 72 bytes", details["password"])
		})
	}
}
