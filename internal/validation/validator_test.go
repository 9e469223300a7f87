package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidstream/internal/apperr"
)

type signup struct {
	Name    string `validate:"required"`
	Pass    string `validate:"required,min=6"`
	Confirm string `validate:"eqfield=Pass"`
}

var signupRules = []Rule{
	{Tag: "required", Message: "missing"},
	{Tag: "eqfield", Message: "mismatch"},
	{Tag: "min", Field: "Pass", Message: "short"},
}

func TestStructRulePriority(t *testing.T) {
	tests := []struct {
		name string
		in   signup
		want string
	}{
		{"valid", signup{"a", "secret1", "secret1"}, ""},
		{"missing wins over everything", signup{"", "abc", "x"}, "missing"},
		{"mismatch wins over short", signup{"a", "abc", "abd"}, "mismatch"},
		{"short", signup{"a", "abc", "abc"}, "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.in, signupRules...)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
			assert.Equal(t, tt.want, apperr.Message(err, ""))
		})
	}
}

func TestStructUnmatchedRuleFallsBack(t *testing.T) {
	err := Struct(&signup{Name: "a", Pass: "abc", Confirm: "abc"})
	require.Error(t, err)
	assert.Equal(t, "Invalid input.", apperr.Message(err, ""))
}

func TestMaxBytesCountsBytes(t *testing.T) {
	type secret struct {
		Pass string `validate:"maxbytes=4"`
	}
	rule := Rule{Tag: "maxbytes", Message: "too long"}

	assert.NoError(t, Struct(&secret{"abcd"}, rule))
	assert.Equal(t, "too long", apperr.Message(Struct(&secret{"abcde"}, rule), ""))
	// three runes, six bytes
	assert.Equal(t, "too long", apperr.Message(Struct(&secret{"ééé"}, rule), ""))
}
