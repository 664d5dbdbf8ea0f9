package account

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/scolarite/core"
)

func TestFormatMatricule(t *testing.T) {
	tests := []struct {
		prefix string
		seq    int
		want   string
	}{
		{"24G", 1, "24G001"},
		{"24G", 42, "24G042"},
		{"24G", 999, "24G999"},
		{"24G", 1000, "24G1000"},
		{"", 7, "007"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMatricule(tt.prefix, tt.seq))
	}
}

func TestAccount_Password(t *testing.T) {
	var acc Account
	assert.NoError(t, acc.SetPassword("s3cret"))
	assert.NotEqual(t, []byte("s3cret"), acc.PasswordHash, "passwords are hashed")
	assert.NoError(t, acc.CheckPassword("s3cret"))
	assert.Error(t, acc.CheckPassword("S3cret"))
	assert.Error(t, acc.CheckPassword(""))
}

func TestAccount_SetPassword_tooLong(t *testing.T) {
	tests := []struct {
		name    string
		pwd     string
		wantErr bool
	}{
		{name: "72 bytes", pwd: strings.Repeat("x", 72)},
		{name: "73 bytes", pwd: strings.Repeat("x", 73), wantErr: true},
		{name: "36 two-byte runes", pwd: strings.Repeat("é", 36)},
		{name: "37 two-byte runes", pwd: strings.Repeat("é", 37), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var acc Account
			err := acc.SetPassword(tt.pwd)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.NoError(t, acc.CheckPassword(tt.pwd))
				return
			}
			require.True(t, core.IsValidation(err))
			vErr := err.(*core.ValidationError)
			assert.Equal(t, "password", vErr.Fields[0].Field)
			assert.Equal(t, bcrypt.ErrPasswordTooLong, vErr.Err)
			assert.Nil(t, acc.PasswordHash)
		})
	}
}

func TestNewStudent_Validate(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	tests := []struct {
		name       string
		data       NewStudent
		wantFields []string
	}{
		{name: "valid", data: NewStudent{Name: " Amara ", Password: "pwd"}},
		{name: "blank name", data: NewStudent{Name: "   ", Password: "pwd"}, wantFields: []string{"nom"}},
		{name: "missing both", data: NewStudent{}, wantFields: []string{"nom", "password"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate(validate)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				assert.Equal(t, "Amara", tt.data.Name)
				return
			}
			vErr, ok := core.TranslateValidation(err, translator).(*core.ValidationError)
			if assert.True(t, ok) {
				var got []string
				for _, fld := range vErr.Fields {
					got = append(got, fld.Field)
					assert.NotEmpty(t, fld.Error)
				}
				assert.Equal(t, tt.wantFields, got)
			}
		})
	}
}
