package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "valid", email: "dev@example.com"},
		{name: "valid with plus", email: "dev+tag@example.com"},
		{name: "empty", email: "", wantErr: true},
		{name: "whitespace only", email: "   ", wantErr: true},
		{name: "no at sign", email: "devexample.com", wantErr: true},
		{name: "no tld", email: "dev@example", wantErr: true},
		{name: "embedded space", email: "de v@example.com", wantErr: true},
		{name: "too long", email: strings.Repeat("a", 250) + "@x.io", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("12345678"))
	assert.Error(t, ValidatePassword("1234567"))
	assert.Error(t, ValidatePassword(strings.Repeat("x", 129)))
	assert.NoError(t, ValidatePassword(strings.Repeat("x", 128)))
}

func TestValidateRecordID(t *testing.T) {
	assert.NoError(t, ValidateRecordID("123e4567-e89b-12d3-a456-426614174000"))
	assert.NoError(t, ValidateRecordID("123E4567-E89B-12D3-A456-426614174000"))
	assert.Error(t, ValidateRecordID(""))
	assert.Error(t, ValidateRecordID("not-a-uuid"))
	assert.Error(t, ValidateRecordID("123e4567e89b12d3a456426614174000"))
}

func TestValidateProjectTitle(t *testing.T) {
	assert.NoError(t, ValidateProjectTitle("Marketplace MVP"))
	assert.Error(t, ValidateProjectTitle("   "))
	assert.Error(t, ValidateProjectTitle(strings.Repeat("t", 201)))
}

func TestValidateLimit(t *testing.T) {
	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 20, ValidateLimit(-5))
	assert.Equal(t, 50, ValidateLimit(50))
	assert.Equal(t, 100, ValidateLimit(500))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("hello\x00"))
	assert.Equal(t, "line1\nline2", SanitizeString("line1\nline2"))
	assert.Equal(t, "ab", SanitizeString("a\x01\x02b"))
	assert.Equal(t, "trimmed", SanitizeString("  trimmed  "))
}
