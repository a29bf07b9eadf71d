package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "Str0ng!Passw0rd", false},
		{"too short", "Sh0rt!a", true},
		{"too long", strings.Repeat("Aa1!", 40), true},
		{"missing uppercase", "weak!passw0rd", true},
		{"missing lowercase", "WEAK!PASSW0RD", true},
		{"missing digit", "Weak!Password", true},
		{"missing special", "WeakPassw0rdd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "student@campus.edu", false},
		{"valid with plus", "student+tag@campus.edu", false},
		{"empty", "", true},
		{"no at sign", "studentcampus.edu", true},
		{"no tld", "student@campus", true},
		{"too long", strings.Repeat("a", 250) + "@campus.edu", true},
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

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Ada Lovelace"))
	assert.Error(t, ValidateName("   "))
	assert.Error(t, ValidateName(strings.Repeat("a", 101)))
}
