package errors

import (
	"strings"
	"testing"
)

func TestValidateParamName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "rt", false},
		{"valid camel", "mapid", false},
		{"valid with underscore", "max_results", false},
		{"valid with dash", "out-bound", false},
		{"valid socrata token", "$$app_token", false},
		{"valid socrata filter", "$where", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 65), true},
		{"only dollars", "$$", true},
		{"space", "route id", true},
		{"ampersand", "a&b", true},
		{"equals", "a=b", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParamName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateParamName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateParamName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid http", "http://lapi.transitchicago.com/api/1.0/", false},
		{"valid https", "https://www.ctabustracker.com/bustime/api/v1/", false},
		{"valid root", "http://127.0.0.1:8080/", false},

		{"empty", "", true},
		{"ftp scheme", "ftp://example.com/", true},
		{"no scheme", "example.com/api/", true},
		{"no host", "http:///api/", true},
		{"query", "http://example.com/api/?a=b", true},
		{"fragment", "http://example.com/api/#top", true},
		{"no trailing slash", "http://example.com/api", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBaseURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBaseURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidConfig) {
				t.Errorf("ValidateBaseURL(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidConfig)
			}
		})
	}
}
