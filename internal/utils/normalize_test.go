package utils

import (
	"testing"
	"time"
)

func TestNormalizePhoneE164(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"parenthesized", "(415) 555-0123", "+14155550123", false},
		{"dashed", "415-555-0123", "+14155550123", false},
		{"dotted", "415.555.0123", "+14155550123", false},
		{"bare", "4155550123", "+14155550123", false},
		{"with country code", "14155550123", "+14155550123", false},
		{"nine digits", "555012345", "", true},
		{"twelve digits", "441550123456", "", true},
		{"eleven no leading one", "24155550123", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhoneE164(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizePhoneE164(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizePhoneE164(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizePhoneE164(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDOB(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"iso", "1985-07-14", time.Date(1985, 7, 14, 0, 0, 0, 0, ClinicTZ), false},
		{"us slash", "07/14/1985", time.Date(1985, 7, 14, 0, 0, 0, 0, ClinicTZ), false},
		{"us dash", "07-14-1985", time.Date(1985, 7, 14, 0, 0, 0, 0, ClinicTZ), false},
		// Ambiguous dates resolve as US month/day before the European attempt
		{"ambiguous resolves US", "03/04/1990", time.Date(1990, 3, 4, 0, 0, 0, 0, ClinicTZ), false},
		// Month 14 is impossible, so the European format finally applies
		{"european fallback", "14/07/1985", time.Date(1985, 7, 14, 0, 0, 0, 0, ClinicTZ), false},
		{"garbage", "not-a-date", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDOB(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDOB(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDOB(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDOB(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractors(t *testing.T) {
	message := "My phone is (415) 555-0123 and DOB is 07/14/1985"

	if got := ExtractPhone(message); got != "(415) 555-0123" {
		t.Errorf("ExtractPhone = %q", got)
	}
	if got := ExtractDOB(message); got != "07/14/1985" {
		t.Errorf("ExtractDOB = %q", got)
	}
	if got := ExtractOTPCode("my code is 042137 thanks"); got != "042137" {
		t.Errorf("ExtractOTPCode = %q", got)
	}
	if got := ExtractOTPCode("no code here 1234"); got != "" {
		t.Errorf("ExtractOTPCode on short digits = %q, want empty", got)
	}
}
