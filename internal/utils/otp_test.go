package utils

import (
	"testing"
)

func TestGenerateOTPCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateOTPCode()
		if err != nil {
			t.Fatalf("GenerateOTPCode error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q is not 6 digits", code)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("code %q contains non-digit", code)
			}
		}
		seen[code] = true
	}
	// 50 draws colliding down to a single value would mean a broken generator
	if len(seen) < 2 {
		t.Error("generator produced no variation across 50 draws")
	}
}

func TestHashOTPCode(t *testing.T) {
	if HashOTPCode("123456") != HashOTPCode("123456") {
		t.Error("hash is not deterministic")
	}
	if HashOTPCode("123456") == HashOTPCode("654321") {
		t.Error("distinct codes produced the same hash")
	}
	if HashOTPCode("123456") == "123456" {
		t.Error("hash must not be the plaintext code")
	}
}
