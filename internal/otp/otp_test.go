package otp

import (
	"strconv"
	"testing"

	"zero-trust-otp/backend/internal/otp/domain"
)

func TestGenerateCode_ReturnsSixDigits(t *testing.T) {
	code, err := GenerateCode()
	if err != nil {
		t.Fatalf("GenerateCode: %v", err)
	}
	if len(code) != CodeDigits {
		t.Errorf("code length = %d, want %d", len(code), CodeDigits)
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			t.Errorf("code contains non-digit: %c", c)
		}
	}
}

func TestGenerateCode_StaysInRange(t *testing.T) {
	for i := 0; i < 5000; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q has length %d, want 6", code, len(code))
		}
		if code[0] == '0' {
			t.Fatalf("code %q has a leading zero", code)
		}
		n, err := strconv.Atoi(string(code))
		if err != nil {
			t.Fatalf("code %q is not numeric: %v", code, err)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d outside [100000, 999999]", n)
		}
	}
}

func TestGenerateCode_Varies(t *testing.T) {
	seen := make(map[domain.Code]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		seen[code] = true
	}
	// 100 draws from 900000 values; a handful of collisions is possible, a constant source is not.
	if len(seen) < 90 {
		t.Errorf("distinct codes = %d of 100, want >= 90", len(seen))
	}
}

func TestHashCode_Consistent(t *testing.T) {
	hash1 := domain.HashCode("123456")
	hash2 := domain.HashCode("123456")

	if hash1 != hash2 {
		t.Errorf("HashCode not consistent: hash1 = %q, hash2 = %q", hash1, hash2)
	}
	if len(hash1) != 64 {
		t.Errorf("hash length = %d, want 64 (SHA-256 hex)", len(hash1))
	}
	if domain.HashCode("654321") == hash1 {
		t.Error("HashCode produced same hash for different inputs")
	}
}

func TestCodeEqual_CorrectMatch(t *testing.T) {
	storedHash := domain.HashCode("123456")
	if !CodeEqual("123456", storedHash) {
		t.Error("CodeEqual should match correct code")
	}
}

func TestCodeEqual_RejectsIncorrect(t *testing.T) {
	storedHash := domain.HashCode("123456")
	for _, candidate := range []string{"654321", "", " 123456", "123456 ", "12345", "1234567", "abcdef"} {
		if CodeEqual(candidate, storedHash) {
			t.Errorf("CodeEqual(%q) should reject", candidate)
		}
	}
}

func TestCodeEqual_EmptyStoredHash(t *testing.T) {
	if CodeEqual("", "") {
		t.Error("CodeEqual should not match empty inputs")
	}
	if CodeEqual("123456", "") {
		t.Error("CodeEqual should not match an empty stored hash")
	}
}
