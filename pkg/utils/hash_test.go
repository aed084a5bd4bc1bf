package utils

import (
	"regexp"
	"testing"
)

func TestHashKey(t *testing.T) {
	a := HashKey("sessions/2023")
	if a != HashKey("sessions/2023") {
		t.Error("HashKey() must be deterministic")
	}
	if a == HashKey("sessions/2024") {
		t.Error("HashKey() must differ for different input")
	}
	if !regexp.MustCompile(`^[0-9a-f]{64}$`).MatchString(a) {
		t.Errorf("HashKey() = %v, want 64 hex chars", a)
	}
}
