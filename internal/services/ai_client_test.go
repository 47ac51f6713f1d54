package services

import (
	"testing"
	"time"
)

func TestFractionalRateStillAllowsCalls(t *testing.T) {
	c := NewAIClient("https://example.invalid", "key", "test-model", time.Second, 0.5)

	if c.limiter.Burst() < 1 {
		t.Errorf("burst %d can never admit a call", c.limiter.Burst())
	}
	if !c.limiter.Allow() {
		t.Error("a fresh limiter must admit the first call")
	}
}

func TestRateDefaultsApplied(t *testing.T) {
	c := NewAIClient("https://example.invalid/", "key", "test-model", 0, 0)

	if c.baseURL != "https://example.invalid" {
		t.Errorf("trailing slash not trimmed: %q", c.baseURL)
	}
	if c.timeout != 12*time.Second {
		t.Errorf("expected default timeout, got %v", c.timeout)
	}
	if c.limiter.Burst() != 10 {
		t.Errorf("expected default burst 10, got %d", c.limiter.Burst())
	}
}
