package config

import (
	"testing"
	"time"
)

func TestLoadIncludesGroupingDefaults(t *testing.T) {
	t.Setenv("PAIR_THRESHOLD", "")
	t.Setenv("CAROUSEL_THRESHOLD", "")
	t.Setenv("CAROUSEL_MIN_CARDS", "")
	t.Setenv("CAROUSEL_MAX_CARDS", "")
	t.Setenv("MATCH_FINGERPRINT_WEIGHT", "")
	t.Setenv("API_IN_FLIGHT_WAIT_MS", "")
	t.Setenv("RETRY_MAX_BACKOFF_MS", "")
	t.Setenv("BREAKER_OPEN_TIMEOUT_MS", "")

	cfg := Load()
	if cfg.PairThreshold != 0.55 {
		t.Fatalf("expected default pair threshold 0.55, got %v", cfg.PairThreshold)
	}
	if cfg.CarouselThreshold != 0.65 {
		t.Fatalf("expected default carousel threshold 0.65, got %v", cfg.CarouselThreshold)
	}
	if cfg.CarouselMinCards != 5 || cfg.CarouselMaxCards != 10 {
		t.Fatalf("expected carousel bounds 5-10, got %d-%d", cfg.CarouselMinCards, cfg.CarouselMaxCards)
	}
	if cfg.MatchFingerprintWeight != 0.7 {
		t.Fatalf("expected default fingerprint weight 0.7, got %v", cfg.MatchFingerprintWeight)
	}
	if cfg.InFlightWait != 250*time.Millisecond {
		t.Fatalf("expected default in-flight wait 250ms, got %s", cfg.InFlightWait)
	}
	if cfg.RetryMaxBackoff != 1500*time.Millisecond || cfg.BreakerOpenFor != 15*time.Second {
		t.Fatalf("expected resilience defaults 1.5s/15s, got %s/%s", cfg.RetryMaxBackoff, cfg.BreakerOpenFor)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("PAIR_THRESHOLD", "0.6")
	t.Setenv("CAROUSEL_MAX_CARDS", "8")
	t.Setenv("SESSION_STORE", "memory")
	t.Setenv("S3_USE_SSL", "false")
	t.Setenv("MONTH_CAMPAIGN", "true")

	cfg := Load()
	if cfg.PairThreshold != 0.6 {
		t.Fatalf("expected pair threshold 0.6, got %v", cfg.PairThreshold)
	}
	if cfg.CarouselMaxCards != 8 {
		t.Fatalf("expected carousel max 8, got %d", cfg.CarouselMaxCards)
	}
	if cfg.SessionStore != "memory" {
		t.Fatalf("expected memory store, got %q", cfg.SessionStore)
	}
	if cfg.S3UseSSL || !cfg.MonthCampaign {
		t.Fatalf("expected bool overrides, got ssl=%v month=%v", cfg.S3UseSSL, cfg.MonthCampaign)
	}
}

func TestLoadFallsBackOnGarbage(t *testing.T) {
	t.Setenv("PAIR_THRESHOLD", "high")
	t.Setenv("CAROUSEL_MIN_CARDS", "five")

	cfg := Load()
	if cfg.PairThreshold != 0.55 || cfg.CarouselMinCards != 5 {
		t.Fatalf("expected fallbacks, got %v %d", cfg.PairThreshold, cfg.CarouselMinCards)
	}
}
