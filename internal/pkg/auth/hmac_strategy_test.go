package auth

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func fixedStrategy(ttl time.Duration) *HMACStrategy {
	return NewHMACStrategy("secret", Options{TTL: ttl, Now: func() time.Time { return fixedNow }})
}

func signed(s *HMACStrategy, payload string) string {
	return tokenEncoding.EncodeToString([]byte(payload + "." + s.sign(payload)))
}

func TestNewHMACStrategyDefaults(t *testing.T) {
	strategy := NewHMACStrategy("secret", Options{})
	if string(strategy.secret) != "secret" {
		t.Fatalf("unexpected secret: %q", string(strategy.secret))
	}
	if strategy.ttl != 24*time.Hour {
		t.Fatalf("unexpected ttl: %s", strategy.ttl)
	}
	if strategy.now == nil {
		t.Fatal("expected default clock")
	}
}

func TestNewHMACStrategyCustomTTL(t *testing.T) {
	strategy := NewHMACStrategy("secret", Options{TTL: 2 * time.Hour})
	if strategy.ttl != 2*time.Hour {
		t.Fatalf("unexpected ttl: %s", strategy.ttl)
	}
}

func TestHMACStrategyIssueAndParse(t *testing.T) {
	strategy := fixedStrategy(time.Minute)
	token, err := strategy.IssueToken(42)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if strings.ContainsAny(token, "+/=") {
		t.Fatalf("expected url-safe token, got %q", token)
	}
	userID, err := strategy.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if userID != 42 {
		t.Fatalf("unexpected user id: %d", userID)
	}
}

func TestHMACStrategyRejectsNonPositiveUser(t *testing.T) {
	if _, err := fixedStrategy(time.Minute).IssueToken(0); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHMACStrategyExpiresAfterTTL(t *testing.T) {
	now := fixedNow
	strategy := NewHMACStrategy("secret", Options{TTL: time.Minute, Now: func() time.Time { return now }})
	token, err := strategy.IssueToken(5)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	now = fixedNow.Add(59 * time.Second)
	if _, err := strategy.ParseToken(token); err != nil {
		t.Fatalf("expected token valid before expiry, got %v", err)
	}
	now = fixedNow.Add(time.Minute)
	if _, err := strategy.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
}

func TestHMACStrategyRejectsOtherSecret(t *testing.T) {
	token, err := fixedStrategy(time.Minute).IssueToken(7)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	other := NewHMACStrategy("other", Options{Now: func() time.Time { return fixedNow }})
	if _, err := other.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHMACStrategyParseMalformed(t *testing.T) {
	strategy := fixedStrategy(time.Minute)
	expires := fixedNow.Add(time.Minute).Unix()

	tests := map[string]string{
		"not base64":      "not base64!",
		"too few parts":   tokenEncoding.EncodeToString([]byte("v1.10")),
		"wrong version":   signed(strategy, fmt.Sprintf("v0.10.%d", expires)),
		"bad signature":   tokenEncoding.EncodeToString([]byte(fmt.Sprintf("v1.10.%d.tampered", expires))),
		"bad user id":     signed(strategy, fmt.Sprintf("v1.abc.%d", expires)),
		"negative user":   signed(strategy, fmt.Sprintf("v1.-3.%d", expires)),
		"bad expiry":      signed(strategy, "v1.10.soon"),
		"already expired": signed(strategy, fmt.Sprintf("v1.10.%d", fixedNow.Add(-time.Minute).Unix())),
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := strategy.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestHMACStrategyName(t *testing.T) {
	if name := NewHMACStrategy("secret", Options{}).Name(); name != "hmac-sha256" {
		t.Fatalf("unexpected name: %s", name)
	}
}
