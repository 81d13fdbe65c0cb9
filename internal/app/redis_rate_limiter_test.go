package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

func TestNewRedisContributionRateLimiterNormalizesPrefix(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{name: "empty falls back", prefix: "", want: "save2740:rate_limit"},
		{name: "whitespace falls back", prefix: "   ", want: "save2740:rate_limit"},
		{name: "trailing colon trimmed", prefix: "custom:prefix:", want: "custom:prefix"},
		{name: "kept as-is", prefix: "custom", want: "custom"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			limiter := NewRedisContributionRateLimiter(nil, tc.prefix)
			if limiter.prefix != tc.want {
				t.Errorf("prefix = %q, want %q", limiter.prefix, tc.want)
			}
			if limiter.limit != contributionRateLimit || limiter.window != contributionRateWindow {
				t.Errorf("policy = %d/%v, want %d/%v",
					limiter.limit, limiter.window, contributionRateLimit, contributionRateWindow)
			}
		})
	}
}

func TestContributionKeyIsGroupScoped(t *testing.T) {
	limiter := NewRedisContributionRateLimiter(nil, "save2740:rate_limit")
	groupID := uuid.New()
	userID := uuid.New()

	key := limiter.contributionKey(groupID, userID)
	want := fmt.Sprintf("save2740:rate_limit:group:%s:member:%s", groupID, userID)
	if key != want {
		t.Fatalf("key = %q, want %q", key, want)
	}

	// The same member in a different group consumes a different window.
	otherGroup := uuid.New()
	if limiter.contributionKey(otherGroup, userID) == key {
		t.Error("keys for different groups should not collide")
	}
}

func TestAllowContributionWithoutClientAllowsEverything(t *testing.T) {
	limiter := NewRedisContributionRateLimiter(nil, "")
	for i := 0; i < contributionRateLimit*2; i++ {
		allowed, retryAfter, err := limiter.AllowContribution(context.Background(), uuid.New(), uuid.New())
		if err != nil {
			t.Fatal(err)
		}
		if !allowed || retryAfter != 0 {
			t.Fatalf("unconfigured limiter should allow, got allowed=%v retryAfter=%d", allowed, retryAfter)
		}
	}
}
