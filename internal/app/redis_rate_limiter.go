/**
 * @description
 * Redis-backed throttle for group contributions. Each (group, member) pair
 * gets its own fixed window counter, so one member hammering the contribute
 * endpoint cannot spin the round accounting, while their activity in other
 * groups is unaffected. The counter and its expiry are maintained atomically
 * in a Lua script.
 */

package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Contribution throttle policy: at most 5 attempts per group per minute.
const (
	contributionRateLimit  = 5
	contributionRateWindow = time.Minute
)

var contributionWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisContributionRateLimiter enforces the contribution throttle against a
// shared Redis instance, so the limit holds across service replicas.
type RedisContributionRateLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

func NewRedisContributionRateLimiter(client redis.UniversalClient, prefix string) *RedisContributionRateLimiter {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "save2740:rate_limit"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")

	return &RedisContributionRateLimiter{
		client: client,
		prefix: trimmedPrefix,
		limit:  contributionRateLimit,
		window: contributionRateWindow,
	}
}

func (r *RedisContributionRateLimiter) contributionKey(groupID, userID uuid.UUID) string {
	return fmt.Sprintf("%s:group:%s:member:%s", r.prefix, groupID, userID)
}

// AllowContribution consumes one attempt from the member's window for the
// given group. When the window is exhausted it reports the seconds until the
// counter expires. An unconfigured limiter allows everything.
func (r *RedisContributionRateLimiter) AllowContribution(ctx context.Context, groupID, userID uuid.UUID) (allowed bool, retryAfterSeconds int, err error) {
	if r == nil || r.client == nil || r.limit <= 0 || r.window <= 0 {
		return true, 0, nil
	}

	windowMs := r.window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}

	key := r.contributionKey(groupID, userID)
	rawResult, err := contributionWindowScript.Run(ctx, r.client, []string{key}, windowMs).Result()
	if err != nil {
		return false, 0, err
	}

	values, ok := rawResult.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, fmt.Errorf("unexpected redis limiter response shape: %T", rawResult)
	}

	count, ok := values[0].(int64)
	if !ok {
		return false, 0, fmt.Errorf("unexpected redis limiter count type: %T", values[0])
	}

	ttlMs, ok := values[1].(int64)
	if !ok {
		return false, 0, fmt.Errorf("unexpected redis limiter ttl type: %T", values[1])
	}
	if ttlMs < 0 {
		ttlMs = windowMs
	}

	if count <= int64(r.limit) {
		return true, 0, nil
	}

	retryAfter := int(math.Ceil(float64(ttlMs) / 1000.0))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return false, retryAfter, nil
}
