package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kushabhinav13/notification-service/internal/ratelimit"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultSendsPerSec int64 = 100
	waitStep                 = 10 * time.Millisecond
	waitStepMax              = 50 * time.Millisecond
	windowSeconds            = 1
)

// counterScript increments the per-second counter and expires the key with it,
// so a crashed worker never leaks rate-limit state.
var counterScript = goredis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
  return 0
end
return 1
`)

var _ ratelimit.RateLimiter = (*SendLimiter)(nil)

// SendLimiter is a distributed per-channel, per-second send rate limiter
// backed by Redis. All worker processes share the same counters.
type SendLimiter struct {
	client      *goredis.Client
	sendsPerSec int64
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewSendLimiter(client *goredis.Client, sendsPerSec int) (*SendLimiter, error) {
	return newSendLimiter(client, int64(sendsPerSec), time.Now, sleepWithContext)
}

func newSendLimiter(
	client *goredis.Client,
	sendsPerSec int64,
	nowFn func() time.Time,
	sleepFn func(ctx context.Context, d time.Duration) error,
) (*SendLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if sendsPerSec <= 0 {
		sendsPerSec = defaultSendsPerSec
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if sleepFn == nil {
		sleepFn = sleepWithContext
	}

	return &SendLimiter{
		client:      client,
		sendsPerSec: sendsPerSec,
		now:         nowFn,
		sleep:       sleepFn,
	}, nil
}

func (l *SendLimiter) Allow(ctx context.Context, channel string) (bool, error) {
	if l == nil || l.client == nil {
		return false, fmt.Errorf("send limiter is not initialized")
	}

	normalizedChannel := strings.ToLower(strings.TrimSpace(channel))
	if normalizedChannel == "" {
		return false, fmt.Errorf("channel is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	key := fmt.Sprintf("sendlimit:%s:%d", normalizedChannel, l.now().UTC().Unix())
	result, err := counterScript.Run(ctx, l.client, []string{key}, l.sendsPerSec, windowSeconds).Int()
	if err != nil {
		return false, fmt.Errorf("failed to evaluate send limit: %w", err)
	}

	return result == 1, nil
}

func (l *SendLimiter) Wait(ctx context.Context, channel string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	wait := waitStep
	for {
		allowed, err := l.Allow(ctx, channel)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}

		wait += waitStep
		if wait > waitStepMax {
			wait = waitStepMax
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
