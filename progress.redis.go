package confluence

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/tidwall/sjson"
)

// RedisProgressPublisher relays progress snapshots onto a Redis channel
// so observers outside the merging process (dashboards, the function
// trigger that queued the merge) can follow a long-running merge. It is
// purely an adapter over OnProgress; the core never touches Redis.
type RedisProgressPublisher struct {
	rdb     *redis.Client
	channel string
}

// NewRedisProgressPublisher connects to Redis by URL, falling back to
// treating the value as a bare address.
func NewRedisProgressPublisher(metaURL, channel string) *RedisProgressPublisher {
	opt, err := redis.ParseURL(metaURL)
	if err != nil {
		// Fallback to treating it as an address
		opt = &redis.Options{
			Addr: metaURL,
		}
	}
	return &RedisProgressPublisher{
		rdb:     redis.NewClient(opt),
		channel: channel,
	}
}

// Callback returns an OnProgress function that publishes each snapshot
// as a JSON payload. mergeID tags the payload so one channel can carry
// several concurrent merges; pass "" to omit it. Publish failures are
// dropped: progress is advisory and must never fail a merge.
func (p *RedisProgressPublisher) Callback(ctx context.Context, mergeID string) func(ProgressSnapshot) {
	return func(s ProgressSnapshot) {
		body, _ := sjson.Set("", "inputIndex", s.InputIndex)
		body, _ = sjson.Set(body, "totalInputs", s.TotalInputs)
		body, _ = sjson.Set(body, "inputBytes", s.InputBytes)
		body, _ = sjson.Set(body, "mergedBytes", s.MergedBytes)
		if mergeID != "" {
			body, _ = sjson.Set(body, "mergeId", mergeID)
		}
		p.rdb.Publish(ctx, p.channel, body)
	}
}

// Close releases the Redis connection.
func (p *RedisProgressPublisher) Close() error {
	return p.rdb.Close()
}
