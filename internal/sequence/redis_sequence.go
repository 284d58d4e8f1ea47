package sequence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisSource is the centralized Source implementation named in spec §4.3:
// a remote atomic-increment primitive keyed by "bid:seq:{lotId}". Only
// this variant preserves global ordering across multiple API instances.
type RedisSource struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisSource wraps an existing redis client. ctx is used for every
// Incr/Get call issued by this source; callers that need per-call
// cancellation should use a client configured with their own timeouts.
func NewRedisSource(ctx context.Context, client *redis.Client) *RedisSource {
	return &RedisSource{client: client, ctx: ctx}
}

func seqKey(lotID uuid.UUID) string {
	return fmt.Sprintf("bid:seq:%s", lotID)
}

func (s *RedisSource) Next(lotID uuid.UUID) (int64, error) {
	n, err := s.client.Incr(s.ctx, seqKey(lotID)).Result()
	if err != nil {
		return 0, fmt.Errorf("sequence: redis incr %s: %w", seqKey(lotID), err)
	}
	return n, nil
}

func (s *RedisSource) Current(lotID uuid.UUID) int64 {
	n, err := s.client.Get(s.ctx, seqKey(lotID)).Int64()
	if err != nil {
		return 0
	}
	return n
}
