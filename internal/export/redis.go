package export

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const indexKey = "index"

// RedisSink stores each account as a hash at <prefix><client> and the set
// of exported clients at <prefix>index.
type RedisSink struct {
	client redis.UniversalClient
	prefix string
}

var _ Sink = (*RedisSink)(nil)

// NewRedisSink returns a sink writing through client under prefix
func NewRedisSink(client redis.UniversalClient, prefix string) *RedisSink {
	return &RedisSink{client: client, prefix: prefix}
}

// DialRedis opens a client for addr and checks that the server answers
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Name implements Sink
func (s *RedisSink) Name() string { return "redis" }

// AccountKey returns the hash key for client
func (s *RedisSink) AccountKey(client uint16) string {
	return s.prefix + strconv.FormatUint(uint64(client), 10)
}

// IndexKey returns the key of the client set
func (s *RedisSink) IndexKey() string {
	return s.prefix + indexKey
}

// Export replaces the index with this run's clients and writes one hash per
// account. Everything runs in a single MULTI/EXEC.
func (s *RedisSink) Export(ctx context.Context, run Run) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.IndexKey())

	members := make([]interface{}, 0, len(run.Accounts))
	for _, acc := range run.Accounts {
		pipe.HSet(ctx, s.AccountKey(uint16(acc.Client)),
			"available", acc.Available.String(),
			"held", acc.Held.String(),
			"total", acc.Total.String(),
			"locked", strconv.FormatBool(acc.Locked),
			"run_id", run.ID.String(),
		)
		members = append(members, strconv.FormatUint(uint64(acc.Client), 10))
	}
	if len(members) > 0 {
		pipe.SAdd(ctx, s.IndexKey(), members...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}
