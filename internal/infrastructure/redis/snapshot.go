package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockquote-service/internal/application"
	"stockquote-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

const SnapshotKey = "stockquote:quotes:latest"

var _ application.SnapshotStore = (*Snapshots)(nil)

// Snapshots mirrors the latest quote per symbol into one Redis hash so a
// restarted process can warm its cache.
type Snapshots struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

func NewSnapshots(client *redis.Client, ttl time.Duration) *Snapshots {
	return &Snapshots{Client: client, Key: SnapshotKey, TTL: ttl}
}

func (s *Snapshots) Save(ctx context.Context, q domain.Quote) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode quote %s: %w", q.Code, err)
	}
	pipe := s.Client.TxPipeline()
	pipe.HSet(ctx, s.Key, q.Code, raw)
	if s.TTL > 0 {
		pipe.Expire(ctx, s.Key, s.TTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Snapshots) LoadAll(ctx context.Context) ([]domain.Quote, error) {
	m, err := s.Client.HGetAll(ctx, s.Key).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Quote, 0, len(m))
	for code, raw := range m {
		var q domain.Quote
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", code, err)
		}
		out = append(out, q)
	}
	return out, nil
}
