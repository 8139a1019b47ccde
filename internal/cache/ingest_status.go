package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

type IngestState string

const (
	IngestProcessing IngestState = "processing"
	IngestReady      IngestState = "ready"
	IngestFailed     IngestState = "failed"
)

type IngestStatus struct {
	State     IngestState `json:"state"`
	Chunks    int         `json:"chunks"`
	Error     string      `json:"error,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// IngestStatusCache records how far a document's indexing has gone.
type IngestStatusCache struct {
	client redisv9.Cmdable
	ttl    time.Duration
}

func NewIngestStatusCache(client redisv9.Cmdable, ttl time.Duration) *IngestStatusCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IngestStatusCache{client: client, ttl: ttl}
}

func (c *IngestStatusCache) Set(ctx context.Context, documentID uint, status IngestStatus) error {
	if status.UpdatedAt.IsZero() {
		status.UpdatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal ingest status failed: %w", err)
	}
	if err := c.client.Set(ctx, statusKey(documentID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set ingest status failed: %w", err)
	}
	return nil
}

// Get returns false when no status is recorded.
func (c *IngestStatusCache) Get(ctx context.Context, documentID uint) (*IngestStatus, bool, error) {
	raw, err := c.client.Get(ctx, statusKey(documentID)).Result()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get ingest status failed: %w", err)
	}
	var status IngestStatus
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return nil, false, fmt.Errorf("unmarshal ingest status failed: %w", err)
	}
	return &status, true, nil
}

func (c *IngestStatusCache) Delete(ctx context.Context, documentID uint) error {
	if err := c.client.Del(ctx, statusKey(documentID)).Err(); err != nil {
		return fmt.Errorf("redis delete ingest status failed: %w", err)
	}
	return nil
}

func statusKey(documentID uint) string {
	return fmt.Sprintf("notes:ingest:%d", documentID)
}
