package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"rentgate/internal/app/middleware"
)

const idempotencyPrefix = "rentgate:idemp:"

// IdempotencyStore keeps command outcomes in Redis and lets them expire after ttl.
type IdempotencyStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *goredis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

type idempotencyEntry struct {
	Payload    []byte    `json:"payload,omitempty"`
	Error      string    `json:"error,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	raw, err := s.client.Get(ctx, idempotencyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	rec, err := decodeRecord(key, raw)
	if err != nil {
		return middleware.IdempotencyRecord{}, false, err
	}
	return rec, true, nil
}

// Save keeps the first stored outcome when two replays race.
func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	raw, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	return s.client.SetNX(ctx, idempotencyPrefix+rec.Key, raw, s.ttl).Err()
}

func encodeRecord(rec middleware.IdempotencyRecord) ([]byte, error) {
	return json.Marshal(idempotencyEntry{
		Payload:    rec.Payload,
		Error:      rec.Error,
		Reason:     rec.Reason,
		OccurredAt: rec.OccurredAt,
	})
}

func decodeRecord(key string, raw []byte) (middleware.IdempotencyRecord, error) {
	var entry idempotencyEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return middleware.IdempotencyRecord{}, err
	}
	return middleware.IdempotencyRecord{
		Key:        key,
		Payload:    entry.Payload,
		Error:      entry.Error,
		Reason:     entry.Reason,
		OccurredAt: entry.OccurredAt,
	}, nil
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
