package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/i474232898/coffee-machine/internal/coffee"
	"github.com/i474232898/coffee-machine/internal/common"
)

const (
	recordKeyNameTemplate = "_coffee_req_%s"
)

// redisRecord is the JSON value stored under the machine key.
type redisRecord struct {
	RequestCount    int    `json:"request_count"`
	LastRequestDate string `json:"last_request_date"`
}

// RedisStore keeps the brew record as a JSON string value.
type RedisStore struct {
	cli       *redis.Client
	machineID string
}

// NewRedisStore wraps an already connected client.
func NewRedisStore(cli *redis.Client, machineID string) *RedisStore {
	return &RedisStore{cli: cli, machineID: machineID}
}

// Get returns nil when the key does not exist.
func (s *RedisStore) Get(ctx context.Context) (*coffee.BrewRecord, error) {
	out := s.cli.Get(ctx, getRecordKey(s.machineID))
	if out.Err() != nil {
		if errors.Is(out.Err(), redis.Nil) {
			return nil, nil
		}
		return nil, out.Err()
	}

	var rec redisRecord
	if err := json.Unmarshal([]byte(out.Val()), &rec); err != nil {
		return nil, fmt.Errorf("invalid record: %w", err)
	}
	date, err := common.ParseDate(rec.LastRequestDate)
	if err != nil {
		return nil, fmt.Errorf("invalid last_request_date: %w", err)
	}
	return &coffee.BrewRecord{RequestCount: rec.RequestCount, LastRequestDate: date}, nil
}

// Update stores the record without expiry.
func (s *RedisStore) Update(ctx context.Context, record coffee.BrewRecord) error {
	out, err := json.Marshal(redisRecord{
		RequestCount:    record.RequestCount,
		LastRequestDate: common.FormatDate(record.LastRequestDate),
	})
	if err != nil {
		return err
	}
	return s.cli.Set(ctx, getRecordKey(s.machineID), string(out), 0).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.cli.Close()
}

func getRecordKey(machineID string) string {
	return fmt.Sprintf(recordKeyNameTemplate, machineID)
}
