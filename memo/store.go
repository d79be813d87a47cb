package memo

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/graphene-go/graphene/value"
)

// RecordStore persists introspection records outside the process so
// spreadsheet and history views survive runtime restarts. Keys are
// stable addresses of document nodes (path strings); each key holds a
// capped, newest-first history.
type RecordStore interface {
	// Append adds a record to the key's history.
	Append(ctx context.Context, key string, rec value.IORecord) error

	// Latest returns the newest record for the key; ok is false when the
	// key has no history.
	Latest(ctx context.Context, key string) (value.IORecord, bool, error)

	// History returns up to n records for the key, newest first.
	History(ctx context.Context, key string, n int) ([]value.IORecord, error)

	// Close releases the store's connection.
	Close() error
}

// RedisOptions configures the Redis connection backing a record store.
type RedisOptions struct {
	// URL is the Redis connection string (e.g. "redis://localhost:6379").
	URL string

	// TLS configuration for secure connections.
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection establishment.
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations.
	WriteTimeout time.Duration

	// HistoryCap bounds the records retained per key; zero means 64.
	HistoryCap int
}

// RedisRecordStore implements RecordStore on go-redis/v9.
type RedisRecordStore struct {
	client *redis.Client
	cap    int64
}

// NewRedisRecordStore connects a record store with the given options.
func NewRedisRecordStore(opts RedisOptions) (*RedisRecordStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 5 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.HistoryCap <= 0 {
		opts.HistoryCap = 64
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("memo: parse Redis URL: %w", err)
	}
	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("memo: connect to Redis: %w", err)
	}

	return &RedisRecordStore{client: client, cap: int64(opts.HistoryCap)}, nil
}

// Append implements RecordStore. Histories are newest-first lists,
// trimmed to the configured cap.
func (s *RedisRecordStore) Append(ctx context.Context, key string, rec value.IORecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("memo: marshal record: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, s.cap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("memo: append record to %s: %w", key, err)
	}
	return nil
}

// Latest implements RecordStore.
func (s *RedisRecordStore) Latest(ctx context.Context, key string) (value.IORecord, bool, error) {
	data, err := s.client.LIndex(ctx, key, 0).Result()
	if err == redis.Nil {
		return value.IORecord{}, false, nil
	}
	if err != nil {
		return value.IORecord{}, false, fmt.Errorf("memo: latest record of %s: %w", key, err)
	}
	var rec value.IORecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return value.IORecord{}, false, fmt.Errorf("memo: unmarshal record: %w", err)
	}
	return rec, true, nil
}

// History implements RecordStore.
func (s *RedisRecordStore) History(ctx context.Context, key string, n int) ([]value.IORecord, error) {
	if n <= 0 {
		n = int(s.cap)
	}
	items, err := s.client.LRange(ctx, key, 0, int64(n)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("memo: history of %s: %w", key, err)
	}
	records := make([]value.IORecord, 0, len(items))
	for _, item := range items {
		var rec value.IORecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("memo: unmarshal record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Close implements RecordStore.
func (s *RedisRecordStore) Close() error {
	return s.client.Close()
}
