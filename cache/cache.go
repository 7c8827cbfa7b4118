// Package cache keeps the latest dataset in Redis for the HTTP API.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/klauspost/compress/zstd"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"companydash/finance"
)

const (
	latestKey      = "companydash:dataset:latest"
	snapshotPrefix = "companydash:dataset:"
)

// ErrNoSnapshot is returned when no dataset has been stored yet.
var ErrNoSnapshot = eris.New("cache: no snapshot")

// NewClient connects to Redis and checks the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrapf(err, "cache: connect %s", addr)
	}
	return client, nil
}

// Memoize returns the cached value for key, or calls fn and caches its result for ttl.
// Cache read and write failures fall through to fn.
func Memoize[T any](ctx context.Context, rdb redis.Cmdable, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	var result T

	cachedData, err := rdb.Get(ctx, key).Bytes()
	if err == nil {
		if jsonErr := json.Unmarshal(cachedData, &result); jsonErr == nil {
			return result, nil
		}
	}

	result, err = fn()
	if err != nil {
		return result, err
	}

	cacheData, err := json.Marshal(result)
	if err == nil {
		err = rdb.Set(ctx, key, cacheData, ttl).Err()
	}
	if err != nil {
		zap.L().Warn("memoize: cache write failed", zap.String("key", key), zap.Error(err))
	}

	return result, nil
}

// SnapshotStore saves datasets as zstd-compressed JSON.
type SnapshotStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewSnapshotStore returns a store whose entries expire after ttl (0 keeps them).
func NewSnapshotStore(rdb redis.Cmdable, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{rdb: rdb, ttl: ttl}
}

// Save stores ds under its run ID and marks it as the latest.
func (s *SnapshotStore) Save(ctx context.Context, ds finance.Dataset) error {
	payload, err := Encode(ds)
	if err != nil {
		return err
	}

	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, snapshotPrefix+ds.RunID, payload, s.ttl)
		p.Set(ctx, latestKey, ds.RunID, s.ttl)
		return nil
	})
	if err != nil {
		return eris.Wrapf(err, "cache: save snapshot %s", ds.RunID)
	}
	return nil
}

// Latest returns the most recently saved dataset.
func (s *SnapshotStore) Latest(ctx context.Context) (*finance.Dataset, error) {
	runID, err := s.rdb.Get(ctx, latestKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, eris.Wrap(err, "cache: read latest run id")
	}
	return s.Get(ctx, runID)
}

// Get returns the dataset saved for runID.
func (s *SnapshotStore) Get(ctx context.Context, runID string) (*finance.Dataset, error) {
	payload, err := s.rdb.Get(ctx, snapshotPrefix+runID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, eris.Wrapf(ErrNoSnapshot, "run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "cache: read snapshot %s", runID)
	}
	return Decode(payload)
}

// Encode serialises ds as zstd-compressed JSON.
func Encode(ds finance.Dataset) ([]byte, error) {
	raw, err := json.Marshal(ds)
	if err != nil {
		return nil, eris.Wrap(err, "cache: marshal dataset")
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, eris.Wrap(err, "cache: create zstd encoder")
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

// Decode reverses Encode.
func Decode(payload []byte) (*finance.Dataset, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, eris.Wrap(err, "cache: create zstd decoder")
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, eris.Wrap(err, "cache: decompress snapshot")
	}
	var ds finance.Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, eris.Wrap(err, "cache: unmarshal snapshot")
	}
	return &ds, nil
}
