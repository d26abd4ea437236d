package redisstore

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rohmanhakim/canonurl/internal/offender"
	"github.com/rohmanhakim/canonurl/internal/storage"
)

const DefaultKeyPrefix = "canonurl"

// Store keeps offenders in redis sets: one set of hostnames, and one set of
// significant keys per hostname. SADD is a union, so concurrent upserts
// commute without any read-modify-write.
type Store struct {
	client    *redis.Client
	keyPrefix string
	ownClient bool
	logger    *slog.Logger
}

var _ storage.Backend = (*Store)(nil)

// Open dials addr and verifies the connection with PING.
func Open(ctx context.Context, addr string, logger *slog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, storage.NewError(storage.DriverRedis, storage.ErrCauseConnectionFailure, "ping "+addr, err)
	}

	s := New(client, DefaultKeyPrefix, logger)
	s.ownClient = true
	s.logger.Debug("redis store opened", "addr", addr)
	return s, nil
}

// New wraps an existing client. The caller keeps ownership of client.
func New(client *redis.Client, keyPrefix string, logger *slog.Logger) *Store {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (s *Store) Close() error {
	if !s.ownClient {
		return nil
	}
	return s.client.Close()
}

func (s *Store) hostsKey() string {
	return s.keyPrefix + ":offenders"
}

func (s *Store) keysKey(hostname string) string {
	return s.keyPrefix + ":offender:" + hostname + ":keys"
}

func (s *Store) All(ctx context.Context) ([]offender.Record, error) {
	hosts, err := s.client.SMembers(ctx, s.hostsKey()).Result()
	if err != nil {
		return nil, storage.NewError(storage.DriverRedis, storage.ErrCauseReadFailure, "smembers "+s.hostsKey(), err)
	}
	if len(hosts) == 0 {
		return nil, nil
	}
	sort.Strings(hosts)

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringSliceCmd, len(hosts))
	for i, host := range hosts {
		cmds[i] = pipe.SMembers(ctx, s.keysKey(host))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, storage.NewError(storage.DriverRedis, storage.ErrCauseReadFailure, "read offender keys", err)
	}

	records := make([]offender.Record, 0, len(hosts))
	for i, host := range hosts {
		records = append(records, offender.NewRecord(host, cmds[i].Val()...))
	}
	return records, nil
}

func (s *Store) Upsert(ctx context.Context, rec offender.Record) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, s.hostsKey(), rec.Hostname)
		if len(rec.SignificantKeys) > 0 {
			members := make([]any, len(rec.SignificantKeys))
			for i, key := range rec.SignificantKeys {
				members[i] = key
			}
			pipe.SAdd(ctx, s.keysKey(rec.Hostname), members...)
		}
		return nil
	})
	if err != nil {
		return storage.NewError(storage.DriverRedis, storage.ErrCauseWriteFailure, "upsert "+rec.Hostname, err)
	}
	return nil
}
