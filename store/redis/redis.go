/*
Package redis provides a Redis-backed implementation of generic.BatchStore.

PURPOSE:
  Lets several processes (the HTTP server and ledgerctl, or two server
  replicas behind a proxy) share one ledger. Each collection is one string
  value under "<prefix><key>".

ATOMIC BATCHES:
  SetBatch wraps every SET in MULTI/EXEC through TxPipelined, so readers
  never observe a sale without its debt row.

USAGE:
  st, err := redis.New(ctx, redis.Config{URL: "redis://localhost:6379/0", Prefix: "shop1:"}, log)
  defer st.Close()
  ledger, err := business.Open(ctx, st, business.Options{})

SEE ALSO:
  - generic/store.go: Interface definitions
  - store/sqlite/sqlite.go: Embedded single-process alternative
*/
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bizmob/ledger/generic"
)

// DefaultPrefix namespaces ledger keys in a shared Redis.
const DefaultPrefix = "ledger:"

// Config selects the Redis instance. URL wins over Addr when both are set.
type Config struct {
	URL      string
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store implements generic.BatchStore on Redis.
type Store struct {
	client *goredis.Client
	prefix string
	log    *zap.Logger
}

var _ generic.BatchStore = (*Store)(nil)

// New connects and pings Redis.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Store, error) {
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewWithClient(client, cfg.Prefix, log), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, prefix string, log *zap.Logger) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{client: client, prefix: prefix, log: log}
}

// Options builds client options from cfg.
func Options(cfg Config) (*goredis.Options, error) {
	if cfg.URL != "" {
		opt, err := goredis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	addr := cfg.Addr
	if addr == "" {
		addr = net.JoinHostPort("127.0.0.1", "6379")
	}
	return &goredis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return payload, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// SetBatch writes all entries in one MULTI/EXEC.
func (s *Store) SetBatch(ctx context.Context, entries map[string][]byte) error {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, k := range keys {
			pipe.Set(ctx, s.key(k), entries[k], 0)
		}
		return nil
	})
	if err != nil {
		s.log.Error("redis batch write failed", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("redis batch write: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Keys lists the unprefixed keys held under this store's prefix.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan failed: %w", err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Reset deletes every key under the prefix.
func (s *Store) Reset(ctx context.Context) error {
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
