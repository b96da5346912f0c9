package store

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rpint/rpint/internal/errors"
)

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
	// Prefix is prepended to every key so several tools can share a DB.
	Prefix string
}

// Redis is a Store backed by a Redis server. Multi-key writes run inside
// MULTI/EXEC so readers never see half of an update.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a client. It does not contact the server; use Ping.
func NewRedis(opts RedisOptions) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Address,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		prefix: opts.Prefix,
	}
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

// Ping checks the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Set implements Store.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return wrap(err, "SET "+key)
	}
	return nil
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap(err, "GET "+key)
	}
	return v, true, nil
}

// GetMany implements Store with a single MGET.
func (r *Redis) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	vals, err := r.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, wrap(err, "MGET")
	}
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[keys[i]] = s
		}
	}
	return out, nil
}

// SetMany implements Store.
func (r *Redis) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, r.key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		return wrap(err, "batched SET")
	}
	return nil
}

// SetHash implements Store. The old fields are deleted in the same transaction.
func (r *Redis) SetHash(ctx context.Context, key string, fields map[string]string) error {
	full := r.key(key)
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, full)
		if len(args) > 0 {
			pipe.HSet(ctx, full, args...)
		}
		return nil
	})
	if err != nil {
		return wrap(err, "HSET "+key)
	}
	return nil
}

// GetHash implements Store.
func (r *Redis) GetHash(ctx context.Context, key string) (map[string]string, error) {
	m, err := r.client.HGetAll(ctx, r.key(key)).Result()
	if err != nil {
		return nil, wrap(err, "HGETALL "+key)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

// FlushAll empties the selected database, or only the prefixed keys when a
// prefix is configured.
func (r *Redis) FlushAll(ctx context.Context) error {
	if r.prefix == "" {
		if err := r.client.FlushDB(ctx).Err(); err != nil {
			return wrap(err, "FLUSHDB")
		}
		return nil
	}

	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return wrap(err, "SCAN "+r.prefix+"*")
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return wrap(err, "DEL")
	}
	return nil
}

// Close implements Store.
func (r *Redis) Close() error {
	return r.client.Close()
}

func wrap(err error, op string) error {
	return errors.WrapWithCode(err, errors.ErrStore,
		"Redis "+op+" failed",
		"Check that redis is running and reachable")
}
