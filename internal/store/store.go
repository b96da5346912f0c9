// Package store holds the shared key-value state that the collectors write and
// the render loop reads. Two backends exist: an in-process map (the default)
// and Redis, which lets other programs on the device read the same facts.
package store

import (
	"context"

	"github.com/rpint/rpint/internal/config"
	"github.com/rpint/rpint/internal/errors"
	"github.com/rpint/rpint/internal/logger"
)

// Well-known keys.
const (
	// KeyNeighbors is the hash holding the current neighbor record.
	KeyNeighbors = "neighbors"
	// KeyLocalLink is the hash holding facts about the local interface.
	KeyLocalLink = "local_link"

	KeyBatteryPower   = "battery_power"
	KeyBatteryVoltage = "battery_voltage"
	KeyBatteryLoad    = "battery_load"
)

// Store is the shared state between workers.
// Implementations must be safe for concurrent use by multiple goroutines.
type Store interface {
	// Set stores a scalar value.
	Set(ctx context.Context, key, value string) error

	// Get returns a scalar value and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// GetMany returns the scalars among keys that are present, read in one
	// step so a SetMany batch is seen whole or not at all.
	GetMany(ctx context.Context, keys ...string) (map[string]string, error)

	// SetMany stores several scalars in one step. Readers see either all of
	// the new values or none of them.
	SetMany(ctx context.Context, values map[string]string) error

	// SetHash replaces every field of a hash in one step.
	SetHash(ctx context.Context, key string, fields map[string]string) error

	// GetHash returns a copy of a hash. A missing hash yields an empty map.
	GetHash(ctx context.Context, key string) (map[string]string, error)

	// FlushAll removes every key owned by this store.
	FlushAll(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Open builds the configured backend and checks that it is reachable.
func Open(ctx context.Context, cfg config.StoreConfig, log logger.Logger) (Store, error) {
	switch cfg.Backend {
	case "", config.BackendMemory:
		log.Debug("using in-memory store")
		return NewMemory(), nil
	case config.BackendRedis:
		s := NewRedis(RedisOptions{
			Address:  cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
			Prefix:   cfg.Prefix,
		})
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, errors.WrapWithCode(err, errors.ErrStore,
				"Cannot reach redis at "+cfg.Address,
				"Start redis (systemctl start redis-server) or set store.backend = \"memory\"")
		}
		log.Info("connected to redis at %s db %d", cfg.Address, cfg.DB)
		return s, nil
	default:
		return nil, errors.New(errors.ErrStore,
			"Unknown store backend '"+cfg.Backend+"'",
			"Use 'memory' or 'redis'")
	}
}
