// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache memoizes computed portfolio analytics. Entries live in a
// process local LRU and, when configured, in redis so that several
// instances share results. Every entry expires a fixed time after it was
// computed and all entries of a portfolio can be dropped at once.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	DefaultTTL       = time.Hour
	DefaultLocalSize = 1024
	keyPrefix        = "pvfolio"
)

type Kind string

const (
	KindAnalysis    Kind = "analysis"
	KindPerformance Kind = "performance"
	KindBenchmark   Kind = "benchmark"
)

// Key identifies a cached result
type Key struct {
	PortfolioID string
	Period      string
	Kind        Kind
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, k.PortfolioID, k.Period, k.Kind)
}

// MarshalZerologObject implement the log marshaller interface for zerolog
func (k Key) MarshalZerologObject(e *zerolog.Event) {
	e.Str("PortfolioID", k.PortfolioID).Str("Period", k.Period).Str("Kind", string(k.Kind))
}

func indexKey(portfolioID string) string {
	return fmt.Sprintf("%s:idx:%s", keyPrefix, portfolioID)
}

func generationKey(portfolioID string) string {
	return fmt.Sprintf("%s:gen:%s", keyPrefix, portfolioID)
}

var (
	ErrStaleResult = errors.New("result computed before the portfolio was invalidated")
)

type entry struct {
	payload []byte
	created time.Time
}

// Config controls the size, lifetime and shared tier of a ResultCache.
// An empty RedisURL disables the shared tier.
type Config struct {
	LocalSize int
	TTL       time.Duration
	RedisURL  string
}

// ResultCache is safe for concurrent use. Payloads are stored encoded so
// every Get decodes an independent copy.
type ResultCache struct {
	mu    sync.RWMutex
	local *lru.Cache
	rdb   *redis.Client
	ttl   time.Duration
	now   func() time.Time

	// generations counts invalidations per portfolio
	generations map[string]uint64
}

// New creates a cache from cfg
func New(cfg Config) (*ResultCache, error) {
	if cfg.LocalSize <= 0 {
		cfg.LocalSize = DefaultLocalSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}

	local, err := lru.New(cfg.LocalSize)
	if err != nil {
		return nil, err
	}

	c := &ResultCache{
		local:       local,
		ttl:         cfg.TTL,
		now:         time.Now,
		generations: make(map[string]uint64),
	}

	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("could not parse redis URL: %w", err)
		}
		c.rdb = redis.NewClient(opt)
	}

	return c, nil
}

// NewFromConfig creates a cache from the cache.* configuration keys
func NewFromConfig() (*ResultCache, error) {
	cfg := Config{
		LocalSize: viper.GetInt("cache.local_size"),
		TTL:       viper.GetDuration("cache.ttl"),
	}
	if viper.GetBool("cache.redis") {
		cfg.RedisURL = viper.GetString("cache.redis_url")
	}
	return New(cfg)
}

// Get decodes the entry stored under key into dest. It returns false when
// the entry is missing, older than the cache TTL or cannot be decoded.
func (c *ResultCache) Get(ctx context.Context, key Key, dest interface{}) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	subLog := log.With().EmbedObject(key).Logger()

	var compressed []byte
	if val, ok := c.local.Get(key); ok {
		ent := val.(*entry)
		if c.now().Sub(ent.created) >= c.ttl {
			return false
		}
		compressed = ent.payload
	} else if c.rdb != nil {
		var err error
		compressed, err = c.rdb.Get(ctx, key.String()).Bytes()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				subLog.Warn().Err(err).Msg("could not read from redis")
			}
			return false
		}
	} else {
		return false
	}

	raw, err := decompress(compressed)
	if err != nil {
		subLog.Warn().Err(err).Msg("could not decompress cache entry")
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		subLog.Warn().Err(err).Msg("could not decode cache entry")
		return false
	}

	return true
}

// Generation returns the invalidation count of portfolioID. Read it before
// loading the data a result is computed from and pass it to Put.
func (c *ResultCache) Generation(ctx context.Context, portfolioID string) uint64 {
	if c.rdb != nil {
		gen, err := c.rdb.Get(ctx, generationKey(portfolioID)).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("PortfolioID", portfolioID).Msg("could not read redis generation")
		}
		return gen
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generations[portfolioID]
}

// Put stores payload under key, replacing any previous entry. When the
// portfolio was invalidated after gen was read the payload is dropped and
// ErrStaleResult is returned.
func (c *ResultCache) Put(ctx context.Context, key Key, gen uint64, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	compressed, err := compress(raw)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rdb == nil {
		if c.generations[key.PortfolioID] != gen {
			return ErrStaleResult
		}
		c.local.Add(key, &entry{payload: compressed, created: c.now()})
		return nil
	}

	genKey := generationKey(key.PortfolioID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return ErrStaleResult
		}

		idx := indexKey(key.PortfolioID)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key.String(), compressed, c.ttl)
			pipe.SAdd(ctx, idx, key.String())
			pipe.Expire(ctx, idx, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case errors.Is(err, ErrStaleResult), errors.Is(err, redis.TxFailedErr):
		return ErrStaleResult
	case err != nil:
		log.Warn().Err(err).EmbedObject(key).Msg("could not write to redis")
		return err
	}

	c.local.Add(key, &entry{payload: compressed, created: c.now()})
	return nil
}

// Invalidate removes every entry belonging to portfolioID
func (c *ResultCache) Invalidate(ctx context.Context, portfolioID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[portfolioID]++

	removed := 0
	for _, k := range c.local.Keys() {
		if key, ok := k.(Key); ok && key.PortfolioID == portfolioID {
			c.local.Remove(key)
			removed++
		}
	}

	subLog := log.With().Str("PortfolioID", portfolioID).Logger()

	if c.rdb != nil {
		idx := indexKey(portfolioID)
		members, err := c.rdb.SMembers(ctx, idx).Result()
		if err != nil {
			subLog.Warn().Err(err).Msg("could not read redis index")
		}
		removed += len(members)
		if err := c.rdb.Incr(ctx, generationKey(portfolioID)).Err(); err != nil {
			subLog.Warn().Err(err).Msg("could not bump redis generation")
		}
		if err := c.rdb.Del(ctx, append(members, idx)...).Err(); err != nil {
			subLog.Warn().Err(err).Msg("could not delete redis keys")
		}
	}

	subLog.Debug().Int("NumRemoved", removed).Msg("invalidated cached results")
}

// Len returns the number of entries held in the local tier
func (c *ResultCache) Len() int {
	return c.local.Len()
}

// Close releases the redis connection
func (c *ResultCache) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}
