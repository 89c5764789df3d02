package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gamerit/application"
	"gamerit/domain/entities"
	"gamerit/domain/events"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	activeRoundKey     = "gamerit:round:active"
	activeHotPotatoKey = "gamerit:hot_potato:active"
	leaderboardKey     = "gamerit:leaderboard"
	stocksKey          = "gamerit:stocks"
)

// RedisQueryCache wraps a QueryHandler with a Redis read-through cache for the
// hottest views. Entries expire after ttl and are dropped early when a
// committed event changes what they show. Redis failures fall back to the
// primary handler.
type RedisQueryCache struct {
	primary application.QueryHandler
	rdb     *redis.Client
	ttl     time.Duration
}

// NewRedisQueryCache creates a cached wrapper around primary
func NewRedisQueryCache(primary application.QueryHandler, rdb *redis.Client, ttl time.Duration) *RedisQueryCache {
	return &RedisQueryCache{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// NewRedisClient connects to the Redis server at redisURL
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

// --- Read-through ---

func (c *RedisQueryCache) ActiveRound(ctx context.Context) (*entities.Round, error) {
	var round *entities.Round
	if c.get(ctx, activeRoundKey, &round) {
		return round, nil
	}

	round, err := c.primary.ActiveRound(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, activeRoundKey, round)
	return round, nil
}

func (c *RedisQueryCache) ActiveHotPotatoRounds(ctx context.Context) ([]*entities.HotPotatoRound, error) {
	var rounds []*entities.HotPotatoRound
	if c.get(ctx, activeHotPotatoKey, &rounds) {
		return rounds, nil
	}

	rounds, err := c.primary.ActiveHotPotatoRounds(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, activeHotPotatoKey, rounds)
	return rounds, nil
}

func (c *RedisQueryCache) Leaderboard(ctx context.Context, limit int) ([]*entities.Player, error) {
	field := strconv.Itoa(limit)
	var players []*entities.Player
	if c.hget(ctx, leaderboardKey, field, &players) {
		return players, nil
	}

	players, err := c.primary.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	c.hset(ctx, leaderboardKey, field, players)
	return players, nil
}

func (c *RedisQueryCache) ListStocks(ctx context.Context, activeOnly bool) ([]*entities.MemeStock, error) {
	field := strconv.FormatBool(activeOnly)
	var stocks []*entities.MemeStock
	if c.hget(ctx, stocksKey, field, &stocks) {
		return stocks, nil
	}

	stocks, err := c.primary.ListStocks(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	c.hset(ctx, stocksKey, field, stocks)
	return stocks, nil
}

// --- Passthrough (not cached) ---

func (c *RedisQueryCache) GetPlayer(ctx context.Context, externalID string) (*entities.Player, error) {
	return c.primary.GetPlayer(ctx, externalID)
}

func (c *RedisQueryCache) BalanceHistory(ctx context.Context, externalID string, limit int) ([]*entities.BalanceHistory, error) {
	return c.primary.BalanceHistory(ctx, externalID, limit)
}

func (c *RedisQueryCache) PlayerWagers(ctx context.Context, externalID string, limit int) ([]*entities.Wager, error) {
	return c.primary.PlayerWagers(ctx, externalID, limit)
}

func (c *RedisQueryCache) GetRound(ctx context.Context, id int64) (*entities.Round, error) {
	return c.primary.GetRound(ctx, id)
}

func (c *RedisQueryCache) RecentRounds(ctx context.Context, limit int) ([]*entities.Round, error) {
	return c.primary.RecentRounds(ctx, limit)
}

func (c *RedisQueryCache) RoundPot(ctx context.Context, id int64) (*entities.Pot, error) {
	return c.primary.RoundPot(ctx, id)
}

func (c *RedisQueryCache) GetHotPotatoRound(ctx context.Context, id int64) (*entities.HotPotatoRound, error) {
	return c.primary.GetHotPotatoRound(ctx, id)
}

func (c *RedisQueryCache) Portfolio(ctx context.Context, externalID string) ([]*entities.PortfolioEntry, error) {
	return c.primary.Portfolio(ctx, externalID)
}

// --- Invalidation ---

// HandleEvent drops the cached views an event makes stale. Registered as a
// local handler so it runs after commit.
func (c *RedisQueryCache) HandleEvent(ctx context.Context, event events.Event) error {
	var keys []string
	switch event.Type() {
	case events.EventTypeRoundCreated, events.EventTypeRoundStateChange:
		keys = []string{activeRoundKey}
	case events.EventTypeHotPotatoCreated, events.EventTypeHotPotatoResolved:
		keys = []string{activeHotPotatoKey}
	case events.EventTypePlayerCreated, events.EventTypeBalanceChange:
		keys = []string{leaderboardKey}
	case events.EventTypeStockPriceUpdated, events.EventTypeTradeExecuted:
		keys = []string{stocksKey}
	default:
		return nil
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate %v: %w", keys, err)
	}
	return nil
}

// InvalidatedEventTypes lists the event types HandleEvent reacts to
func (c *RedisQueryCache) InvalidatedEventTypes() []events.EventType {
	return []events.EventType{
		events.EventTypeRoundCreated,
		events.EventTypeRoundStateChange,
		events.EventTypeHotPotatoCreated,
		events.EventTypeHotPotatoResolved,
		events.EventTypePlayerCreated,
		events.EventTypeBalanceChange,
		events.EventTypeStockPriceUpdated,
		events.EventTypeTradeExecuted,
	}
}

// --- Cache helpers ---

func (c *RedisQueryCache) get(ctx context.Context, key string, dest any) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.WithError(err).WithField("key", key).Warn("Redis read failed, using store")
		}
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (c *RedisQueryCache) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.WithError(err).WithField("key", key).Warn("Redis write failed")
	}
}

func (c *RedisQueryCache) hget(ctx context.Context, key, field string, dest any) bool {
	data, err := c.rdb.HGet(ctx, key, field).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.WithError(err).WithField("key", key).Warn("Redis read failed, using store")
		}
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// hset stores one view of a family under a hash so that a single DEL drops
// every variant
func (c *RedisQueryCache) hset(ctx context.Context, key, field string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, field, data)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		log.WithError(err).WithField("key", key).Warn("Redis write failed")
	}
}
