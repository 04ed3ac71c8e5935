// Package ban counts rate-limit strikes per client and bans repeat offenders for a while.
// State lives in Redis; without a Redis service every call is a no-op.
package ban

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/rogerio-castellano/restock-analytics/internal/redissvc"
)

const (
	strikeKeyPrefix = "ratelimit:strikes:"
	banKeyPrefix    = "ratelimit:ban:"
	DailyBanLogKey  = "ratelimit:banlog:daily"
)

var (
	mu          sync.RWMutex
	rdb         *redis.Client
	maxStrikes  = 5
	banDuration = 15 * time.Minute
)

func SetRedisService(rs *redissvc.RedisService) {
	mu.Lock()
	defer mu.Unlock()

	rdb = nil
	if rs != nil {
		rdb = rs.Rdb()
	}
}

// Configure sets how many strikes inside one ban period trigger a ban.
func Configure(strikes int, ban time.Duration) {
	mu.Lock()
	defer mu.Unlock()

	if strikes > 0 {
		maxStrikes = strikes
	}
	if ban > 0 {
		banDuration = ban
	}
}

func client() (*redis.Client, int, time.Duration) {
	mu.RLock()
	defer mu.RUnlock()
	return rdb, maxStrikes, banDuration
}

// IsBanned reports whether target is currently banned.
func IsBanned(ctx context.Context, target string) (bool, error) {
	c, _, _ := client()
	if c == nil {
		return false, nil
	}
	n, err := c.Exists(ctx, banKeyPrefix+target).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check ban: %w", err)
	}
	return n > 0, nil
}

// RegisterStrike adds a strike for target and bans it once the limit is reached.
// It reports whether target is banned after this strike.
func RegisterStrike(ctx context.Context, target, route string) (bool, error) {
	c, limit, ttl := client()
	if c == nil {
		return false, nil
	}

	key := strikeKeyPrefix + target
	pipe := c.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to register strike: %w", err)
	}

	strikes := int(incr.Val())
	if strikes < limit {
		return false, nil
	}

	if err := c.Set(ctx, banKeyPrefix+target, strikes, ttl).Err(); err != nil {
		return false, fmt.Errorf("failed to ban %s: %w", target, err)
	}
	_ = c.Del(ctx, key).Err()

	log.Warn().Str("target", target).Str("route", route).Int("strikes", strikes).Dur("ban", ttl).Msg("client banned")
	logBanEvent(ctx, c, target, route, strikes)
	return true, nil
}

type BanLogEntry struct {
	Target  string    `json:"target"`
	Route   string    `json:"route"`
	Strikes int       `json:"strikes"`
	Time    time.Time `json:"time"`
}

func logBanEvent(ctx context.Context, c *redis.Client, target, route string, strikes int) {
	entry := BanLogEntry{
		Target:  target,
		Route:   route,
		Strikes: strikes,
		Time:    time.Now().UTC(),
	}
	data, _ := json.Marshal(entry)
	_ = c.RPush(ctx, DailyBanLogKey, data).Err()
}

// BanSummary aggregates the ban log.
type BanSummary struct {
	Total    int            `json:"total"`
	ByRoute  map[string]int `json:"by_route"`
	ByTarget map[string]int `json:"by_target"`
	Entries  []BanLogEntry  `json:"entries"`
}

// DrainBanSummary reads and clears the ban log.
func DrainBanSummary(ctx context.Context) (BanSummary, error) {
	summary := BanSummary{ByRoute: map[string]int{}, ByTarget: map[string]int{}, Entries: []BanLogEntry{}}

	c, _, _ := client()
	if c == nil {
		return summary, nil
	}

	var items *redis.StringSliceCmd
	if _, err := c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		items = pipe.LRange(ctx, DailyBanLogKey, 0, -1)
		pipe.Del(ctx, DailyBanLogKey)
		return nil
	}); err != nil {
		return summary, fmt.Errorf("failed to read ban log: %w", err)
	}

	for _, item := range items.Val() {
		var entry BanLogEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		summary.Entries = append(summary.Entries, entry)
		summary.ByRoute[entry.Route]++
		summary.ByTarget[entry.Target]++
	}
	sort.Slice(summary.Entries, func(i, j int) bool { return summary.Entries[i].Time.Before(summary.Entries[j].Time) })
	summary.Total = len(summary.Entries)
	return summary, nil
}

// StartDailyBanSummary logs the drained ban log every interval until ctx is done.
func StartDailyBanSummary(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			summary, err := DrainBanSummary(ctx)
			if err != nil {
				log.Error().Err(err).Msg("ban summary failed")
				continue
			}
			if summary.Total == 0 {
				continue
			}
			log.Info().
				Int("total", summary.Total).
				Interface("by_route", summary.ByRoute).
				Interface("by_target", summary.ByTarget).
				Msg("ban summary")
		}
	}
}
