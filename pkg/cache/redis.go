package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"thr-trivia/internal/models"
)

const cacheTTL = 24 * time.Hour

type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisCache(addr string) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisCache{
		client: client,
		ctx:    context.Background(),
	}
}

func (c *RedisCache) SetRoom(room *models.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	key := "room:" + room.AccessCode
	return c.client.Set(c.ctx, key, data, cacheTTL).Err()
}

func (c *RedisCache) GetRoom(code string) (*models.Room, error) {
	key := "room:" + code
	data, err := c.client.Get(c.ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var room models.Room
	err = json.Unmarshal(data, &room)
	return &room, err
}

func (c *RedisCache) InvalidateRoom(code string) error {
	return c.client.Del(c.ctx, "room:"+code).Err()
}

// SetLeaderboard rewrites the room's sorted set from scratch. Points
// drive the ranking; the sorted set is keyed by participant id because
// display names are not unique, and a hash keyed by the same id carries
// the full entry.
func (c *RedisCache) SetLeaderboard(accessCode string, entries []models.LeaderboardEntry) error {
	zkey := "leaderboard:" + accessCode
	hkey := "leaderboard:entries:" + accessCode

	pipe := c.client.Pipeline()
	pipe.Del(c.ctx, zkey)
	pipe.Del(c.ctx, hkey)

	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		pipe.ZAdd(c.ctx, zkey, &redis.Z{
			Score:  float64(entry.TotalPoints),
			Member: entry.ParticipantID,
		})
		pipe.HSet(c.ctx, hkey, entry.ParticipantID, data)
	}

	pipe.Expire(c.ctx, zkey, cacheTTL)
	pipe.Expire(c.ctx, hkey, cacheTTL)

	_, err := pipe.Exec(c.ctx)
	return err
}

// GetLeaderboard returns redis.Nil when the room has no cached
// leaderboard so callers can fall back to the database.
func (c *RedisCache) GetLeaderboard(accessCode string) ([]models.LeaderboardEntry, error) {
	zkey := "leaderboard:" + accessCode
	hkey := "leaderboard:entries:" + accessCode

	results, err := c.client.ZRevRangeWithScores(c.ctx, zkey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, redis.Nil
	}

	stored, err := c.client.HGetAll(c.ctx, hkey).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(results))
	for _, z := range results {
		id := z.Member.(string)
		var entry models.LeaderboardEntry
		if err := json.Unmarshal([]byte(stored[id]), &entry); err != nil {
			// Hash and sorted set drifted apart, treat as a miss.
			return nil, redis.Nil
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
