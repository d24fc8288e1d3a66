package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/dukerupert/lovetoday/internal/model"
)

// Redis key layout for the subscriber directory.
const (
	redisSubIndex  = "subs:index"
	redisSubPrefix = "sub:"
	redisKVPrefix  = "kv:"
)

func redisSubKey(id string) string { return redisSubPrefix + id }

// OpenRedis connects and pings the server.
func OpenRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type RedisKV struct {
	client *redis.Client
}

func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.client.Get(ctx, redisKVPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return b, nil
}

func (s *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, redisKVPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *RedisKV) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKVPrefix+key).Err(); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// RedisPushStore keeps each subscription in a hash sub:{id} and the active
// ids in the set subs:index.
type RedisPushStore struct {
	client *redis.Client
}

func NewRedisPushStore(client *redis.Client) *RedisPushStore {
	return &RedisPushStore{client: client}
}

func (s *RedisPushStore) Upsert(ctx context.Context, sub model.PushSubscription) error {
	key := redisSubKey(sub.ID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]interface{}{
			"id":       sub.ID,
			"endpoint": sub.Endpoint,
			"sub":      string(sub.Subscription),
			"tz":       sub.Timezone,
			"hour":     strconv.Itoa(sub.Hour),
			"minute":   strconv.Itoa(sub.Minute),
			"active":   "1",
		})
		pipe.HSetNX(ctx, key, "createdAt", strconv.FormatInt(sub.CreatedAt.UnixMilli(), 10))
		pipe.SAdd(ctx, redisSubIndex, sub.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert push subscription: %w", err)
	}
	return nil
}

// ListIDs returns the index members sorted for stable iteration.
func (s *RedisPushStore) ListIDs(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, redisSubIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *RedisPushStore) Get(ctx context.Context, id string) (*model.PushSubscription, error) {
	fields, err := s.client.HGetAll(ctx, redisSubKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get push subscription: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeRedisSub(id, fields), nil
}

func (s *RedisPushStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, redisSubIndex, id)
		pipe.Del(ctx, redisSubKey(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

func (s *RedisPushStore) MarkSent(ctx context.Context, id, date string) error {
	if err := s.client.HSet(ctx, redisSubKey(id), "lastSentDate", date).Err(); err != nil {
		return fmt.Errorf("mark push subscription sent: %w", err)
	}
	return nil
}

// decodeRedisSub applies the same defaults the dispatcher expects for
// partially written hashes: hour 8, minute 0.
func decodeRedisSub(id string, f map[string]string) *model.PushSubscription {
	sub := &model.PushSubscription{
		ID:           id,
		Endpoint:     f["endpoint"],
		Subscription: []byte(f["sub"]),
		Timezone:     f["tz"],
		Hour:         8,
		Active:       f["active"] == "1",
		LastSentDate: f["lastSentDate"],
	}
	if h, err := strconv.Atoi(f["hour"]); err == nil {
		sub.Hour = h
	}
	if m, err := strconv.Atoi(f["minute"]); err == nil {
		sub.Minute = m
	}
	if ms, err := strconv.ParseInt(f["createdAt"], 10, 64); err == nil {
		sub.CreatedAt = time.UnixMilli(ms).UTC()
	}
	return sub
}
