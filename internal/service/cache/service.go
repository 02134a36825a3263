package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/constants"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
	"github.com/InduJay123/SmartAgriMarket-sub000/pkg/errors"
)

// CacheService stores session snapshots in Redis.
type CacheService struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
}

type CacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func NewCacheService(cfg CacheConfig, logger *zap.Logger) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewCacheError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return NewCacheServiceWithClient(client, logger), nil
}

// NewCacheServiceWithClient wraps an existing client.
func NewCacheServiceWithClient(client *redis.Client, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		client:    client,
		logger:    logger,
		keyPrefix: constants.SessionConfig.KeyPrefix,
	}
}

func (c *CacheService) key(sessionID string) string {
	return c.keyPrefix + sessionID
}

func (c *CacheService) indexKey() string {
	return c.keyPrefix + "index"
}

func (c *CacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		c.logger.Error("Cache get failed", zap.String("key", key), zap.Error(err))
		return false, errors.NewCacheError("get failed", "get", key, err)
	}

	if dest != nil {
		if err := json.Unmarshal([]byte(value), dest); err != nil {
			c.logger.Error("Cache unmarshal failed", zap.String("key", key), zap.Error(err))
			return false, errors.NewCacheError("unmarshal failed", "get", key, err)
		}
	}

	return true, nil
}

func (c *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("marshal failed", "set", key, err)
	}

	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		c.logger.Error("Cache set failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("set failed", "set", key, err)
	}

	return nil
}

func (c *CacheService) Del(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error("Cache delete failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("delete failed", "del", key, err)
	}
	return nil
}

// SaveSnapshot writes a session snapshot with a TTL and records the id in
// the snapshot index.
func (c *CacheService) SaveSnapshot(ctx context.Context, snapshot *domain.SessionSnapshot, ttl time.Duration) error {
	if snapshot == nil || snapshot.SessionID == "" {
		return errors.NewCacheError("snapshot requires a session id", "set", "", nil)
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return errors.NewCacheError("marshal failed", "set", c.key(snapshot.SessionID), err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.key(snapshot.SessionID), data, ttl)
	pipe.SAdd(ctx, c.indexKey(), snapshot.SessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Error("Snapshot save failed", zap.String("session_id", snapshot.SessionID), zap.Error(err))
		return errors.NewCacheError("snapshot save failed", "set", c.key(snapshot.SessionID), err)
	}

	return nil
}

// LoadSnapshot returns nil without error when no snapshot exists.
func (c *CacheService) LoadSnapshot(ctx context.Context, sessionID string) (*domain.SessionSnapshot, error) {
	var snapshot domain.SessionSnapshot
	found, err := c.Get(ctx, c.key(sessionID), &snapshot)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &snapshot, nil
}

func (c *CacheService) DeleteSnapshot(ctx context.Context, sessionID string) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, c.key(sessionID))
	pipe.SRem(ctx, c.indexKey(), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Error("Snapshot delete failed", zap.String("session_id", sessionID), zap.Error(err))
		return errors.NewCacheError("snapshot delete failed", "del", c.key(sessionID), err)
	}
	return nil
}

// SnapshotIDs lists indexed sessions whose snapshot has not expired and
// prunes the rest from the index.
func (c *CacheService) SnapshotIDs(ctx context.Context) ([]string, error) {
	ids, err := c.client.SMembers(ctx, c.indexKey()).Result()
	if err != nil {
		return nil, errors.NewCacheError("smembers failed", "smembers", c.indexKey(), err)
	}

	live := make([]string, 0, len(ids))
	var stale []any
	for _, id := range ids {
		n, err := c.client.Exists(ctx, c.key(id)).Result()
		if err != nil {
			return nil, errors.NewCacheError("exists failed", "exists", c.key(id), err)
		}
		if n > 0 {
			live = append(live, id)
		} else {
			stale = append(stale, id)
		}
	}

	if len(stale) > 0 {
		if err := c.client.SRem(ctx, c.indexKey(), stale...).Err(); err != nil {
			c.logger.Warn("Failed to prune snapshot index", zap.Int("stale", len(stale)), zap.Error(err))
		}
	}

	return live, nil
}

func (c *CacheService) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *CacheService) IsConnected(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}
