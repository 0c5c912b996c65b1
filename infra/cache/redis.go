package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// RedisCache 基于 go-redis 的 Cache 实现，支持单机与哨兵部署。
type RedisCache struct {
	client redis.UniversalClient
}

// RedisConfig 配置了 MasterName 与 SentinelAddrs 时使用 Sentinel 模式，否则为单机模式。
type RedisConfig struct {
	Host     string `mapstructure:"host"` // 单机地址 host:port
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	MasterName       string   `mapstructure:"master_name"`
	SentinelAddrs    []string `mapstructure:"sentinel_addrs"`
	SentinelUsername string   `mapstructure:"sentinel_username"` // Redis 6.2+
	SentinelPassword string   `mapstructure:"sentinel_password"`
}

// Sentinel 是否为哨兵模式。
func (c RedisConfig) Sentinel() bool {
	return c.MasterName != "" && len(c.SentinelAddrs) > 0
}

const (
	poolSize     = 20
	minIdleConns = 2
	maxRetries   = 3
	dialTimeout  = 5 * time.Second
	ioTimeout    = 3 * time.Second
)

func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	client := newClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "连接 redis 失败")
	}
	return &RedisCache{client: client}, nil
}

func newClient(cfg RedisConfig) redis.UniversalClient {
	if cfg.Sentinel() {
		return redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       cfg.MasterName,
			SentinelAddrs:    cfg.SentinelAddrs,
			SentinelUsername: cfg.SentinelUsername,
			SentinelPassword: cfg.SentinelPassword,
			Username:         cfg.Username,
			Password:         cfg.Password,
			DB:               cfg.DB,
			PoolSize:         poolSize,
			MinIdleConns:     minIdleConns,
			MaxRetries:       maxRetries,
			DialTimeout:      dialTimeout,
			ReadTimeout:      ioTimeout,
			WriteTimeout:     ioTimeout,
		})
	}
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Host,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     poolSize,
		MinIdleConns: minIdleConns,
		MaxRetries:   maxRetries,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})
}

// SetNX 写入成功返回 true，key 已存在返回 false。
func (r *RedisCache) SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, value, expiration).Result()
	if err != nil {
		return false, errors.Wrap(err, "redis setnx")
	}
	return ok, nil
}

func (r *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

var _ Cache = (*RedisCache)(nil)
