package cache

import (
	"context"
	"testing"
	"time"

	"github.com/agiledragon/gomonkey/v2"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewRedisCache(t *testing.T) {
	Convey("TestNewRedisCache", t, func() {
		db, mock := redismock.NewClientMock()
		var got RedisConfig
		patches := gomonkey.ApplyFunc(newClient, func(cfg RedisConfig) redis.UniversalClient {
			got = cfg
			return db
		})
		defer patches.Reset()

		Convey("哨兵模式创建成功", func() {
			mock.ExpectPing().SetVal("PONG")
			cfg := RedisConfig{MasterName: "mymaster", SentinelAddrs: []string{"localhost:26379"}}
			cache, err := NewRedisCache(cfg)
			So(err, ShouldBeNil)
			So(cache, ShouldNotBeNil)
			So(got, ShouldResemble, cfg)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("Ping 失败", func() {
			mock.ExpectPing().SetErr(redis.ErrClosed)
			cache, err := NewRedisCache(RedisConfig{Host: "localhost:6379"})
			So(err, ShouldNotBeNil)
			So(cache, ShouldBeNil)
			So(err.Error(), ShouldContainSubstring, "连接 redis 失败")
		})
	})
}

func TestNewClient(t *testing.T) {
	Convey("按配置选择部署模式", t, func() {
		standalone := newClient(RedisConfig{Host: "localhost:6379"})
		defer standalone.Close()
		_, ok := standalone.(*redis.Client)
		So(ok, ShouldBeTrue)

		sentinel := newClient(RedisConfig{MasterName: "mymaster", SentinelAddrs: []string{"localhost:26379"}})
		defer sentinel.Close()
		So(sentinel, ShouldNotBeNil)
	})
}

func TestRedisConfig_Sentinel(t *testing.T) {
	Convey("TestRedisConfig_Sentinel", t, func() {
		So(RedisConfig{Host: "localhost:6379"}.Sentinel(), ShouldBeFalse)
		So(RedisConfig{MasterName: "mymaster"}.Sentinel(), ShouldBeFalse)
		So(RedisConfig{MasterName: "mymaster", SentinelAddrs: []string{"s:26379"}}.Sentinel(), ShouldBeTrue)
	})
}

func TestRedisCache_SetNX(t *testing.T) {
	Convey("TestRedisCache_SetNX", t, func() {
		db, mock := redismock.NewClientMock()
		cache := &RedisCache{client: db}
		ctx := context.Background()

		Convey("首次写入", func() {
			mock.ExpectSetNX("recurrence:ingest:1:PROBLEM", "1", time.Hour).SetVal(true)
			ok, err := cache.SetNX(ctx, "recurrence:ingest:1:PROBLEM", "1", time.Hour)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("键已存在", func() {
			mock.ExpectSetNX("recurrence:ingest:1:PROBLEM", "1", time.Hour).SetVal(false)
			ok, err := cache.SetNX(ctx, "recurrence:ingest:1:PROBLEM", "1", time.Hour)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("Redis 错误", func() {
			mock.ExpectSetNX("k", "1", time.Hour).SetErr(redis.ErrClosed)
			_, err := cache.SetNX(ctx, "k", "1", time.Hour)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "redis setnx")
		})
	})
}

func TestRedisCache_Del(t *testing.T) {
	Convey("TestRedisCache_Del", t, func() {
		db, mock := redismock.NewClientMock()
		cache := &RedisCache{client: db}
		ctx := context.Background()

		Convey("删除多个 key", func() {
			mock.ExpectDel("key1", "key2").SetVal(2)
			So(cache.Del(ctx, "key1", "key2"), ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("没有 key 时不访问 Redis", func() {
			So(cache.Del(ctx), ShouldBeNil)
			So(mock.ExpectationsWereMet(), ShouldBeNil)
		})

		Convey("Redis 错误", func() {
			mock.ExpectDel("key1").SetErr(redis.ErrClosed)
			err := cache.Del(ctx, "key1")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "redis del")
		})
	})
}

func TestRedisCache_Close(t *testing.T) {
	Convey("TestRedisCache_Close", t, func() {
		db, _ := redismock.NewClientMock()
		cache := &RedisCache{client: db}
		So(cache.Close(), ShouldBeNil)
	})
}
