package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"github.com/ByLCY/reportcanvas/logging"
)

const scanBatchSize = 100

// Redis 把键存为 Redis 字符串，可选统一前缀以便多个应用共用一个库。
type Redis struct {
	conf     RedisConf
	internal *redis.Client
}

var _ Storage = (*Redis)(nil)

// NewRedis 连接并 PING 一次以尽早暴露配置错误。
func NewRedis(ctx context.Context, conf RedisConf) (*Redis, error) {
	if conf.Host == "" {
		conf.Host = "localhost"
	}
	if conf.Port == 0 {
		conf.Port = 6379
	}
	c := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", conf.Host, conf.Port),
		Password: conf.PW,
		DB:       conf.DB,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	logging.Logger().Info("redis storage initialized", "addr", c.Options().Addr, "db", conf.DB)
	return &Redis{conf: conf, internal: c}, nil
}

func (r *Redis) key(k string) string { return r.conf.Prefix + k }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.internal.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.internal.Set(ctx, r.key(key), value, 0).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.internal.Del(ctx, r.key(key)).Err()
}

func (r *Redis) Keys(ctx context.Context, prefix string) ([]string, error) {
	match := globEscape(r.key(prefix)) + "*"
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := r.internal.Scan(ctx, cursor, match, scanBatchSize).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if next == 0 {
			break
		}
		cursor = next
	}
	return scannedKeys(keys, r.conf.Prefix), nil
}

// scannedKeys 去掉命名空间前缀并排序；SCAN 可能多次返回同一个键，这里去重。
func scannedKeys(raw []string, prefix string) []string {
	keys := lo.Uniq(lo.Map(raw, func(k string, _ int) string { return strings.TrimPrefix(k, prefix) }))
	sort.Strings(keys)
	return keys
}

func (r *Redis) Close() error {
	if r.internal == nil {
		return nil
	}
	return r.internal.Close()
}

func globEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`).Replace(s)
}
