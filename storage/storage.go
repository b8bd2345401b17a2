// Package storage 提供按键读写的持久化能力，编辑会话、模板库与草稿都只依赖这里的接口。
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound 表示键不存在。
var ErrNotFound = errors.New("storage: key not found")

// Storage 是键值存储。值是不透明的字节（通常为 JSON）。
// 同一个键视为单写者资源，最后一次写入生效。
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys 返回以 prefix 开头的全部键（排序）。
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Backend 是可选的存储实现。
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendRedis  Backend = "redis"
	BackendSQLite Backend = "sqlite"
)

// RedisConf 描述 Redis 连接。
type RedisConf struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	PW     string `yaml:"pw"`
	DB     int    `yaml:"db"`
	Prefix string `yaml:"prefix"`
}

// Conf 选择并配置一个后端。
type Conf struct {
	Backend Backend   `yaml:"backend"`
	Dir     string    `yaml:"dir"`
	Path    string    `yaml:"path"`
	Redis   RedisConf `yaml:"redis"`
}

// Open 根据配置创建存储；空后端视为 memory。
func Open(ctx context.Context, conf Conf) (Storage, error) {
	switch Backend(strings.ToLower(string(conf.Backend))) {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendFile:
		return NewFile(conf.Dir)
	case BackendRedis:
		return NewRedis(ctx, conf.Redis)
	case BackendSQLite:
		return NewSQLite(conf.Path)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", conf.Backend)
	}
}
