package config

import (
	"strings"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	// Mode single 或 sentinel，Host 为空时不启用 redis
	Mode       string `yaml:"mode"`
	Host       string `yaml:"host"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	MasterName string `yaml:"master-name"`
}

func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func InitRDB(redisConfig RedisConfig) redis.UniversalClient {
	if redisConfig.Mode == "sentinel" {
		masterName := redisConfig.MasterName
		if masterName == "" {
			masterName = "mymaster"
		}
		return redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       masterName,
			SentinelAddrs:    strings.Split(redisConfig.Host, ","),
			Password:         redisConfig.Password,
			SentinelPassword: redisConfig.Password,
			DB:               redisConfig.DB,
		})
	}
	return redis.NewClient(&redis.Options{
		Addr:     redisConfig.Host,
		Password: redisConfig.Password,
		DB:       redisConfig.DB,
	})
}

// InitCache rdb 为 nil 时只使用进程内 TinyLFU
func InitCache(rdb redis.UniversalClient, localSize int, localTTL time.Duration) *cache.Cache {
	opts := &cache.Options{LocalCache: cache.NewTinyLFU(localSize, localTTL)}
	if rdb != nil {
		opts.Redis = rdb
	}
	return cache.New(opts)
}
